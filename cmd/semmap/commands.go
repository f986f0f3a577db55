package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/cli"
	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/indexer"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/render"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/snapshot"
	"github.com/hyperjump/semmap/internal/storage"
)

func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(args))

	cfg, _, logger, err := setup(*configPath, false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if src := fs.Arg(0); src != "" {
		cfg.Storage.SnapshotPath = src
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if err := ensureLoaded(context.Background(), components, cfg, true); err != nil {
		return err
	}
	st := components.Engine.Status()
	fmt.Printf("Loaded %d embeddings from %s into %s store (load %s)\n", st.Count, cfg.Storage.SnapshotPath, st.StoreType, st.LoadID)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "", "output directory (default: directory of storage.snapshot_path)")
	patterns := fs.String("pattern", strings.Join(indexer.DefaultPatterns, ","), "comma-separated include patterns")
	excludes := fs.String("exclude", "", "comma-separated exclude patterns")
	chunkSize := fs.Int("chunk-size", 200, "words per chunk")
	chunkOverlap := fs.Int("chunk-overlap", 20, "overlapping words between chunks")
	quiet := fs.Bool("quiet", false, "hide the progress bar")
	_ = fs.Parse(argsReorder(args))

	root := fs.Arg(0)
	if root == "" {
		return fmt.Errorf("usage: semmap build [flags] <docs-dir>")
	}
	cfg, _, logger, err := setup(*configPath, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	outDir := *out
	if outDir == "" {
		if config.IsURL(cfg.Storage.SnapshotPath) {
			return fmt.Errorf("snapshot_path is a URL; pass --out")
		}
		outDir = filepath.Dir(cfg.Storage.SnapshotPath)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	defer embedder.Close()

	opts := []indexer.BuilderOption{
		indexer.WithPatterns(splitList(*patterns)...),
		indexer.WithExcludes(splitList(*excludes)...),
		indexer.WithChunking(*chunkSize, *chunkOverlap),
		indexer.WithLogger(logger),
	}
	if !*quiet {
		opts = append(opts, indexer.WithProgress(cli.NewProgress(os.Stderr, "Embedding")))
	}
	start := time.Now()
	res, err := indexer.NewBuilder(root, embedder, opts...).Build(context.Background())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	embPath := filepath.Join(outDir, snapshot.EmbeddingsFile)
	layoutPath := filepath.Join(outDir, snapshot.LayoutFile)
	if err := snapshot.WriteEmbeddings(embPath, res.Records); err != nil {
		return err
	}
	if err := snapshot.WriteLayout(layoutPath, res.Layout); err != nil {
		return err
	}
	fmt.Printf("Embedded %d documents in %s\n  %s\n  %s\n", len(res.Records), cli.FormatDuration(time.Since(start)), embPath, layoutPath)
	return nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	query := fs.String("query", "", "query applied to dot opacity")
	current := fs.String("current", "", "slug of the highlighted page")
	out := fs.String("out", "", "output file (default: stdout)")
	_ = fs.Parse(args)

	cfg, _, logger, err := setup(*configPath, false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx := context.Background()

	points, _ := loadTitles(ctx, cfg, logger)
	if len(points) == 0 {
		return fmt.Errorf("no layout points in %s", cfg.Storage.LayoutPath)
	}
	plot := render.NewPlot(cfg.Render)
	if q := strings.TrimSpace(*query); q != "" {
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()
		if err := ensureLoaded(ctx, components, cfg, false); err != nil {
			return err
		}
		resp, err := components.Engine.Search(ctx, &models.SearchRequest{Query: q})
		if resp != nil {
			plot.Apply(resp.Intensities)
		}
		if err != nil {
			logger.Warn("query failed, rendering unfiltered", zap.String("query", q), zap.Error(err))
		}
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return plot.WriteSVG(w, points, *current)
}

func runLive(args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	top := fs.Int("top", 10, "number of brightest documents to print (0 = all)")
	_ = fs.Parse(args)

	cfg, _, logger, err := setup(*configPath, false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if err := ensureLoaded(context.Background(), components, cfg, false); err != nil {
		return err
	}
	return live(os.Stdin, components.Engine, &cli.IntensityPrinter{W: os.Stdout, Top: *top},
		time.Duration(cfg.Search.DebounceMs)*time.Millisecond, logger)
}

// live feeds each input line to a debounced trigger, as if typed into the search box.
func live(in io.Reader, searcher search.Searcher, sink search.Sink, debounce time.Duration, logger *zap.Logger) error {
	tr := search.NewTrigger(searcher, sink, search.WithDebounce(debounce), search.WithTriggerLogger(logger))
	defer tr.Stop()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		tr.Input(scanner.Text())
	}
	tr.Flush()
	return scanner.Err()
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = inspect the local store)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		return err
	}
	status := map[string]any{}
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			return err
		}
	} else {
		cfg, _, logger, err := setup(*configPath, false)
		if err != nil {
			return err
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()
		if _, err := components.Engine.Resume(context.Background()); err != nil {
			return err
		}
		status, err = localStatus(components.Engine.Status(), cfg)
		if err != nil {
			return err
		}
	}
	if format == cli.OutputJSON {
		return cli.WriteJSON(os.Stdout, status)
	}
	writeStatusText(os.Stdout, status)
	return nil
}

func localStatus(st search.Status, cfg *config.Config) (map[string]any, error) {
	out := map[string]any{
		"ready":         st.Ready,
		"count":         st.Count,
		"store_type":    st.StoreType,
		"dimensions":    st.Dimensions,
		"strategy":      st.Strategy,
		"snapshot_path": cfg.Storage.SnapshotPath,
		"layout_path":   cfg.Storage.LayoutPath,
	}
	if st.LoadID != "" {
		out["load_id"] = st.LoadID
		out["loaded_at"] = st.LoadedAt.Format(time.RFC3339)
		out["source"] = st.Source
	}
	n, err := storage.DiskUsageBytes(storage.Paths(cfg.Storage)...)
	if err != nil {
		return nil, err
	}
	out["disk_usage_bytes"] = n
	return out, nil
}

func writeStatusText(w io.Writer, status map[string]any) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-18s %v\n", k+":", status[k])
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(*path, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *path)
	return nil
}
