package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hyperjump/semmap/internal/cli"
	"github.com/hyperjump/semmap/internal/keyword"
	"github.com/hyperjump/semmap/internal/models"
)

const httpTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: httpTimeout}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = rank against the local store)")
	limit := fs.Int("limit", 0, "number of results (0 = search.default_limit)")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	reload := fs.Bool("reload", false, "reload the snapshot before searching (local mode)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: semmap search [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(args))

	query := buildQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		return err
	}
	req := &models.SearchRequest{Query: query, Limit: *limit}

	ctx := context.Background()
	cfg, _, logger, err := setup(*configPath, false)
	if *serverURL != "" {
		// titles are optional when the server does the ranking
		var titles map[string]string
		if err == nil {
			defer logger.Sync()
			_, titles = loadTitles(ctx, cfg, logger)
		}
		resp, err := searchViaHTTP(*serverURL, req)
		if err != nil {
			return err
		}
		return cli.WriteSearchResults(os.Stdout, resp, titles, format)
	}
	if err != nil {
		return err
	}
	defer logger.Sync()
	_, titles := loadTitles(ctx, cfg, logger)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if err := ensureLoaded(ctx, components, cfg, *reload); err != nil {
		return err
	}
	resp, err := components.Engine.Search(ctx, req)
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(os.Stdout, resp, titles, format)
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

type suggestResult struct {
	Suggestions []keyword.Suggestion `json:"suggestions"`
	DidYouMean  string               `json:"did_you_mean"`
}

func runSuggest(args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use the local layout file)")
	limit := fs.Int("limit", 10, "number of suggestions")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(argsReorder(args))

	text := buildQuery(fs.Args())
	if text == "" {
		return fmt.Errorf("usage: semmap suggest [flags] <text>")
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		return err
	}

	var result suggestResult
	if *serverURL != "" {
		u := fmt.Sprintf("%s/api/v1/suggest?q=%s&limit=%d", *serverURL, url.QueryEscape(text), *limit)
		if err := getJSON(u, &result); err != nil {
			return err
		}
		return cli.WriteSuggestions(os.Stdout, text, result.Suggestions, result.DidYouMean, format)
	}

	cfg, _, logger, err := setup(*configPath, false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx := context.Background()
	points, _ := loadTitles(ctx, cfg, logger)
	idx, err := keyword.NewTitleIndex(points)
	if err != nil {
		return err
	}
	defer idx.Close()
	result.Suggestions, err = idx.Suggest(ctx, text, *limit)
	if err != nil {
		return err
	}
	if corrected, ok := idx.Correct(text); ok {
		result.DidYouMean = corrected
	}
	return cli.WriteSuggestions(os.Stdout, text, result.Suggestions, result.DidYouMean, format)
}

func getJSON(u string, v any) error {
	resp, err := httpClient.Get(u)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
