// Package main is the semmap CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/semmap/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/semmap/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml in the
// current directory takes precedence so that running from a project dir uses the
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "search":
		err = runSearch(args)
	case "load":
		err = runLoad(args)
	case "build":
		err = runBuild(args)
	case "render":
		err = runRender(args)
	case "live":
		err = runLive(args)
	case "suggest":
		err = runSuggest(args)
	case "status":
		err = runStatus(args)
	case "init":
		err = runInit(args)
	case "version", "--version", "-v":
		fmt.Printf("semmap version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

// buildQuery joins positional args with spaces so multi-word queries work the same
// with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that appear after the query to the front so that
// flag.Parse sees them; the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printUsage() {
	fmt.Println(`semmap - semantic map search for a documentation site

Usage:
  semmap server [flags]               Start the HTTP server
  semmap search [flags] <query>       Rank pages against a query
  semmap suggest [flags] <text>       Suggest pages by title
  semmap load [flags] [source]        Load an embeddings snapshot into the store
  semmap build [flags] <docs-dir>     Embed a docs tree into snapshot files
  semmap render [flags]               Write the map as SVG
  semmap live [flags]                 Read queries from stdin, print intensities
  semmap status [flags]               Show store and snapshot status
  semmap init [flags]                 Write a default config file
  semmap version                      Show version
  semmap help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/semmap/config.yaml,
                     or ./config.yaml when present)

Server Flags:
  --debug            Enable debug logging
  --reload           Reload the snapshot even when the store already holds one

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to
                     rank directly against the local store.
  --limit int        Number of results (default: search.default_limit, 0 = all)
  --output string    text, compact or json (default: text)

Build Flags:
  --out string       Output directory for document_embeddings.json and umap.json
  --pattern string   Comma-separated doublestar include patterns (default: **/*.md)
  --exclude string   Comma-separated doublestar exclude patterns

Render Flags:
  --query string     Query applied to dot opacity
  --current string   Slug of the highlighted page
  --out string       Output file (default: stdout)

Examples:
  semmap build --out site/assets docs/
  semmap load site/assets/document_embeddings.json
  semmap server
  semmap search "installing on linux"
  semmap search --output json --limit 5 "configuration"
  semmap render --query "deploy" --current guide/deploy --out map.svg
  semmap status --output json`)
}
