// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/semsearch"
	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/embed"
	"github.com/poiesic/semsearch/pipeline"
	"github.com/poiesic/semsearch/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	defaults := semsearch.DefaultPaths()

	pathFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "raw-data",
			Usage: "Raw corpus CSV with text, source and url columns",
			Value: defaults.RawData,
		},
		&cli.StringFlag{
			Name:  "prepared-data",
			Usage: "Prepared corpus CSV",
			Value: defaults.PreparedData,
		},
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Embedding snapshot file",
			Value: defaults.Snapshot,
		},
		&cli.StringFlag{
			Name:  "index",
			Usage: "Vector index file",
			Value: defaults.Index,
		},
	}

	providerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "Embedding provider (openai, ollama)",
			Value:   ai.ProviderOpenAI,
			EnvVars: []string{"SEMSEARCH_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"SEMSEARCH_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"SEMSEARCH_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the embedding service",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Requested embedding dimensions (0 for the model default)",
		},
	}

	embedFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records sent to the provider per call",
			Value: embed.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Maximum provider calls per batch",
			Value: 5,
		},
		&cli.DurationFlag{
			Name:  "backoff-base",
			Usage: "Wait after the first transient failure, doubled on each retry",
			Value: 1 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "batch-delay",
			Usage: "Minimum spacing between batches",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N records",
			Value: embed.DefaultBatchSize,
		},
		&cli.BoolFlag{
			Name:  "normalize",
			Usage: "Scale vectors to unit length",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "BadgerDB directory caching embeddings between runs",
		},
	}

	queryFlags := []cli.Flag{
		&cli.IntFlag{
			Name:    "k",
			Aliases: []string{"n"},
			Usage:   "Number of results",
			Value:   search.DefaultK,
		},
		&cli.BoolFlag{
			Name:  "normalize-query",
			Usage: "Strip whitespace runs and diacritics from the query before embedding",
		},
	}

	concat := func(groups ...[]cli.Flag) []cli.Flag {
		var out []cli.Flag
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}

	return &cli.App{
		Name:      "semsearch",
		Usage:     "Semantic search over a text corpus",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "prepare",
				Usage:  "Normalize the raw corpus into the prepared CSV",
				Action: prepareCommand,
				Flags:  pathFlags,
			},
			{
				Name:   "embed",
				Usage:  "Embed the prepared corpus into a snapshot",
				Action: embedCommand,
				Flags:  concat(pathFlags, providerFlags, embedFlags),
			},
			{
				Name:   "index",
				Usage:  "Build the vector index from the snapshot",
				Action: indexCommand,
				Flags:  pathFlags,
			},
			{
				Name:      "query",
				Usage:     "Search the index",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: concat(pathFlags, providerFlags, queryFlags, []cli.Flag{
					&cli.BoolFlag{
						Name:  "each",
						Usage: "Treat every argument as its own query and run them concurrently",
					},
				}),
			},
			{
				Name:      "run",
				Usage:     "Run prepare, embed and index as needed, then answer an optional query",
				ArgsUsage: "[query text]",
				Action:    runCommand,
				Flags: concat(pathFlags, providerFlags, embedFlags, queryFlags, []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild every artifact even if it exists",
					},
				}),
			},
		},
	}
}

// openEngine builds an engine from the flags present on c.
func openEngine(c *cli.Context) (*semsearch.Engine, error) {
	paths := semsearch.Paths{
		RawData:      c.String("raw-data"),
		PreparedData: c.String("prepared-data"),
		Snapshot:     c.String("snapshot"),
		Index:        c.String("index"),
		CacheDir:     c.String("cache-dir"),
	}

	opts := []semsearch.EngineOption{
		semsearch.WithProgress(c.App.ErrWriter),
		semsearch.WithQueryNormalization(c.Bool("normalize-query")),
	}

	// prepare and index carry no provider flags and fall back to defaults.
	if defines(c, "provider") {
		aiConfig := ai.NewConfig(
			ai.WithProvider(c.String("provider")),
			ai.WithEmbeddingHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
			ai.WithDimensions(c.Int("dimensions")),
		)
		if key := c.String("api-key"); key != "" {
			aiConfig.Token = key
		}
		if err := aiConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid AI configuration: %w", err)
		}
		opts = append(opts, semsearch.WithAIConfig(aiConfig))
	}

	if defines(c, "batch-size") {
		embedConfig := &embed.Config{
			BatchSize:      c.Int("batch-size"),
			MaxAttempts:    c.Int("max-attempts"),
			BackoffBase:    c.Duration("backoff-base"),
			BatchDelay:     c.Duration("batch-delay"),
			ReportInterval: c.Int("report-interval"),
			Normalize:      c.Bool("normalize"),
		}
		if err := embedConfig.Validate(); err != nil {
			return nil, err
		}
		opts = append(opts, semsearch.WithEmbedConfig(embedConfig))
	}

	return semsearch.NewEngine(paths, opts...)
}

// defines reports whether the running command declares the named flag.
func defines(c *cli.Context, name string) bool {
	if c.Command == nil {
		return false
	}
	for _, f := range c.Command.Flags {
		if slices.Contains(f.Names(), name) {
			return true
		}
	}
	return false
}

func prepareCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	records, err := engine.Prepare(c.Context)
	if err != nil {
		return fmt.Errorf("prepare failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Prepared %d records into %s\n", len(records), engine.Paths().PreparedData)
	return nil
}

func embedCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Provider: %s\n", c.String("provider"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := engine.Embed(c.Context); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	idx, err := engine.BuildIndex(c.Context)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Indexed %d vectors of dimension %d into %s\n",
		idx.Len(), idx.Dim(), engine.Paths().Index)
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.Bool("each") {
		return queryEachCommand(c)
	}

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Query(c.Context, query, c.Int("k"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	printResults(c.App.Writer, results)
	return nil
}

func queryEachCommand(c *cli.Context) error {
	var queries []string
	for _, arg := range c.Args().Slice() {
		if q := strings.TrimSpace(arg); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	all, err := engine.QueryMany(c.Context, queries, c.Int("k"))
	for i, results := range all {
		if results == nil {
			continue
		}
		fmt.Fprintf(c.App.Writer, "Query %d: %s\n", i+1, queries[i])
		printResults(c.App.Writer, results)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

func runCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	runner, err := engine.Pipeline(query, c.Int("k"), func(results []*core.SearchResult) error {
		printResults(c.App.Writer, results)
		return nil
	}, pipeline.WithForce(c.Bool("force")))
	if err != nil {
		return err
	}

	for _, s := range runner.States() {
		slog.Debug("stage state", "stage", s.Name, "state", s.State, "output", s.Output)
	}
	return runner.Run(c.Context)
}

func printResults(w io.Writer, results []*core.SearchResult) {
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, hit := range results {
		date := ""
		if r := hit.Record; r.Year != nil && r.Month != nil && r.Day != nil {
			date = fmt.Sprintf(" %s-%s-%s", *r.Year, *r.Month, *r.Day)
		}
		fmt.Fprintf(w, "%d: [%0.4f] %s (%s%s) %s\n",
			i+1, hit.Score, hit.Record.CleanedText, hit.Record.Source, date, hit.Record.URL)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
