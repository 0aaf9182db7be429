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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/anirag"
	"github.com/poiesic/anirag/ai"
	"github.com/poiesic/anirag/catalog"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/fetch"
	"github.com/poiesic/anirag/reindex"
	"github.com/poiesic/anirag/retrieval"
)

func main() {
	app := &cli.App{
		Name:  "anirag",
		Usage: "Retrieval-augmented anime catalog with external metadata fallback",
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
				Name:   "ingest",
				Usage:  "Ingest a Shoko catalog dump into the vector store",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "catalog",
						Aliases:  []string{"c"},
						Usage:    "Path to the catalog JSON dump",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per ingestion batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-concurrency",
						Usage: "Maximum concurrent batches",
						Value: 4,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Answer a question against the catalog",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.IntFlag{
						Name:  "min-results",
						Usage: "Minimum local results before fallback triggers",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "max-distance",
						Usage: "Largest acceptable best-result distance",
						Value: 0.8,
					},
					&cli.StringFlag{
						Name:  "extractor-model",
						Usage: "Title extraction model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "fetch-url",
						Usage: "AniDB gateway base URL for external fallback",
					},
				),
			},
			{
				Name:      "batch",
				Usage:     "Answer a file of questions, one per line",
				ArgsUsage: "<questions-file>",
				Action:    batchCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results per question",
						Value:   10,
					},
					&cli.IntFlag{
						Name:  "min-results",
						Usage: "Minimum local results before fallback triggers",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "max-distance",
						Usage: "Largest acceptable best-result distance",
						Value: 0.8,
					},
					&cli.IntFlag{
						Name:  "max-concurrency",
						Usage: "Maximum concurrent questions",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "extractor-model",
						Usage: "Title extraction model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "fetch-url",
						Usage: "AniDB gateway base URL for external fallback",
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector store from the metadata cache",
				Action: reindexCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-concurrency",
						Usage: "Maximum concurrent batches",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for cache reads",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:   "info",
				Usage:  "Show vector store and cache statistics",
				Action: infoCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Data directory holding the vector store and cache",
			Value:   "./data",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	}
	if model := c.String("extractor-model"); model != "" {
		opts = append(opts, ai.WithExtractorModel(model))
	}

	config := ai.NewConfig(opts...)
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openCatalog(c *cli.Context) (*anirag.Catalog, error) {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}

	opts := []anirag.CatalogOption{anirag.WithAIConfig(config)}
	if fetchURL := c.String("fetch-url"); fetchURL != "" {
		fetcher, err := fetch.NewAniDBClient(fetchURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, anirag.WithFetcher(fetcher))
	}

	return anirag.Open(c.String("data"), opts...)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	loader := catalog.NewLoader()
	records, err := loader.LoadFile(c.String("catalog"))
	if err != nil {
		return err
	}

	pipeline, err := cat.NewIngestionPipeline()
	if err != nil {
		return err
	}

	started := time.Now()
	report, err := pipeline.Ingest(ctx, records, c.Int("batch-size"), c.Int("max-concurrency"))
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d records in %d batches (%s)\n",
		report.TotalSucceeded, report.TotalBatches, time.Since(started).Round(time.Millisecond))
	for _, rejected := range report.RejectedRecords {
		fmt.Printf("  rejected %s: %v\n", rejected.RecordID, rejected.Err)
	}
	for _, failure := range report.FailedBatches {
		fmt.Printf("  batch %d failed: %v\n", failure.BatchID, failure.Err)
	}
	if !report.OK() {
		return fmt.Errorf("ingestion finished with %d failed batches and %d rejected records",
			len(report.FailedBatches), len(report.RejectedRecords))
	}
	return nil
}

func thresholdsFromFlags(c *cli.Context) retrieval.Thresholds {
	return retrieval.Thresholds{
		MinResultCount: c.Int("min-results"),
		MaxDistance:    c.Float64("max-distance"),
	}
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("usage: anirag query <question>")
	}

	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	engine := cat.NewEngine()
	results, err := engine.Retrieve(context.Background(), question, c.Int("limit"), thresholdsFromFlags(c))
	if err != nil {
		return err
	}

	printScoreTable(results)
	return nil
}

func batchCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("usage: anirag batch <questions-file>")
	}

	questions, err := readQuestions(path)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions in %s", path)
	}

	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	engine := cat.NewEngine()
	answers, err := engine.RetrieveBatch(context.Background(), questions,
		c.Int("limit"), thresholdsFromFlags(c), c.Int("max-concurrency"))
	if err != nil {
		return err
	}

	failed := 0
	for _, answer := range answers {
		fmt.Printf("\nQ: %s\n", answer.Question)
		if answer.Err != nil {
			failed++
			fmt.Printf("  error: %v\n", answer.Err)
			continue
		}
		printScoreTable(answer.Results)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d questions failed", failed, len(answers))
	}
	return nil
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			questions = append(questions, line)
		}
	}
	return questions, scanner.Err()
}

func printScoreTable(results []core.RetrievalResult) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("\n%-6s %-10s %-12s %s\n", "Rank", "Distance", "Record ID", "Title")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Println("(Lower distance = better match)")

	for i, result := range results {
		distance := "external"
		if result.HasDistance() {
			distance = fmt.Sprintf("%.4f", result.Distance)
		}
		fmt.Printf("%-6d %-10s %-12s %s\n", i+1, distance, result.Record.RecordID, result.Record.TitleMain)
	}
}

func reindexCommand(c *cli.Context) error {
	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	reindexer, err := cat.NewReindexer(reindex.Config{
		BatchSize:      c.Int("batch-size"),
		MaxConcurrency: c.Int("max-concurrency"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		ReportInterval: c.Int("report-interval"),
	})
	if err != nil {
		return err
	}

	report, err := reindexer.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Reindexed %d records in %d batches\n", report.TotalSucceeded, report.TotalBatches)
	for _, failure := range report.FailedBatches {
		fmt.Printf("  batch %d failed: %v\n", failure.BatchID, failure.Err)
	}
	return nil
}

func infoCommand(c *cli.Context) error {
	ctx := context.Background()

	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	count, err := cat.VectorStore().Count(ctx)
	if err != nil {
		return err
	}
	stats, err := cat.MetadataCache().Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Vector store entries: %d\n", count)
	fmt.Printf("Cache location: %s\n", stats.StorageLocation)
	fmt.Printf("Cached external records: %d (%d bytes)\n", stats.RecordCount, stats.IndexedBytes)
	if !stats.OldestFetch.IsZero() {
		fmt.Printf("Oldest fetch: %s\n", stats.OldestFetch.Format(time.RFC3339))
		fmt.Printf("Newest fetch: %s\n", stats.NewestFetch.Format(time.RFC3339))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
