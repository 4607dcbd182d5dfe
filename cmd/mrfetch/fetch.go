package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mrfetch/internal/config"
	"mrfetch/internal/fetcher"
	"mrfetch/internal/pipeline"
	"mrfetch/internal/progress"
	"mrfetch/internal/runlog"
	"mrfetch/internal/store"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configPath := fs.String("config", "", "YAML configuration file")
	manifestPath := fs.String("manifest", "", "CSV manifest to download (required)")
	output := fs.String("output", "", "Output directory or bucket URL")
	workers := fs.Int("workers", 0, "Parallel transfers (default 1, sequential)")
	timeout := fs.Duration("timeout", 0, "Per-request timeout (default 120s)")
	chunkSize := fs.String("chunk-size", "", "Streaming buffer size (default 8KB)")
	delay := fs.Duration("delay", 0, "Pause between requests (default 500ms)")
	historyDB := fs.String("history", "", "SQLite run-history database (optional)")
	retryAttempts := fs.Int("retry-attempts", 0, "Attempts per item (default 3)")
	retryBackoff := fs.Duration("retry-backoff", 0, "Initial retry backoff (default 1s)")
	retryMaxBackoff := fs.Duration("retry-max-backoff", 0, "Max retry backoff (default 30s)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: mrfetch fetch [options]

Download every file listed in a CSV manifest into region-scoped
subdirectories of the output, and write a download_log.csv audit record.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	// Defaults < config file < environment < flags.
	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	override := config.Config{
		Manifest:  *manifestPath,
		Output:    *output,
		Workers:   *workers,
		Timeout:   *timeout,
		Delay:     *delay,
		HistoryDB: *historyDB,
		Retry: config.RetryConfig{
			Attempts:   *retryAttempts,
			Backoff:    *retryBackoff,
			MaxBackoff: *retryMaxBackoff,
		},
	}
	if *chunkSize != "" {
		size, err := progress.ParseBytes(*chunkSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid chunk size: %v\n", err)
			return ExitInvalidArgs
		}
		override.ChunkSize = int(size)
	}
	cfg = cfg.Merge(override)

	if cfg.Manifest == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[mrfetch] Received interrupt, shutting down...")
		cancel()
	}()

	bucket, err := store.Open(ctx, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	defer bucket.Close()

	reporter := progress.NewReporter(progress.Options{})
	reporter.Banner("Hospital Price Transparency File Downloader")

	started := time.Now()
	summary, results, err := pipeline.Run(ctx, cfg, bucket, reporter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	finished := time.Now()

	if cfg.HistoryDB != "" {
		if err := recordHistory(cfg, started, finished, summary, results); err != nil {
			// The run itself finished; a broken history DB shouldn't
			// change its outcome.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if summary.Failed > 0 {
		return ExitFailure
	}
	return ExitSuccess
}

func recordHistory(cfg config.Config, started, finished time.Time, summary pipeline.Summary, results []fetcher.Result) error {
	h, err := runlog.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer h.Close()

	_, err = h.RecordRun(runlog.Run{
		Manifest:  cfg.Manifest,
		Started:   started,
		Finished:  finished,
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Bytes:     summary.Bytes,
	}, results)
	return err
}
