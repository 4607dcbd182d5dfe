package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"mrfetch/internal/runlog"
)

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)

	dbPath := fs.String("db", "", "SQLite run-history database (required)")
	limit := fs.Int("n", 10, "Number of runs to list")
	runID := fs.Int64("run", 0, "Show per-item results for one run")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: mrfetch history [options]

List past runs recorded with 'fetch -history'.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	h, err := runlog.OpenHistory(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	defer h.Close()

	if *runID != 0 {
		return printRunItems(h, *runID)
	}

	runs, err := h.Runs(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return ExitSuccess
	}

	for _, r := range runs {
		fmt.Printf("run %d  %s  %s  %d items, %d ok, %d failed, %s bytes\n",
			r.ID,
			r.Started.Format("2006-01-02 15:04:05"),
			r.Manifest,
			r.Total,
			r.Succeeded,
			r.Failed,
			humanize.Comma(r.Bytes),
		)
	}
	return ExitSuccess
}

func printRunItems(h *runlog.History, runID int64) int {
	items, err := h.Items(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if len(items) == 0 {
		fmt.Printf("No items recorded for run %d.\n", runID)
		return ExitSuccess
	}

	for _, item := range items {
		if item.Success {
			fmt.Printf("  [OK] %s: %s (%s bytes)\n", item.Name, item.Key, humanize.Comma(item.Size))
		} else {
			fmt.Printf("  [FAIL] %s: %s\n", item.Name, item.Error)
		}
	}
	return ExitSuccess
}
