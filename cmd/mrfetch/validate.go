package main

import (
	"flag"
	"fmt"
	"os"

	"mrfetch/internal/manifest"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	manifestPath := fs.String("manifest", "", "CSV manifest to check (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: mrfetch validate [options]

Parse a manifest and report the first problem, without downloading
anything. A fetch run aborts on the first malformed row; validate lets
you find it up front.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	rows, err := manifest.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	regions := make(map[string]int)
	for _, row := range rows {
		regions[row.Region]++
	}

	fmt.Printf("Manifest OK: %d rows, %d regions\n", len(rows), len(regions))
	return ExitSuccess
}
