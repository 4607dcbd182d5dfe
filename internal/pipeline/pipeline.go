package pipeline

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"gocloud.dev/blob"

	"mrfetch/internal/config"
	"mrfetch/internal/fetcher"
	mrfhttp "mrfetch/internal/http"
	"mrfetch/internal/manifest"
	"mrfetch/internal/progress"
	"mrfetch/internal/runlog"
	"mrfetch/internal/store"
)

// Summary aggregates the outcomes of one run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
}

// Run executes the whole pipeline: load the manifest, download every row
// into bucket, write the run log, and print the summary and region
// listing through reporter. The returned results are in manifest order.
//
// Per-row failures do not abort the run; they are reflected in the
// Summary. The returned error covers configuration and setup problems
// only (missing or malformed manifest, unwritable log).
func Run(ctx context.Context, cfg config.Config, bucket *blob.Bucket, reporter *progress.Reporter) (Summary, []fetcher.Result, error) {
	rows, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return Summary{}, nil, err
	}

	reporter.RunStarted(cfg.Output, len(rows))

	f := fetcher.New(bucket, fetcher.Options{
		ChunkSize: cfg.ChunkSize,
		HTTPOptions: mrfhttp.Options{
			Timeout:    cfg.Timeout,
			Attempts:   cfg.Retry.Attempts,
			Backoff:    cfg.Retry.Backoff,
			MaxBackoff: cfg.Retry.MaxBackoff,
		},
	})

	results := fetchAll(ctx, cfg, f, rows, reporter)

	summary := Summary{Total: len(results)}
	var failures []progress.Failure
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
			summary.Bytes += r.Size
		} else {
			summary.Failed++
			failures = append(failures, progress.Failure{Name: r.Name, Error: r.Error})
		}
	}

	reporter.Summary(summary.Total, summary.Succeeded, summary.Failed, summary.Bytes, failures)

	if err := writeLog(ctx, bucket, results); err != nil {
		return summary, results, err
	}
	reporter.LogSaved(fmt.Sprintf("%s/%s", cfg.Output, runlog.LogKey))

	byRegion, regions, err := store.ListByRegion(ctx, bucket)
	if err != nil {
		return summary, results, err
	}
	listing := make(map[string][]progress.RegionFile, len(byRegion))
	for region, files := range byRegion {
		for _, file := range files {
			listing[region] = append(listing[region], progress.RegionFile{Name: file.Name, Size: file.Size})
		}
	}
	reporter.RegionListing(regions, listing)

	return summary, results, nil
}

// fetchAll downloads every row, returning results indexed by manifest
// position regardless of completion order. With workers == 1 rows run
// strictly sequentially; more workers run a bounded pool. Dispatches are
// spaced by the configured delay either way, to bound the request rate
// against remote servers.
func fetchAll(ctx context.Context, cfg config.Config, f *fetcher.Fetcher, rows []manifest.Row, reporter *progress.Reporter) []fetcher.Result {
	results := make([]fetcher.Result, len(rows))

	if cfg.Workers <= 1 {
		for i, row := range rows {
			if ctx.Err() != nil {
				markCanceled(ctx, results, rows, i)
				break
			}

			reporter.ItemStarted(i+1, len(rows), row.Name)
			results[i] = f.Fetch(ctx, row)
			report(reporter, results[i])

			if i < len(rows)-1 {
				if !pause(ctx, cfg.Delay) {
					markCanceled(ctx, results, rows, i+1)
					break
				}
			}
		}
		return results
	}

	type job struct {
		idx int
		row manifest.Row
	}

	jobs := make(chan job)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = f.Fetch(ctx, j.row)
				report(reporter, results[j.idx])
			}
		}()
	}

feed:
	for i, row := range rows {
		reporter.ItemStarted(i+1, len(rows), row.Name)

		select {
		case jobs <- job{idx: i, row: row}:
		case <-ctx.Done():
			markCanceled(ctx, results, rows, i)
			break feed
		}

		if i < len(rows)-1 {
			if !pause(ctx, cfg.Delay) {
				markCanceled(ctx, results, rows, i+1)
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func report(reporter *progress.Reporter, r fetcher.Result) {
	if r.Success {
		reporter.ItemOK(r.Name, path.Base(r.Key), r.Size)
	} else {
		reporter.ItemFailed(r.Name, r.Error)
	}
}

// pause sleeps for d, returning false if ctx was canceled first.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// markCanceled fills results for rows that were never dispatched.
func markCanceled(ctx context.Context, results []fetcher.Result, rows []manifest.Row, from int) {
	for i := from; i < len(rows); i++ {
		if results[i].Name == "" {
			results[i] = fetcher.Result{
				Name:  rows[i].Name,
				URL:   rows[i].URL,
				Error: ctx.Err().Error(),
			}
		}
	}
}

func writeLog(ctx context.Context, bucket *blob.Bucket, results []fetcher.Result) error {
	w, err := bucket.NewWriter(ctx, runlog.LogKey, nil)
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	if err := runlog.WriteCSV(w, results); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("save run log: %w", err)
	}
	return nil
}
