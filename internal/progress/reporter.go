package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

const bannerWidth = 70

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer
}

// Reporter outputs human-readable progress for a pipeline run. Its
// methods are safe for concurrent use so pooled transfers can report
// outcomes as they complete.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Reporter{out: opts.Output}
}

// Banner prints the run header.
func (r *Reporter) Banner(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, title)
	fmt.Fprintln(r.out, rule)
}

// RunStarted reports the output location and item count before the
// first download.
func (r *Reporter) RunStarted(output string, items int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\nOutput directory: %s\n", output)
	fmt.Fprintf(r.out, "Found %d items to download\n\n", items)
	fmt.Fprintf(r.out, "Starting downloads...\n\n")
}

// ItemStarted prints the progress line for item i of n.
func (r *Reporter) ItemStarted(i, n int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%d/%d] Downloading %s...\n", i, n, name)
}

// ItemOK prints the outcome line for a successful item.
func (r *Reporter) ItemOK(name, filename string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "  [OK] %s: %s (%s bytes)\n", name, filename, humanize.Comma(size))
}

// ItemFailed prints the outcome line for a failed item.
func (r *Reporter) ItemFailed(name, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "  [FAIL] %s: %s\n", name, errMsg)
}

// Failure is a failed item echoed in the summary.
type Failure struct {
	Name  string
	Error string
}

// Summary prints the end-of-run totals and re-lists every failure.
func (r *Reporter) Summary(total, succeeded, failed int, bytes int64, failures []Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(r.out, "\n%s\n", rule)
	fmt.Fprintln(r.out, "DOWNLOAD SUMMARY")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Total items: %d\n", total)
	fmt.Fprintf(r.out, "Successful downloads: %d\n", succeeded)
	fmt.Fprintf(r.out, "Failed downloads: %d\n", failed)
	fmt.Fprintf(r.out, "Total data downloaded: %.2f MB\n", float64(bytes)/(1024*1024))

	if len(failures) > 0 {
		fmt.Fprintln(r.out, "\nFailed downloads:")
		for _, f := range failures {
			fmt.Fprintf(r.out, "  - %s: %s\n", f.Name, f.Error)
		}
	}
}

// LogSaved reports where the run log was written.
func (r *Reporter) LogSaved(location string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\nDownload log saved to: %s\n", location)
}

// RegionFile is one stored file in a region listing.
type RegionFile struct {
	Name string
	Size int64
}

// RegionListing prints the files stored under each region, regions in
// the order given.
func (r *Reporter) RegionListing(regions []string, files map[string][]RegionFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "\nFiles by region:")
	for _, region := range regions {
		if len(files[region]) == 0 {
			continue
		}
		fmt.Fprintf(r.out, "\n  %s/\n", region)
		for _, f := range files[region] {
			fmt.Fprintf(r.out, "    - %s (%s bytes)\n", f.Name, humanize.Comma(f.Size))
		}
	}
}

// ParseBytes parses a human-readable byte string (e.g. "8KB", "256MB").
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}
