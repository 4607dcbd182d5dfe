package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"mrfetch/internal/fetcher"
)

// LogKey is the bucket key the run log is written under.
const LogKey = "download_log.csv"

// WriteCSV writes the run log: a header plus one row per manifest item,
// in manifest order. Absent optional fields are empty strings.
func WriteCSV(w io.Writer, results []fetcher.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"hospital", "url", "success", "filename", "size", "error"}); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Name,
			r.URL,
			strconv.FormatBool(r.Success),
			r.Key,
			strconv.FormatInt(r.Size, 10),
			r.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write log row for %s: %w", r.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
