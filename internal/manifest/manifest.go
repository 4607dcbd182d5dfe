package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Column names required in the manifest header.
const (
	ColName   = "hospital_name"
	ColURL    = "mrf_download_url"
	ColType   = "file_type"
	ColRegion = "region"
)

// Row is one manifest record. All four fields are mandatory.
type Row struct {
	Name         string // organization label, used for filenames and logs
	URL          string // fully-qualified HTTP(S) source URL
	DeclaredType string // free-form type hint: "CSV", "JSON", "API", ...
	Region       string // grouping key for output subdirectories
}

// Load reads a CSV manifest from path, preserving input order. A missing
// file, a missing required column, or an empty required field in any row
// is a configuration error that fails the whole load.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return rows, nil
}

// Parse reads manifest rows from r. See Load.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // length checked against the header below

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty manifest")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range []string{ColName, ColURL, ColType, ColRegion} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := Row{}
		for _, col := range []struct {
			name string
			dst  *string
		}{
			{ColName, &row.Name},
			{ColURL, &row.URL},
			{ColType, &row.DeclaredType},
			{ColRegion, &row.Region},
		} {
			i := idx[col.name]
			if i >= len(record) || record[i] == "" {
				return nil, fmt.Errorf("line %d: missing required field %q", line, col.name)
			}
			*col.dst = record[i]
		}

		rows = append(rows, row)
	}

	return rows, nil
}
