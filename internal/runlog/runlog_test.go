package runlog

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"mrfetch/internal/fetcher"
)

func sampleResults() []fetcher.Result {
	return []fetcher.Result{
		{
			Name:    "St. Mary's Hospital",
			URL:     "https://example.com/prices.json",
			Success: true,
			Key:     "east_bay/st._marys_hospital.json",
			Size:    1234,
		},
		{
			Name:  "General Hospital",
			URL:   "https://example.com/prices2.json",
			Error: "HTTP 500: Internal Server Error",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read log back: %v", err)
	}

	// Header plus one row per result.
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	header := records[0]
	want := []string{"hospital", "url", "success", "filename", "size", "error"}
	for i, col := range want {
		if header[i] != col {
			t.Errorf("header[%d] = %q, want %q", i, header[i], col)
		}
	}

	ok := records[1]
	if ok[0] != "St. Mary's Hospital" || ok[2] != "true" || ok[3] != "east_bay/st._marys_hospital.json" || ok[4] != "1234" || ok[5] != "" {
		t.Errorf("unexpected success row: %v", ok)
	}

	fail := records[2]
	if fail[2] != "false" || fail[3] != "" || fail[4] != "0" || fail[5] != "HTTP 500: Internal Server Error" {
		t.Errorf("unexpected failure row: %v", fail)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read log back: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d records", len(records))
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	h, err := OpenHistory(filepath.Join(tmpDir, "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	finished := time.Now().UTC().Truncate(time.Second)

	runID, err := h.RecordRun(Run{
		Manifest:  "manifest.csv",
		Started:   started,
		Finished:  finished,
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Bytes:     1234,
	}, sampleResults())
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := h.Runs(10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	run := runs[0]
	if run.ID != runID {
		t.Errorf("expected run ID %d, got %d", runID, run.ID)
	}
	if run.Manifest != "manifest.csv" || run.Total != 2 || run.Succeeded != 1 || run.Failed != 1 || run.Bytes != 1234 {
		t.Errorf("unexpected run record: %+v", run)
	}

	items, err := h.Items(runID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "St. Mary's Hospital" || !items[0].Success || items[0].Key != "east_bay/st._marys_hospital.json" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Success || items[1].Error != "HTTP 500: Internal Server Error" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestHistoryMultipleRuns(t *testing.T) {
	tmpDir := t.TempDir()
	h, err := OpenHistory(filepath.Join(tmpDir, "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		_, err := h.RecordRun(Run{
			Manifest: "manifest.csv",
			Started:  base.Add(time.Duration(i) * time.Hour),
			Finished: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Total:    1,
		}, nil)
		if err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := h.Runs(2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit of 2 runs, got %d", len(runs))
	}
	if !runs[0].Started.After(runs[1].Started) {
		t.Error("expected runs ordered newest first")
	}
}
