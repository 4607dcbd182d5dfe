package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	content := "hospital_name,mrf_download_url,file_type,region\n" + rows
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestRunNoArgs(t *testing.T) {
	if code := run(nil); code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"frobnicate"}); code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
}

func TestRunHelp(t *testing.T) {
	if code := run([]string{"help"}); code != ExitSuccess {
		t.Errorf("expected exit %d, got %d", ExitSuccess, code)
	}
}

func TestFetchMissingManifestFlag(t *testing.T) {
	if code := run([]string{"fetch"}); code != ExitInvalidArgs {
		t.Errorf("expected exit %d, got %d", ExitInvalidArgs, code)
	}
}

func TestFetchManifestFileMissing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	code := run([]string{"fetch",
		"-manifest", filepath.Join(t.TempDir(), "missing.csv"),
		"-output", out,
	})
	if code != ExitFailure {
		t.Errorf("expected exit %d for missing manifest, got %d", ExitFailure, code)
	}
}

func TestFetchEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	manifestPath := writeManifest(t, fmt.Sprintf("Row One,%s/data,API,East\n", server.URL))
	out := filepath.Join(t.TempDir(), "out")
	historyDB := filepath.Join(t.TempDir(), "history.db")

	code := run([]string{"fetch",
		"-manifest", manifestPath,
		"-output", out,
		"-delay", "1ms",
		"-history", historyDB,
	})
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d", ExitSuccess, code)
	}

	if _, err := os.Stat(filepath.Join(out, "east", "row_one.json")); err != nil {
		t.Errorf("expected downloaded file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "download_log.csv")); err != nil {
		t.Errorf("expected run log: %v", err)
	}
	if _, err := os.Stat(historyDB); err != nil {
		t.Errorf("expected history db: %v", err)
	}

	if code := run([]string{"history", "-db", historyDB}); code != ExitSuccess {
		t.Errorf("history: expected exit %d, got %d", ExitSuccess, code)
	}
}

func TestFetchFailureExitCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	manifestPath := writeManifest(t, fmt.Sprintf("Row One,%s/data,API,East\n", server.URL))
	out := filepath.Join(t.TempDir(), "out")

	code := run([]string{"fetch",
		"-manifest", manifestPath,
		"-output", out,
		"-delay", "1ms",
	})
	if code != ExitFailure {
		t.Errorf("expected exit %d when a row fails, got %d", ExitFailure, code)
	}

	// The log is still written for a failed run.
	if _, err := os.Stat(filepath.Join(out, "download_log.csv")); err != nil {
		t.Errorf("expected run log despite failure: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	good := writeManifest(t, "Row One,https://example.com/a.json,JSON,East\n")
	if code := run([]string{"validate", "-manifest", good}); code != ExitSuccess {
		t.Errorf("expected exit %d for valid manifest, got %d", ExitSuccess, code)
	}

	bad := writeManifest(t, "Row One,,JSON,East\n")
	if code := run([]string{"validate", "-manifest", bad}); code != ExitFailure {
		t.Errorf("expected exit %d for malformed manifest, got %d", ExitFailure, code)
	}

	if code := run([]string{"validate"}); code != ExitInvalidArgs {
		t.Errorf("expected exit %d without -manifest, got %d", ExitInvalidArgs, code)
	}
}
