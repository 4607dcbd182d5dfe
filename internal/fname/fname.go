package fname

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// MaxLength is the maximum length of a sanitized path segment.
const MaxLength = 100

var (
	forbidden  = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace = regexp.MustCompile(`\s+`)
	unsafe     = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

	// filename parameter in a Content-Disposition header, with optional quoting.
	dispFilename = regexp.MustCompile(`filename[^;=\n]*=(['"]?)([^'"\n]*)`)
)

// Sanitize converts a free-text label into a safe, lowercase path segment.
// It never fails; an all-invalid input yields the empty string.
func Sanitize(label string) string {
	s := forbidden.ReplaceAllString(label, "")
	s = whitespace.ReplaceAllString(s, "_")
	s = unsafe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if len(s) > MaxLength {
		s = s[:MaxLength]
	}
	return s
}

// ExtFromRequest guesses a file extension before the request is made.
// The URL path suffix wins over the declared type; unknown inputs fall
// through to ".json".
func ExtFromRequest(rawURL, declaredType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		// u.Path is already percent-decoded.
		for _, ext := range []string{".csv", ".json", ".zip", ".xlsx", ".xml"} {
			if strings.HasSuffix(u.Path, ext) {
				return ext
			}
		}
	}

	declared := strings.ToLower(declaredType)
	switch {
	case strings.Contains(declared, "csv"):
		return ".csv"
	case strings.Contains(declared, "json"):
		return ".json"
	case strings.Contains(declared, "zip"):
		return ".zip"
	case strings.Contains(declared, "api"):
		// API endpoints typically return JSON.
		return ".json"
	}

	return ".json"
}

// ExtFromResponse refines the extension guess once response headers are
// available. The Content-Type header wins, then a filename embedded in
// Content-Disposition, then the fallback.
func ExtFromResponse(header http.Header, fallback string) string {
	contentType := strings.ToLower(header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "csv"):
		return ".csv"
	case strings.Contains(contentType, "json"):
		return ".json"
	case strings.Contains(contentType, "zip"):
		return ".zip"
	case strings.Contains(contentType, "excel"), strings.Contains(contentType, "spreadsheet"):
		return ".xlsx"
	case strings.Contains(contentType, "xml"):
		return ".xml"
	}

	if disp := header.Get("Content-Disposition"); strings.Contains(disp, "filename=") {
		if m := dispFilename.FindStringSubmatch(disp); m != nil {
			filename := strings.Trim(m[2], `'"`)
			if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
				return "." + strings.ToLower(filename[i+1:])
			}
		}
	}

	return fallback
}
