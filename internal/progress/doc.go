// Package progress prints human-readable run output.
//
// The Reporter covers the whole console surface of a run: the banner,
// per-item [i/n] progress lines, [OK]/[FAIL] outcome lines, the summary
// block with totals, the failure listing, and the per-region file
// listing. All output goes to a single io.Writer (stdout by default) so
// tests can capture it.
//
// # Output Format
//
//	[3/12] Downloading St Example Medical Center...
//	  [OK] St Example Medical Center: st_example_medical_center.json (1,234,567 bytes)
//	  [FAIL] Example General: HTTP 404: Not Found
package progress
