package store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// Open opens the output bucket. A plain path opens a local directory
// (created if absent); anything with a scheme goes through
// blob.OpenBucket, so tests can use mem:// and deployments can point at
// any registered driver.
func Open(ctx context.Context, output string) (*blob.Bucket, error) {
	if strings.Contains(output, "://") {
		bucket, err := blob.OpenBucket(ctx, output)
		if err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", output, err)
		}
		return bucket, nil
	}

	bucket, err := fileblob.OpenBucket(output, &fileblob.Options{
		CreateDir: true,
		// Attribute sidecar files would show up in region listings.
		Metadata: fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open output dir %s: %w", output, err)
	}
	return bucket, nil
}

// Write streams r to key in fixed-size chunks, returning the number of
// bytes written. Empty reads are skipped without being written.
func Write(ctx context.Context, bucket *blob.Bucket, key string, r io.Reader, chunkSize int) (int64, error) {
	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", key, err)
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			nw, writeErr := w.Write(buf[:n])
			if writeErr != nil {
				w.Close()
				return written, fmt.Errorf("write %s: %w", key, writeErr)
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			w.Close()
			return written, fmt.Errorf("read body: %w", readErr)
		}
	}

	if err := w.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", key, err)
	}
	return written, nil
}

// File is one stored object within a region.
type File struct {
	Name string // filename without the region prefix
	Size int64
}

// ListByRegion lists stored files grouped by their region prefix, with
// regions and filenames sorted by name. Keys without a region prefix
// (such as the run log at the bucket root) are skipped.
func ListByRegion(ctx context.Context, bucket *blob.Bucket) (map[string][]File, []string, error) {
	byRegion := make(map[string][]File)

	iter := bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("list output: %w", err)
		}

		region, name, ok := strings.Cut(obj.Key, "/")
		if !ok {
			continue
		}
		byRegion[region] = append(byRegion[region], File{Name: name, Size: obj.Size})
	}

	regions := make([]string, 0, len(byRegion))
	for region, files := range byRegion {
		regions = append(regions, region)
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	}
	sort.Strings(regions)

	return byRegion, regions, nil
}
