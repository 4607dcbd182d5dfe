package fetcher

import (
	"context"
	"fmt"
	"sync"

	"gocloud.dev/blob"
)

// namer allocates collision-free bucket keys. Allocation is serialized
// and remembers keys handed out during the run, so two rows that
// sanitize to the same name get distinct keys even when their transfers
// overlap or neither has finished writing yet.
type namer struct {
	bucket *blob.Bucket

	mu    sync.Mutex
	taken map[string]bool
}

func newNamer(bucket *blob.Bucket) *namer {
	return &namer{
		bucket: bucket,
		taken:  make(map[string]bool),
	}
}

// Allocate returns region/base+ext, appending _1, _2, ... until the key
// collides with neither a stored object nor a key already allocated this
// run. Existing objects are never overwritten.
func (n *namer) Allocate(ctx context.Context, region, base, ext string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := fmt.Sprintf("%s/%s%s", region, base, ext)
	for counter := 1; ; counter++ {
		if !n.taken[key] {
			exists, err := n.bucket.Exists(ctx, key)
			if err != nil {
				return "", fmt.Errorf("check %s: %w", key, err)
			}
			if !exists {
				break
			}
		}
		key = fmt.Sprintf("%s/%s_%d%s", region, base, counter, ext)
	}

	n.taken[key] = true
	return key, nil
}
