// Package storage persists uploaded media (category pictures, import files)
// behind a backend-neutral interface with local-disk and S3 implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store saves and retrieves media objects by key.
type Store interface {
	// Save writes the object under key, overwriting any previous content.
	Save(ctx context.Context, key string, contentType string, body io.Reader) error
	// Open returns the object content. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL the object is served from.
	URL(key string) string
}

// NewKey generates a storage key for an upload: a random hex name under a
// two-character shard directory, keeping the original extension.
//
//	ab/ab34c1...de.png
func NewKey(filename string) string {
	name := strings.ReplaceAll(uuid.New().String(), "-", "")
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", name[:2], name, ext)
}
