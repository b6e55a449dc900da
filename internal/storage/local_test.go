package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	key := NewKey("photo.PNG")

	parts := strings.SplitN(key, "/", 2)
	assert.Len(t, parts, 2)
	assert.Len(t, parts[0], 2)
	assert.True(t, strings.HasPrefix(parts[1], parts[0]))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.NotEqual(t, key, NewKey("photo.PNG"))
}

func TestNewKeyNoExtension(t *testing.T) {
	key := NewKey("upload")
	assert.NotContains(t, key, ".")
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "/media/")
	assert.NoError(t, err)

	key := NewKey("pic.jpg")
	err = store.Save(ctx, key, "image/jpeg", strings.NewReader("jpeg bytes"))
	assert.NoError(t, err)

	r, err := store.Open(ctx, key)
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	r.Close()
	assert.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))

	assert.Equal(t, "/media/"+key, store.URL(key))
}

func TestLocalStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "/media")
	assert.NoError(t, err)

	err = store.Save(ctx, "aa/aa1.png", "image/png", strings.NewReader("first"))
	assert.NoError(t, err)
	err = store.Save(ctx, "aa/aa1.png", "image/png", strings.NewReader("second"))
	assert.NoError(t, err)

	r, err := store.Open(ctx, "aa/aa1.png")
	assert.NoError(t, err)
	content, _ := io.ReadAll(r)
	r.Close()
	assert.Equal(t, "second", string(content))
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	assert.NoError(t, err)

	key := "bb/bb2.png"
	err = store.Save(ctx, key, "image/png", strings.NewReader("x"))
	assert.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "bb", "bb2.png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "/media")
	assert.NoError(t, err)

	err = store.Save(ctx, "../outside.txt", "text/plain", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.Open(ctx, "../../etc/passwd")
	assert.Error(t, err)
}
