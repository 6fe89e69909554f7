package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutOpenDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 1024)
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Put(ctx, "cases/c1/a.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.Checksum)
	assert.Equal(t, int64(5), obj.Size)

	rc, err := store.Open(ctx, "cases/c1/a.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, "cases/c1/a.pdf"))
	_, err = store.Open(ctx, "cases/c1/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "cases/c1/a.pdf"))
}

func TestFileStore_RejectsOversizedContent(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root, 4)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "cases/c1/big.bin", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "cases", "c1"))
	require.NoError(t, err)
	assert.Empty(t, entries, "partial upload must be cleaned up")
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	for _, key := range []string{"", "../x", "/etc/passwd", "."} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileStore_HonoursCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "cases/c1/a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
