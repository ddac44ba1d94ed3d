package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/recipebox/internal/store"
)

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens a file-backed store in a fresh temp dir, closed on cleanup.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipebox.db")
	opts = append([]store.Option{store.WithLogger(QuietLogger())}, opts...)
	s, err := store.Open(path, opts...)
	if err != nil {
		t.Fatalf("store.Open(%s) failed: %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
