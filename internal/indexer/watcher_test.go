package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/types"
)

func TestWatcherReindexesOnNewFile(t *testing.T) {
	root := writeProject(t)
	cfg := config.Default(root)
	cfg.Index.WatchDebounceMs = 20
	idx := New(cfg)

	_, err := idx.FullIndex(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := idx.Watch(ctx)
	require.NoError(t, err)
	defer w.Close()

	reports := make(chan *types.Report, 4)
	w.OnIndex(func(r *types.Report, err error) {
		require.NoError(t, err)
		reports <- r
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "extra.rs"), []byte(
		"pub fn watched_fn() -> i32 { 9 }\n"), 0o644))

	select {
	case <-reports:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced reindex")
	}

	_, ok := idx.State.GetSymbol("crate::watched_fn")
	require.True(t, ok)
}

func TestWatcherSkipsCacheDirectory(t *testing.T) {
	root := writeProject(t)
	cfg := config.Default(root)
	idx := New(cfg)
	_, err := idx.FullIndex(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := idx.Watch(ctx)
	require.NoError(t, err)
	defer w.Close()

	require.True(t, w.excludedDir(".oci") || w.cacheDir == filepath.Join(root, ".oci"))
}
