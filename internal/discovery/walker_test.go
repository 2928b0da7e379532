package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkHonorsGitignoreAndDefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.rs"), "fn main() {}")
	writeFile(t, filepath.Join(root, "target", "debug", "out.rs"), "generated")
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored.rs\n")
	writeFile(t, filepath.Join(root, "src", "ignored.rs"), "should not appear")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.ts"), "skip")

	cfg := config.Default(root)
	w := New(cfg)

	files, err := w.Walk(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	require.Contains(t, paths, "src/main.rs")
	require.NotContains(t, paths, "target/debug/out.rs")
	require.NotContains(t, paths, "src/ignored.rs")
	require.NotContains(t, paths, "node_modules/pkg/index.ts")
}

func TestWalkSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 128)
	writeFile(t, filepath.Join(root, "big.ts"), string(big))

	cfg := config.Default(root)
	cfg.Discovery.MaxFileSize = 16

	files, err := New(cfg).Walk(context.Background())
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestWalkIncludeOverridesExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "target", "keep.rs"), "fn keep() {}")

	cfg := config.Default(root)
	cfg.Include = []string{"**/keep.rs"}

	files, err := New(cfg).Walk(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Contains(t, paths, "target/keep.rs")
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.rs"), "")
	writeFile(t, filepath.Join(root, "a.rs"), "")
	writeFile(t, filepath.Join(root, "c.rs"), "")

	cfg := config.Default(root)
	w := New(cfg)

	first, err := w.Walk(context.Background())
	require.NoError(t, err)
	second, err := w.Walk(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, []string{"a.rs", "b.rs", "c.rs"}, []string{first[0].Path, first[1].Path, first[2].Path})
}
