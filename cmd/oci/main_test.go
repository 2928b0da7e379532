package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := "pub fn fetch_widget(id: u32) -> String {\n    id.to_string()\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte(src), 0o644))
	return root
}

func TestBuildThenQueryCommandsRoundTrip(t *testing.T) {
	root := writeProject(t)

	app := newApp()
	require.NoError(t, app.Run([]string{"oci", "--root", root, "build"}))

	app = newApp()
	require.NoError(t, app.Run([]string{"oci", "--root", root, "query", "fetch widget"}))
}

func TestDeadcodeCommandRunsAfterBuild(t *testing.T) {
	root := writeProject(t)

	app := newApp()
	require.NoError(t, app.Run([]string{"oci", "--root", root, "deadcode"}))
}

func TestContextCommandRequiresIndexedFile(t *testing.T) {
	root := writeProject(t)

	app := newApp()
	err := app.Run([]string{"oci", "--root", root, "context", "missing.rs", "0"})
	require.Error(t, err)
}

func TestInterveneAlternativesCommandRuns(t *testing.T) {
	root := writeProject(t)

	app := newApp()
	require.NoError(t, app.Run([]string{"oci", "--root", root, "intervene", "alternatives", "fetch_widgets"}))
}

func TestWatchCommandRequiresWatchModeEnabled(t *testing.T) {
	root := writeProject(t)

	app := newApp()
	err := app.Run([]string{"oci", "--root", root, "watch"})
	require.Error(t, err)
}

func TestWatchCommandRunsUntilContextCancelled(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".oci.kdl"), []byte(
		"index {\n  watch_mode #true\n  watch_debounce_ms 20\n}\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	app := newApp()
	require.NoError(t, app.RunContext(ctx, []string{"oci", "--root", root, "watch"}))
}
