package pathutil

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToRelative(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path assertions assume POSIX separators")
	}

	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{"simple relative path", "/home/user/project/src/main.rs", "/home/user/project", "src/main.rs"},
		{"nested relative path", "/home/user/project/internal/query/query.go", "/home/user/project", "internal/query/query.go"},
		{"root level file", "/home/user/project/README.md", "/home/user/project", "README.md"},
		{"same directory", "/home/user/project", "/home/user/project", "."},
		{"already relative path", "src/main.rs", "/home/user/project", "src/main.rs"},
		{"path outside root falls back to absolute", "/other/location/file.ts", "/home/user/project", "/other/location/file.ts"},
		{"empty root directory falls back to absolute", "/home/user/project/file.rs", "", "/home/user/project/file.rs"},
		{"empty absolute path stays empty", "", "/home/user/project", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ToRelative(tt.absPath, tt.rootDir))
		})
	}
}
