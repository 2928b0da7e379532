// Package pathutil converts between the absolute paths the indexer stores
// internally and the project-relative paths shown at the query boundary.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to one relative to rootDir, falling
// back to the original path if conversion fails or the path lies outside
// rootDir.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.rs", "/home/user/project") → "src/main.rs"
//   - ToRelative("/other/location/file.ts", "/home/user/project") → "/other/location/file.ts" (outside root)
//   - ToRelative("src/main.rs", "/home/user/project") → "src/main.rs" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}
