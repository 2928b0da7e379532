// Package discovery walks a project root producing the candidate file list
// the indexer parses: it layers VCS-style ignore rules, default and
// user-supplied glob filters, and a max file size cap over a deterministic
// directory walk.
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/debug"
	ocierrors "github.com/codeindexer/oci/internal/errors"
)

// File is one discovered candidate: a regular file under the root that
// passed every ignore/glob/size filter.
type File struct {
	// Path is relative to the project root, forward-slash separated.
	Path    string
	AbsPath string
	Size    int64
	ModTime int64 // unix millis
}

// Walker discovers candidate files under a configured root.
type Walker struct {
	cfg     *config.Config
	ignores *ignoreLayers
}

// New builds a Walker for cfg. cfg.Discovery.RespectGitignore controls
// whether the VCS ignore layers are consulted at all.
func New(cfg *config.Config) *Walker {
	w := &Walker{cfg: cfg}
	if cfg.Discovery.RespectGitignore {
		w.ignores = newIgnoreLayers(cfg)
	}
	return w
}

// Walk returns every candidate file, sorted by relative path for a
// deterministic-per-walk order. I/O errors for individual entries are
// logged and skipped, never propagated; only a failure to read the root
// itself, or ctx's error once ctx is cancelled, is returned.
func (w *Walker) Walk(ctx context.Context) ([]File, error) {
	root := w.cfg.Project.Root

	if _, err := os.Stat(root); err != nil {
		return nil, ocierrors.NewIndexingError("discover", err)
	}

	var files []File
	visitedDirs := make(map[string]bool)

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			debug.Component("discovery", "skipping %s: %v", path, walkErr)
			return nil
		}

		if info.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visitedDirs[real] {
				return filepath.SkipDir
			}
			visitedDirs[real] = true

			if path == root {
				return nil
			}
			if w.excludeDir(path, info) {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.cfg.Discovery.FollowSymlinks && info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if w.ignores != nil && w.ignores.shouldIgnore(path, false) {
			return nil
		}
		if !w.matchesFilters(rel) {
			return nil
		}
		if info.Size() > w.cfg.Discovery.MaxFileSize {
			debug.Component("discovery", "skipping %s: %d bytes exceeds max_file_size", rel, info.Size())
			return nil
		}

		files = append(files, File{
			Path:    rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		return nil, ocierrors.NewIndexingError("discover", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) excludeDir(path string, info os.FileInfo) bool {
	root := w.cfg.Project.Root
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if w.ignores != nil && w.ignores.shouldIgnore(path, true) {
		return true
	}

	// Include globs can re-admit files under an excluded directory, so with
	// any include configured, directories are walked and their files are
	// filtered one by one in matchesFilters.
	if len(w.cfg.Include) > 0 {
		return false
	}

	for _, pattern := range w.cfg.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		// A "**/dir/**" pattern excludes the contents of dir but, written
		// literally, doesn't match dir itself; check the trimmed form too
		// so the directory is pruned instead of walked and filtered file
		// by file.
		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok {
			if matched, _ := doublestar.Match(trimmed, rel); matched {
				return true
			}
		}
	}
	return false
}

// matchesFilters applies include globs first — a match there always wins,
// overriding any exclude pattern (but the VCS-ignore layer was already
// checked by the caller and is never overridden) — then falls back to the
// exclude list.
func (w *Walker) matchesFilters(relPath string) bool {
	for _, pattern := range w.cfg.Include {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}

	for _, pattern := range w.cfg.Exclude {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return false
		}
	}

	return true
}
