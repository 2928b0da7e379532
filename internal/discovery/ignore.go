package discovery

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/codeindexer/oci/internal/config"
)

// ignoreLayers resolves whether a path is ignored by walking the gitignore
// chain nearest-directory-first, falling back to $GIT_DIR/info/exclude and
// the process-global ignore file when no directory-level .gitignore
// decides the path one way or the other.
type ignoreLayers struct {
	root   string
	global *config.GitignoreParser

	mu      sync.Mutex
	perDir  map[string]*config.GitignoreParser // absolute dir -> its own .gitignore, nil if none
}

func newIgnoreLayers(cfg *config.Config) *ignoreLayers {
	il := &ignoreLayers{
		root:   cfg.Project.Root,
		perDir: make(map[string]*config.GitignoreParser),
	}

	global := config.NewGitignoreParser()
	_ = global.LoadInfoExclude(cfg.Project.Root)
	_ = global.LoadGlobalIgnore(cfg.Discovery.GlobalIgnoreFile)
	il.global = global

	return il
}

// dirParser returns the cached parser for dir's own .gitignore, loading it
// on first request. Returns nil if dir has no .gitignore.
func (il *ignoreLayers) dirParser(dir string) *config.GitignoreParser {
	il.mu.Lock()
	defer il.mu.Unlock()

	if p, ok := il.perDir[dir]; ok {
		return p
	}

	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); err != nil {
		il.perDir[dir] = nil
		return nil
	}

	p := config.NewGitignoreParser()
	if err := p.LoadGitignore(dir); err != nil {
		il.perDir[dir] = nil
		return nil
	}
	il.perDir[dir] = p
	return p
}

// shouldIgnore reports whether absPath is ignored, checking the directory
// chain from absPath's parent up to root, nearest first.
func (il *ignoreLayers) shouldIgnore(absPath string, isDir bool) bool {
	for dir := filepath.Dir(absPath); ; {
		if p := il.dirParser(dir); p != nil {
			rel, err := filepath.Rel(dir, absPath)
			if err == nil {
				if ignored, decided := p.Decide(rel, isDir); decided {
					return ignored
				}
			}
		}

		if dir == il.root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	rel, err := filepath.Rel(il.root, absPath)
	if err != nil {
		return false
	}
	return il.global.ShouldIgnore(rel, isDir)
}
