// Package config loads and merges the indexer's configuration: discovery
// rules (include/exclude globs, size limits, gitignore layering), the
// watcher/worker knobs, and the BM25 field weights, from a `.oci.kdl` file
// plus built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/codeindexer/oci/internal/types"
)

// Config is the fully-resolved configuration for one indexed project.
type Config struct {
	Version   int
	Project   Project
	Discovery Discovery
	Index     IndexConfig
	BM25      BM25Config
	Include   []string
	Exclude   []string
}

// Project identifies the root being indexed.
type Project struct {
	Root string
	Name string
}

// Discovery controls the filesystem walk in internal/discovery.
type Discovery struct {
	MaxFileSize      int64
	FollowSymlinks   bool
	RespectGitignore bool
	// GlobalIgnoreFile overrides the discovered core.excludesFile-style
	// global gitignore path; empty means auto-detect.
	GlobalIgnoreFile string
}

// IndexConfig controls the incremental indexer and its optional watcher.
type IndexConfig struct {
	WatchMode       bool
	WatchDebounceMs int
	ParallelWorkers int // 0 = auto-detect (runtime.NumCPU)
	CacheDirName    string
}

// BM25Config holds the field weights and scoring parameters from spec §4.6.
type BM25Config struct {
	K1 float64
	B  float64

	WeightPath           float64
	WeightIdentifier     float64
	WeightDoc            float64
	WeightStringLiteral  float64
	WeightCode           float64

	// EnableStemming turns on the additive Porter2 posting list alongside
	// the raw-token postings; it never changes the raw scoring formula.
	EnableStemming bool
}

// FieldWeights returns the BM25 field weights ordered to match
// types.FieldPath..types.FieldCode.
func (b BM25Config) FieldWeights() [types.NumBM25Fields]float64 {
	return [types.NumBM25Fields]float64{
		types.FieldPath:          b.WeightPath,
		types.FieldIdentifier:    b.WeightIdentifier,
		types.FieldDoc:           b.WeightDoc,
		types.FieldStringLiteral: b.WeightStringLiteral,
		types.FieldCode:          b.WeightCode,
	}
}

// Default returns the built-in configuration, rooted at root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Discovery: Discovery{
			MaxFileSize:      types.DefaultMaxFileSize,
			FollowSymlinks:   false,
			RespectGitignore: true,
		},
		Index: IndexConfig{
			WatchMode:       false,
			WatchDebounceMs: 300,
			ParallelWorkers: 0,
			CacheDirName:    ".oci",
		},
		BM25: BM25Config{
			K1:                  1.2,
			B:                   0.75,
			WeightPath:          2.0,
			WeightIdentifier:    1.8,
			WeightDoc:           1.4,
			WeightStringLiteral: 1.1,
			WeightCode:          1.0,
			EnableStemming:      true,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// Load resolves the configuration for root: it reads root/.oci.kdl if
// present, merging its values over Default(root); then enriches the
// exclusion list with any detected build-output directories.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	cfg, err := LoadKDL(absRoot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default(absRoot)
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// EnrichExclusionsWithBuildArtifacts detects per-language build output
// directories (e.g. a Cargo target dir named in Cargo.toml) and folds them
// into the exclusion list, deduplicated.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detected := detector.DetectOutputDirectories()
	if len(detected) == 0 {
		return
	}

	c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.oci/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/target/**",
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/bin/**",
		"**/obj/**",

		"Cargo.lock",
		"package-lock.json",
		"pnpm-lock.yaml",
		"yarn.lock",
		"go.sum",

		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.wasm",
		"**/*.woff",
		"**/*.woff2",
		"**/*.ttf",

		"**/*.png",
		"**/*.jpg",
		"**/*.jpeg",
		"**/*.gif",
		"**/*.ico",
		"**/*.pdf",
		"**/*.zip",
		"**/*.tar.gz",

		"**/*.swp",
		"**/*.swo",
		"**/*~",

		"**/__pycache__/**",
		"**/*.pyc",

		"**/Thumbs.db",
		"**/.DS_Store",
	}
}

// defaultHomeConfigPath returns ~/.oci.kdl, the process-global base config
// merged under the project config (project settings win, base exclusions
// are additive).
func defaultHomeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".oci.kdl")
}
