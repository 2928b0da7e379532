package query

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/codeindexer/oci/internal/bm25"
	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/indexer"
)

const bm25FileName = "bm25.bin"

// loadBM25 reads the persisted BM25 index from the project's cache
// directory, without touching the manifest or document list: a query-only
// boundary has no reason to run discovery or parsing (spec §4.7 "Persists
// and loads the search state and BM25 blobs").
func loadBM25(cfg *config.Config) (*bm25.Index, error) {
	abs, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		abs = cfg.Project.Root
	}
	dir := indexer.CacheDir(cfg, abs)
	data, err := os.ReadFile(filepath.Join(dir, bm25FileName))
	if err != nil {
		return nil, err
	}
	var idx bm25.Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&idx); err != nil {
		return nil, err
	}
	// The finalized flag is not persisted; Score returns nothing until
	// Finalize has run on the decoded index.
	idx.Finalize()
	return &idx, nil
}
