package indexer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codeindexer/oci/internal/bm25"
	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/idcodec"
	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

const (
	manifestFileName = "manifest.json"
	docsFileName     = "docs.bin"
	bm25FileName     = "bm25.bin"
	stateFileName    = "state.bin"
)

// CacheDir returns the hidden cache directory for root under cfg's
// configured name (spec §6, default ".oci").
func CacheDir(cfg *config.Config, root string) string {
	name := cfg.Index.CacheDirName
	if name == "" {
		name = ".oci"
	}
	return filepath.Join(root, name)
}

// loadManifest reads manifest.json from dir. A missing file is not an
// error: it returns (nil, nil), the "no prior index" case step 1 of the
// incremental algorithm treats as a full rebuild.
func loadManifest(dir string) (*types.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func saveManifest(dir string, m *types.Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFileName), data, 0o644)
}

// loadDocs reads the persisted search-document list from dir via gob. A
// missing file returns (nil, nil).
func loadDocs(dir string) ([]PersistedDoc, error) {
	data, err := os.ReadFile(filepath.Join(dir, docsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var docs []PersistedDoc
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func saveDocs(dir string, docs []PersistedDoc) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(docs); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, docsFileName), buf.Bytes(), 0o644)
}

// loadBM25 reads the persisted BM25 index from dir via gob. A missing file
// returns (nil, nil). Index does not call it: it rebuilds BM25 from the
// document list on every run.
func loadBM25(dir string) (*bm25.Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, bm25FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var idx bm25.Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func saveBM25(dir string, idx *bm25.Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, bm25FileName), buf.Bytes(), 0o644)
}

// loadState reads the persisted State snapshot from dir via gob. A missing
// file returns (nil, nil): the caller falls back to whatever symbols the
// current parse pass produces, which is always correct for a fresh
// in-process Indexer but loses unchanged-file symbols across a process
// restart without this.
func loadState(dir string) (*state.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap state.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func saveState(dir string, snap state.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFileName), buf.Bytes(), 0o644)
}

// populateManifestSymbols stamps manifest.Symbols with every currently
// indexed scoped name's base-63 encoded SymbolID (spec §6).
func populateManifestSymbols(manifest *types.Manifest, st *state.State) {
	manifest.Symbols = make(map[string]string)
	for _, def := range st.AllSymbols() {
		manifest.Symbols[def.ScopedName] = idcodec.EncodeSymbolID(def.ID)
	}
}

// purgeCacheDir removes dir entirely, used when the manifest's tool
// version or canonical root doesn't match the current run (spec §4.4 step
// 1).
func purgeCacheDir(dir string) error {
	return os.RemoveAll(dir)
}
