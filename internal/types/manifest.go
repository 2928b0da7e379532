package types

// FileFingerprint stands in for file-content equivalence during incremental
// indexing (spec §3, §4.4). MtimeMS/Size are the cheap first-pass check
// that needs no file read; ContentHash is an xxhash of the file's bytes,
// filled in only when mtime moved but size didn't, letting the indexer
// recognize a touched-but-unmodified file without reparsing it (a checkout
// or rebuild can rewrite identical content with a fresh mtime).
type FileFingerprint struct {
	MtimeMS     int64  `json:"mtime_ms"`
	Size        int64  `json:"size_bytes"`
	ContentHash uint64 `json:"content_hash,omitempty"`
}

// Manifest is the on-disk record of what was last indexed, keyed by path
// relative to Root.
type Manifest struct {
	ToolVersion string                     `json:"tool_version"`
	Root        string                     `json:"root"`
	Files       map[string]FileFingerprint `json:"files"`

	// Symbols maps each indexed scoped name to its SymbolID, base-63
	// encoded via internal/idcodec, for external readers of manifest.json
	// that want a compact cross-reference instead of the full state.bin.
	Symbols map[string]string `json:"symbols"`
}

// NewManifest creates an empty manifest stamped with the given version and
// canonical root.
func NewManifest(version, root string) *Manifest {
	return &Manifest{
		ToolVersion: version,
		Root:        root,
		Files:       make(map[string]FileFingerprint),
		Symbols:     make(map[string]string),
	}
}

// Stats summarizes the contents of a State for diagnostics and the
// incremental no-op test property (spec §8).
type Stats struct {
	FileCount         int
	SymbolCount       int
	CallEdgeCount     int
	TopologyNodeCount int
	HasTopology       bool
	HasBM25           bool
}

// Report is returned by Indexer.Index, summarizing one incremental run.
type Report struct {
	TotalFiles   int
	ParsedFiles  int
	SkippedFiles int
	RemovedFiles int
	DocsIndexed  int
}
