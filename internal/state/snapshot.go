package state

import "github.com/codeindexer/oci/internal/types"

// edgeSnapshot is the serializable form of a CallEdge: the interned Caller
// handle is only meaningful against the interner that issued it, so it's
// stored resolved to its string and re-interned on Restore.
type edgeSnapshot struct {
	CallerScoped string
	CalleeName   string
	Location     types.Location
}

// Snapshot is the serializable form of a State, persisted as the indexer's
// state.bin (spec §6) so an incremental run after a process restart doesn't
// lose symbols, call edges, and imports for files that didn't change.
type Snapshot struct {
	Files             []string // FileID order: index i was assigned FileID(i)
	Symbols           []types.SymbolDef
	Edges             []edgeSnapshot
	Imports           map[types.FileID][]types.ImportInfo
	TopologyNodeCount int
	HasTopology       bool
	HasBM25           bool
}

// Snapshot captures s's full contents for persistence. The result shares no
// mutable state with s. Each shard is locked and copied independently
// rather than under one global lock, consistent with how every other
// State method touches shards (see state.go's package doc).
func (s *State) Snapshot() Snapshot {
	files := make([]string, s.files.Count())
	for i := range files {
		files[i], _ = s.files.Path(types.FileID(i))
	}

	var symbols []types.SymbolDef
	for _, sh := range s.symbolShards {
		sh.mu.RLock()
		for _, def := range sh.symbols {
			symbols = append(symbols, def)
		}
		sh.mu.RUnlock()
	}

	s.callMu.RLock()
	edges := make([]edgeSnapshot, 0, len(s.callEdges))
	for _, e := range s.callEdges {
		caller, _ := s.interner.Resolve(e.Caller)
		edges = append(edges, edgeSnapshot{CallerScoped: caller, CalleeName: e.CalleeName, Location: e.Location})
	}
	s.callMu.RUnlock()

	imports := make(map[types.FileID][]types.ImportInfo)
	for _, fsh := range s.fileShards {
		fsh.mu.RLock()
		for fileID, imps := range fsh.imports {
			imports[fileID] = append([]types.ImportInfo(nil), imps...)
		}
		fsh.mu.RUnlock()
	}

	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return Snapshot{
		Files:             files,
		Symbols:           symbols,
		Edges:             edges,
		Imports:           imports,
		TopologyNodeCount: s.topologyNodeCount,
		HasTopology:       s.hasTopology,
		HasBM25:           s.hasBM25,
	}
}

// Restore rebuilds a State from a Snapshot. File IDs are reproduced exactly
// by re-assigning them in the same order they were first seen, which is how
// FileTable.GetOrCreate allocates them in the first place.
func Restore(snap Snapshot) *State {
	st := New()
	for _, path := range snap.Files {
		st.files.GetOrCreate(path)
	}
	for _, def := range snap.Symbols {
		st.addSymbolWithID(def)
	}
	for _, e := range snap.Edges {
		st.AddCallEdge(types.CallEdge{
			Caller:     st.Intern(e.CallerScoped),
			CalleeName: e.CalleeName,
			Location:   e.Location,
		})
	}
	for fileID, imps := range snap.Imports {
		st.SetImports(fileID, imps)
	}
	st.SetTopologyMeta(snap.TopologyNodeCount, snap.HasTopology)
	st.SetHasBM25(snap.HasBM25)
	return st
}
