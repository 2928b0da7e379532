// Package state holds the process-wide index: interned names, file ids,
// symbol definitions, the call-edge log, and imports. It is the one
// component every other layer (bm25, topology, query, deadcode,
// intervention, contextbuild) borrows a reference into rather than
// maintaining its own copy of the data (spec §3 "Ownership").
//
// Concurrency follows spec §5: each per-key hashmap (symbols, name-to-scoped,
// file-symbols, imports) is split into a fixed-size array of shards, each
// guarded by its own sync.RWMutex, so point reads and writes against
// unrelated keys never block each other. A single sync.RWMutex can't serve
// that requirement no matter how the code around it is written — a Go map
// isn't safe for concurrent access at all, even to different keys, so
// "striped locks" only works if every stripe also owns its own map. String
// keys (scoped_name, simple_name) pick a shard by xxhash; FileID keys pick
// one by FileID % numShards, same as the teacher's
// internal/core/symbol_location_index.go would if it sharded. The call-edge
// log keeps one sync.RWMutex (it's a single ordered slice, not a per-key
// map), matching spec §5's own scoping of the striping requirement to the
// hashmaps.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/codeindexer/oci/internal/types"
)

// numShards is the fixed stripe width for every per-key map below.
const numShards = 16

type symbolShard struct {
	mu      sync.RWMutex
	symbols map[string]types.SymbolDef
}

type nameShard struct {
	mu     sync.RWMutex
	byName map[string][]string
}

type fileShard struct {
	mu      sync.RWMutex
	byFile  map[types.FileID][]string
	imports map[types.FileID][]types.ImportInfo
}

func symbolShardIndex(scopedName string) int {
	return int(xxhash.Sum64String(scopedName) % numShards)
}

func nameShardIndex(simpleName string) int {
	return int(xxhash.Sum64String(simpleName) % numShards)
}

func fileShardIndex(id types.FileID) int {
	return int(uint64(id) % numShards)
}

// State is safe for concurrent use. The zero value is not usable;
// construct with New.
type State struct {
	interner *types.Interner
	files    *types.FileTable

	symbolShards [numShards]*symbolShard // scoped_name -> def
	nameShards   [numShards]*nameShard   // simple_name -> scoped_names, insertion order
	fileShards   [numShards]*fileShard   // FileID -> scoped_names / imports

	callMu    sync.RWMutex
	callEdges []types.CallEdge

	nextSymbolID atomic.Uint64 // monotonic; SymbolID 0 means "unassigned"

	metaMu            sync.RWMutex
	topologyNodeCount int
	hasTopology       bool
	hasBM25           bool
}

// New creates an empty State.
func New() *State {
	s := &State{
		interner: types.NewInterner(),
		files:    types.NewFileTable(),
	}
	for i := range s.symbolShards {
		s.symbolShards[i] = &symbolShard{symbols: make(map[string]types.SymbolDef)}
	}
	for i := range s.nameShards {
		s.nameShards[i] = &nameShard{byName: make(map[string][]string)}
	}
	for i := range s.fileShards {
		s.fileShards[i] = &fileShard{
			byFile:  make(map[types.FileID][]string),
			imports: make(map[types.FileID][]types.ImportInfo),
		}
	}
	return s
}

// Intern returns the stable handle for text, assigning one on first sight.
func (s *State) Intern(text string) types.Name {
	return s.interner.Intern(text)
}

// Resolve returns the original string for a handle.
func (s *State) Resolve(n types.Name) (string, bool) {
	return s.interner.Resolve(n)
}

// Interner returns the underlying interner, for callers (the parser
// package's extractors) that need to intern CallEdge.Caller handles
// directly rather than through State's own Intern wrapper.
func (s *State) Interner() *types.Interner {
	return s.interner
}

// GetOrCreateFileID assigns a stable id to path, the same id on every
// subsequent call for that path.
func (s *State) GetOrCreateFileID(path string) types.FileID {
	return s.files.GetOrCreate(path)
}

// FilePath resolves a FileID back to the path it was created from.
func (s *State) FilePath(id types.FileID) (string, bool) {
	return s.files.Path(id)
}

// LookupFileID returns the id already assigned to path, if any.
func (s *State) LookupFileID(path string) (types.FileID, bool) {
	return s.files.Lookup(path)
}

// AddSymbol inserts def under its scoped name, replacing any prior
// definition at that scoped name, and indexes it under its simple name and
// owning file for clear_file/find_by_name.
func (s *State) AddSymbol(def types.SymbolDef) {
	fileID := s.files.GetOrCreate(def.Location.Path)

	sh := s.symbolShards[symbolShardIndex(def.ScopedName)]
	sh.mu.Lock()
	// SymbolID is a storage handle only (idcodec base-63 encodes it for the
	// on-disk manifest's compact cross-references); reuse the existing
	// handle across a reparse of the same scoped name so it stays stable
	// for the lifetime of the process.
	if existing, ok := sh.symbols[def.ScopedName]; ok && existing.ID != 0 {
		def.ID = existing.ID
	} else {
		def.ID = types.SymbolID(s.nextSymbolID.Add(1))
	}
	sh.symbols[def.ScopedName] = def
	sh.mu.Unlock()

	nsh := s.nameShards[nameShardIndex(def.SimpleName)]
	nsh.mu.Lock()
	nsh.byName[def.SimpleName] = append(nsh.byName[def.SimpleName], def.ScopedName)
	nsh.mu.Unlock()

	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.Lock()
	fsh.byFile[fileID] = append(fsh.byFile[fileID], def.ScopedName)
	fsh.mu.Unlock()
}

// addSymbolWithID inserts def verbatim, preserving its ID field rather than
// assigning a fresh one, and advances nextSymbolID if needed. Used by
// Restore to reproduce a persisted Snapshot's symbol IDs exactly.
func (s *State) addSymbolWithID(def types.SymbolDef) {
	fileID := s.files.GetOrCreate(def.Location.Path)

	sh := s.symbolShards[symbolShardIndex(def.ScopedName)]
	sh.mu.Lock()
	sh.symbols[def.ScopedName] = def
	sh.mu.Unlock()

	nsh := s.nameShards[nameShardIndex(def.SimpleName)]
	nsh.mu.Lock()
	nsh.byName[def.SimpleName] = append(nsh.byName[def.SimpleName], def.ScopedName)
	nsh.mu.Unlock()

	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.Lock()
	fsh.byFile[fileID] = append(fsh.byFile[fileID], def.ScopedName)
	fsh.mu.Unlock()

	bumpTo(&s.nextSymbolID, uint64(def.ID))
}

// bumpTo advances counter to atLeast if it isn't already there.
func bumpTo(counter *atomic.Uint64, atLeast uint64) {
	for {
		cur := counter.Load()
		if atLeast <= cur {
			return
		}
		if counter.CompareAndSwap(cur, atLeast) {
			return
		}
	}
}

// AddCallEdge appends edge to the ordered call-edge log.
func (s *State) AddCallEdge(edge types.CallEdge) {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	s.callEdges = append(s.callEdges, edge)
}

// SetImports replaces the import list recorded for fileID. Callers pass the
// complete list extracted for one file; ClearFile drops it entirely.
func (s *State) SetImports(fileID types.FileID, imports []types.ImportInfo) {
	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.Lock()
	defer fsh.mu.Unlock()
	fsh.imports[fileID] = imports
}

// Imports returns the imports recorded for fileID.
func (s *State) Imports(fileID types.FileID) []types.ImportInfo {
	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.RLock()
	defer fsh.mu.RUnlock()
	return append([]types.ImportInfo(nil), fsh.imports[fileID]...)
}

// AllImports returns every recorded import across every file.
func (s *State) AllImports() []types.ImportInfo {
	var all []types.ImportInfo
	for _, fsh := range s.fileShards {
		fsh.mu.RLock()
		for _, imps := range fsh.imports {
			all = append(all, imps...)
		}
		fsh.mu.RUnlock()
	}
	return all
}

// ClearFile removes every symbol, import, and call edge bound to path: the
// invariant from spec §4.1 is that after this call returns, no query can
// observe anything keyed to path, however it got there. Each shard touched
// is locked and released independently rather than held for the whole
// operation, so a concurrent reader of an unrelated key is never blocked by
// this call — the tradeoff spec §5 asks for is per-key consistency, not a
// whole-snapshot atomic view across unrelated keys.
func (s *State) ClearFile(path string) {
	fileID, ok := s.files.Lookup(path)
	if !ok {
		return
	}

	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.Lock()
	scopedNames := fsh.byFile[fileID]
	delete(fsh.byFile, fileID)
	delete(fsh.imports, fileID)
	fsh.mu.Unlock()

	for _, scoped := range scopedNames {
		sh := s.symbolShards[symbolShardIndex(scoped)]
		sh.mu.Lock()
		def, found := sh.symbols[scoped]
		if found {
			delete(sh.symbols, scoped)
		}
		sh.mu.Unlock()
		if !found {
			continue
		}

		nsh := s.nameShards[nameShardIndex(def.SimpleName)]
		nsh.mu.Lock()
		nsh.byName[def.SimpleName] = removeString(nsh.byName[def.SimpleName], scoped)
		if len(nsh.byName[def.SimpleName]) == 0 {
			delete(nsh.byName, def.SimpleName)
		}
		nsh.mu.Unlock()
	}

	s.callMu.Lock()
	if len(s.callEdges) > 0 {
		kept := s.callEdges[:0]
		for _, e := range s.callEdges {
			if e.Location.Path != path {
				kept = append(kept, e)
			}
		}
		s.callEdges = kept
	}
	s.callMu.Unlock()
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// GetSymbol returns the symbol defined at scopedName, if any.
func (s *State) GetSymbol(scopedName string) (types.SymbolDef, bool) {
	sh := s.symbolShards[symbolShardIndex(scopedName)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	def, ok := sh.symbols[scopedName]
	return def, ok
}

// FindByName returns every symbol definition registered under simpleName.
func (s *State) FindByName(simpleName string) []types.SymbolDef {
	nsh := s.nameShards[nameShardIndex(simpleName)]
	nsh.mu.RLock()
	scopedNames := append([]string(nil), nsh.byName[simpleName]...)
	nsh.mu.RUnlock()

	defs := make([]types.SymbolDef, 0, len(scopedNames))
	for _, scoped := range scopedNames {
		if def, ok := s.GetSymbol(scoped); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// FindCallers returns every call edge whose callee matches simpleName.
func (s *State) FindCallers(simpleName string) []types.CallEdge {
	s.callMu.RLock()
	defer s.callMu.RUnlock()
	var out []types.CallEdge
	for _, e := range s.callEdges {
		if e.CalleeName == simpleName {
			out = append(out, e)
		}
	}
	return out
}

// FindCallees returns every call edge whose caller resolves to
// callerScoped. Interning is idempotent: if callerScoped was never
// interned by an AddCallEdge call, no edge can reference it and the
// lookup below simply finds nothing.
func (s *State) FindCallees(callerScoped string) []types.CallEdge {
	callerName := s.interner.Intern(callerScoped)

	s.callMu.RLock()
	defer s.callMu.RUnlock()
	var out []types.CallEdge
	for _, e := range s.callEdges {
		if e.Caller == callerName {
			out = append(out, e)
		}
	}
	return out
}

// FileSymbols returns every symbol currently defined in fileID.
func (s *State) FileSymbols(fileID types.FileID) []types.SymbolDef {
	fsh := s.fileShards[fileShardIndex(fileID)]
	fsh.mu.RLock()
	scopedNames := append([]string(nil), fsh.byFile[fileID]...)
	fsh.mu.RUnlock()

	defs := make([]types.SymbolDef, 0, len(scopedNames))
	for _, scoped := range scopedNames {
		if def, ok := s.GetSymbol(scoped); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// AllSymbols returns every symbol currently indexed, in unspecified order.
func (s *State) AllSymbols() []types.SymbolDef {
	var defs []types.SymbolDef
	for _, sh := range s.symbolShards {
		sh.mu.RLock()
		for _, def := range sh.symbols {
			defs = append(defs, def)
		}
		sh.mu.RUnlock()
	}
	return defs
}

// SetTopologyMeta records the node count and whether a topology has been
// built, surfaced through Stats. Owned by internal/topology, not computed
// here.
func (s *State) SetTopologyMeta(nodeCount int, has bool) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.topologyNodeCount = nodeCount
	s.hasTopology = has
}

// SetHasBM25 records whether a BM25 index has been finalized, surfaced
// through Stats.
func (s *State) SetHasBM25(has bool) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.hasBM25 = has
}

// Reset empties every index. The FileID counter resets to 0; interned
// names are never reclaimed (spec §3 "Ownership").
func (s *State) Reset() {
	s.files.Reset()

	for _, sh := range s.symbolShards {
		sh.mu.Lock()
		sh.symbols = make(map[string]types.SymbolDef)
		sh.mu.Unlock()
	}
	for _, nsh := range s.nameShards {
		nsh.mu.Lock()
		nsh.byName = make(map[string][]string)
		nsh.mu.Unlock()
	}
	for _, fsh := range s.fileShards {
		fsh.mu.Lock()
		fsh.byFile = make(map[types.FileID][]string)
		fsh.imports = make(map[types.FileID][]types.ImportInfo)
		fsh.mu.Unlock()
	}

	s.callMu.Lock()
	s.callEdges = nil
	s.callMu.Unlock()

	s.nextSymbolID.Store(0)

	s.metaMu.Lock()
	s.topologyNodeCount = 0
	s.hasTopology = false
	s.hasBM25 = false
	s.metaMu.Unlock()
}

// Stats summarizes the state for diagnostics and the incremental no-op
// test property (spec §8).
func (s *State) Stats() types.Stats {
	symbolCount := 0
	for _, sh := range s.symbolShards {
		sh.mu.RLock()
		symbolCount += len(sh.symbols)
		sh.mu.RUnlock()
	}

	s.callMu.RLock()
	callEdgeCount := len(s.callEdges)
	s.callMu.RUnlock()

	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return types.Stats{
		FileCount:         s.files.Count(),
		SymbolCount:       symbolCount,
		CallEdgeCount:     callEdgeCount,
		TopologyNodeCount: s.topologyNodeCount,
		HasTopology:       s.hasTopology,
		HasBM25:           s.hasBM25,
	}
}
