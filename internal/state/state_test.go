package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/types"
)

func sampleSymbol(path, scoped, simple string) types.SymbolDef {
	return types.SymbolDef{
		SimpleName: simple,
		ScopedName: scoped,
		Kind:       types.KindFunction,
		Location:   types.Location{Path: path, StartByte: 0, EndByte: 10},
	}
}

func TestAddSymbolIndexesByScopedAndSimpleName(t *testing.T) {
	s := New()
	s.AddSymbol(sampleSymbol("src/lib.rs", "crate::helper", "helper"))

	def, ok := s.GetSymbol("crate::helper")
	require.True(t, ok)
	require.Equal(t, "helper", def.SimpleName)

	byName := s.FindByName("helper")
	require.Len(t, byName, 1)
}

func TestClearFileRemovesSymbolsEdgesAndImports(t *testing.T) {
	s := New()
	s.AddSymbol(sampleSymbol("src/lib.rs", "crate::helper", "helper"))
	s.AddSymbol(sampleSymbol("src/other.rs", "crate::unrelated", "unrelated"))

	callerName := s.Intern("crate::helper")
	s.AddCallEdge(types.CallEdge{
		Caller:     callerName,
		CalleeName: "unrelated",
		Location:   types.Location{Path: "src/lib.rs", StartByte: 20, EndByte: 30},
	})

	fileID := s.GetOrCreateFileID("src/lib.rs")
	s.SetImports(fileID, []types.ImportInfo{{Path: "std::io", FileID: fileID}})

	s.ClearFile("src/lib.rs")

	_, ok := s.GetSymbol("crate::helper")
	require.False(t, ok)
	require.Empty(t, s.FindByName("helper"))
	require.Empty(t, s.Imports(fileID))
	require.Empty(t, s.FindCallers("unrelated"))

	// The unrelated file's symbol must survive.
	_, ok = s.GetSymbol("crate::unrelated")
	require.True(t, ok)
}

func TestFindCallersAndCallees(t *testing.T) {
	s := New()
	caller := s.Intern("crate::main")
	s.AddCallEdge(types.CallEdge{Caller: caller, CalleeName: "helper", Location: types.Location{Path: "src/lib.rs"}})
	s.AddCallEdge(types.CallEdge{Caller: caller, CalleeName: "other", Location: types.Location{Path: "src/lib.rs"}})

	callers := s.FindCallers("helper")
	require.Len(t, callers, 1)

	callees := s.FindCallees("crate::main")
	require.Len(t, callees, 2)
}

func TestFindCalleesUnknownScopedNameReturnsEmpty(t *testing.T) {
	s := New()
	require.Empty(t, s.FindCallees("crate::never_seen"))
}

func TestResetEmptiesEverythingButKeepsInternedNames(t *testing.T) {
	s := New()
	handle := s.Intern("crate::helper")
	s.AddSymbol(sampleSymbol("src/lib.rs", "crate::helper", "helper"))
	s.AddCallEdge(types.CallEdge{Caller: handle, CalleeName: "x", Location: types.Location{Path: "src/lib.rs"}})

	s.Reset()

	stats := s.Stats()
	require.Zero(t, stats.FileCount)
	require.Zero(t, stats.SymbolCount)
	require.Zero(t, stats.CallEdgeCount)

	text, ok := s.Resolve(handle)
	require.True(t, ok)
	require.Equal(t, "crate::helper", text)

	// FileID counter must restart from 0.
	newID := s.GetOrCreateFileID("src/fresh.rs")
	require.Equal(t, types.FileID(0), newID)
}

func TestStatsReflectsCurrentCounts(t *testing.T) {
	s := New()
	s.AddSymbol(sampleSymbol("src/a.rs", "crate::a", "a"))
	s.AddSymbol(sampleSymbol("src/b.rs", "crate::b", "b"))
	s.AddCallEdge(types.CallEdge{Caller: s.Intern("crate::a"), CalleeName: "b", Location: types.Location{Path: "src/a.rs"}})
	s.SetTopologyMeta(3, true)
	s.SetHasBM25(true)

	stats := s.Stats()
	require.Equal(t, 2, stats.FileCount)
	require.Equal(t, 2, stats.SymbolCount)
	require.Equal(t, 1, stats.CallEdgeCount)
	require.Equal(t, 3, stats.TopologyNodeCount)
	require.True(t, stats.HasTopology)
	require.True(t, stats.HasBM25)
}

// TestConcurrentWritesToUnrelatedFilesDontCorruptState exercises spec §5's
// "point reads and writes are non-blocking against unrelated keys" claim
// directly: many goroutines each own a distinct file/scoped-name and hammer
// AddSymbol/AddCallEdge/SetImports/ClearFile concurrently. Run with -race,
// this would catch a shared map touched outside its shard's lock; it also
// checks every symbol a goroutine didn't clear is still exactly where it
// left it.
func TestConcurrentWritesToUnrelatedFilesDontCorruptState(t *testing.T) {
	s := New()
	const workers = 32

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("src/file_%d.rs", i)
			scoped := fmt.Sprintf("crate::sym_%d", i)
			simple := fmt.Sprintf("sym_%d", i)

			s.AddSymbol(sampleSymbol(path, scoped, simple))
			fileID := s.GetOrCreateFileID(path)
			s.SetImports(fileID, []types.ImportInfo{{Path: "std::io", FileID: fileID}})
			s.AddCallEdge(types.CallEdge{
				Caller:     s.Intern(scoped),
				CalleeName: simple,
				Location:   types.Location{Path: path},
			})

			if i%2 == 0 {
				s.ClearFile(path)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		scoped := fmt.Sprintf("crate::sym_%d", i)
		_, ok := s.GetSymbol(scoped)
		if i%2 == 0 {
			require.False(t, ok, "cleared symbol %s must be gone", scoped)
		} else {
			require.True(t, ok, "surviving symbol %s must still be indexed", scoped)
		}
	}
}
