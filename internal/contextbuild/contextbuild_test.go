package contextbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/topology"
	"github.com/codeindexer/oci/internal/types"
)

func writeSourceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
}

func TestBuildFindsInnermostSymbolAndLeadsWithLocationChunk(t *testing.T) {
	root := t.TempDir()
	source := "fn helper() -> i32 {\n    1\n}\n\nfn outer() -> i32 {\n    helper()\n}\n"
	writeSourceFile(t, root, "lib.rs", source)

	st := state.New()
	fileID := st.GetOrCreateFileID("lib.rs")
	_ = fileID

	helperDef := types.SymbolDef{
		SimpleName: "helper",
		ScopedName: "crate::helper",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "lib.rs", StartByte: 0, EndByte: 20, StartLine: 0, EndLine: 2},
	}
	outerDef := types.SymbolDef{
		SimpleName: "outer",
		ScopedName: "crate::outer",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "lib.rs", StartByte: 22, EndByte: 60, StartLine: 4, EndLine: 6},
	}
	st.AddSymbol(helperDef)
	st.AddSymbol(outerDef)
	st.AddCallEdge(types.CallEdge{
		Caller:     st.Intern("crate::outer"),
		CalleeName: "helper",
		Location:   types.Location{Path: "lib.rs"},
	})

	topo := topology.NewGraph()
	topology.Build(topo, st, root, []string{"lib.rs"})

	result, err := Build(root, "lib.rs", 5, 1, 1000, st, topo)
	require.NoError(t, err)
	require.Equal(t, "crate::outer", result.Anchor.ScopedName)
	require.NotEmpty(t, result.Chunks)
	require.Equal(t, "lib.rs", result.Chunks[0].Label)
	require.True(t, result.Chunks[0].Primary)

	var sawHelper bool
	for _, c := range result.Chunks {
		if c.Label == "crate::helper" {
			sawHelper = true
		}
	}
	require.True(t, sawHelper)
}

func TestBuildReturnsOnlyLocationChunkWhenNoSymbolEnclosesLine(t *testing.T) {
	root := t.TempDir()
	writeSourceFile(t, root, "lib.rs", "// just a comment\n")

	st := state.New()
	st.GetOrCreateFileID("lib.rs")
	topo := topology.NewGraph()
	topology.Build(topo, st, root, []string{"lib.rs"})

	result, err := Build(root, "lib.rs", 0, 0, 1000, st, topo)
	require.NoError(t, err)
	require.Equal(t, "", result.Anchor.ScopedName)
	require.Len(t, result.Chunks, 1)
}

func TestBuildRespectsTokenBudget(t *testing.T) {
	root := t.TempDir()
	source := "fn a() {}\nfn b() {}\n"
	writeSourceFile(t, root, "lib.rs", source)

	st := state.New()
	st.GetOrCreateFileID("lib.rs")
	a := types.SymbolDef{SimpleName: "a", ScopedName: "crate::a", Kind: types.KindFunction,
		Location: types.Location{Path: "lib.rs", StartByte: 0, EndByte: 9, StartLine: 0, EndLine: 0}}
	st.AddSymbol(a)

	topo := topology.NewGraph()
	topology.Build(topo, st, root, []string{"lib.rs"})

	result, err := Build(root, "lib.rs", 0, 0, 1, st, topo)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
}

func TestBuildErrorsOnUnindexedFile(t *testing.T) {
	root := t.TempDir()
	st := state.New()
	topo := topology.NewGraph()

	_, err := Build(root, "missing.rs", 0, 0, 1000, st, topo)
	require.Error(t, err)
}
