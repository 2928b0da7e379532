package topology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

func TestBuildConnectsFilesUnderSynthesizedModuleNodes(t *testing.T) {
	st := state.New()
	relPaths := []string{"src/lib.rs", "src/auth/mod.rs", "src/auth/login.rs"}
	for _, p := range relPaths {
		st.GetOrCreateFileID(p)
	}

	g := NewGraph()
	Build(g, st, "myproj", relPaths)

	require.True(t, g.HasNode(moduleNodeID("src/auth")))
	require.True(t, g.HasNode(fileNodeID("src/auth/login.rs")))

	edges := g.Outgoing(moduleNodeID("src/auth"))
	var sawLogin bool
	for _, e := range edges {
		if e.Kind == types.EdgeContains && e.To == fileNodeID("src/auth/login.rs") {
			sawLogin = true
		}
	}
	require.True(t, sawLogin)

	// src/lib.rs has no module ancestor, so it attaches straight to the crate.
	rootEdges := g.Outgoing(crateNodeID)
	var sawLib bool
	for _, e := range rootEdges {
		if e.To == fileNodeID("src/lib.rs") {
			sawLib = true
		}
	}
	require.True(t, sawLib)
}

func TestBuildResolvesImportsByModuleNameSegment(t *testing.T) {
	st := state.New()
	relPaths := []string{"src/lib.rs", "src/auth/mod.rs", "src/auth/login.rs"}
	for _, p := range relPaths {
		st.GetOrCreateFileID(p)
	}
	fileID, _ := st.LookupFileID("src/lib.rs")
	st.SetImports(fileID, []types.ImportInfo{{Path: "crate::auth::login", FileID: fileID}})

	g := NewGraph()
	Build(g, st, "myproj", relPaths)

	edges := g.Outgoing(fileNodeID("src/lib.rs"))
	var sawImport bool
	for _, e := range edges {
		if e.Kind == types.EdgeImports && e.To == moduleNodeID("src/auth") {
			sawImport = true
		}
	}
	require.True(t, sawImport)
}

func TestComputeRelevanceAssignsHigherScoreToMoreReferencedNode(t *testing.T) {
	st := state.New()
	relPaths := []string{"src/a.rs", "src/b.rs", "src/c.rs"}
	for _, p := range relPaths {
		st.GetOrCreateFileID(p)
	}
	aID, _ := st.LookupFileID("src/a.rs")
	bID, _ := st.LookupFileID("src/b.rs")
	st.SetImports(aID, []types.ImportInfo{{Path: "c", FileID: aID}})
	st.SetImports(bID, []types.ImportInfo{{Path: "c", FileID: bID}})

	g := NewGraph()
	Build(g, st, "myproj", relPaths)

	cMetrics, ok := g.Metrics(fileNodeID("src/c.rs"))
	require.True(t, ok)
	aMetrics, ok := g.Metrics(fileNodeID("src/a.rs"))
	require.True(t, ok)
	require.Greater(t, cMetrics.RelevanceScore, aMetrics.RelevanceScore)
}

func TestRemoveFileDropsNodeAndMetrics(t *testing.T) {
	st := state.New()
	relPaths := []string{"src/a.rs"}
	st.GetOrCreateFileID("src/a.rs")

	g := NewGraph()
	Build(g, st, "myproj", relPaths)
	require.True(t, g.HasNode(fileNodeID("src/a.rs")))

	RemoveFile(g, "src/a.rs")
	require.False(t, g.HasNode(fileNodeID("src/a.rs")))
	_, ok := g.Metrics(fileNodeID("src/a.rs"))
	require.False(t, ok)
}
