package topology

import (
	"path"
	"sort"
	"strings"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

const (
	dampingFactor    = 0.85
	maxIterations    = 50
	convergenceDelta = 1e-6
)

const crateNodeID NodeID = "crate:root"

func moduleNodeID(dir string) NodeID { return NodeID("module:" + dir) }
func fileNodeID(relPath string) NodeID { return NodeID("file:" + relPath) }

// FileNodeID returns the node id Build assigns to relPath's File node, for
// callers (internal/contextbuild) that need to look up a file's relevance
// metrics without duplicating the node-id scheme.
func FileNodeID(relPath string) NodeID { return fileNodeID(relPath) }

// isModuleFile reports whether base names an explicit module-definition
// file for the directory it lives in: Rust's mod.rs, or the web-style
// index.ts/index.tsx convention — the latter is a supplement beyond the
// spec's single worked example, since the same "directory has an explicit
// entry point" idea applies to TypeScript packages.
func isModuleFile(base string) bool {
	switch base {
	case "mod.rs", "index.ts", "index.tsx":
		return true
	default:
		return false
	}
}

// Build resets g and rebuilds it from scratch: a Crate node for root, File
// nodes for every entry in relPaths (connected via Contains to the nearest
// ancestor directory that has an explicit module file, or to the crate
// directly), Imports edges resolved against st's recorded imports, and
// damped-iteration relevance scores (spec §4.5).
func Build(g *Graph, st *state.State, root string, relPaths []string) {
	g.Reset()

	crateName := path.Base(strings.TrimRight(root, "/"))
	if crateName == "" || crateName == "." {
		crateName = root
	}
	g.AddNode(crateNodeID, types.TopologyNode{Kind: types.NodeCrate, Name: crateName, Path: root})

	moduleDirs := moduleDirsOf(relPaths)
	sortedDirs := sortedByDepth(moduleDirs)
	for _, dir := range sortedDirs {
		ensureModuleNode(g, dir, moduleDirs)
	}

	for _, rel := range relPaths {
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		fileID, _ := st.LookupFileID(rel)
		g.AddNode(fileNodeID(rel), types.TopologyNode{Kind: types.NodeFile, Name: stem, Path: rel, FileID: fileID})

		parent := nearestModuleAncestor(dir, moduleDirs)
		g.AddEdge(parent, Edge{Kind: types.EdgeContains, To: fileNodeID(rel)})
	}

	resolveImports(g, st, relPaths)
	computeRelevance(g)
}

// moduleDirsOf returns the set of directories that contain an explicit
// module-definition file, keyed by forward-slash directory path ("" for
// the project root).
func moduleDirsOf(relPaths []string) map[string]bool {
	dirs := make(map[string]bool)
	for _, rel := range relPaths {
		if isModuleFile(path.Base(rel)) {
			dir := path.Dir(rel)
			if dir == "." {
				dir = ""
			}
			dirs[dir] = true
		}
	}
	return dirs
}

func sortedByDepth(dirs map[string]bool) []string {
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := strings.Count(out[i], "/"), strings.Count(out[j], "/")
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}

// nearestModuleAncestor walks from dir upward through its parent
// directories looking for one that is in moduleDirs, returning the crate
// node id if none qualifies.
func nearestModuleAncestor(dir string, moduleDirs map[string]bool) NodeID {
	for {
		if dir != "" && moduleDirs[dir] {
			return moduleNodeID(dir)
		}
		if dir == "" {
			return crateNodeID
		}
		parent := path.Dir(dir)
		if parent == "." {
			parent = ""
		}
		dir = parent
	}
}

func ensureModuleNode(g *Graph, dir string, moduleDirs map[string]bool) {
	id := moduleNodeID(dir)
	if g.HasNode(id) {
		return
	}
	parentDir := path.Dir(dir)
	if parentDir == "." {
		parentDir = ""
	}
	parent := nearestModuleAncestor(parentDir, moduleDirs)
	if !g.HasNode(id) {
		g.AddNode(id, types.TopologyNode{Kind: types.NodeModule, Name: path.Base(dir), Path: dir})
		g.AddEdge(parent, Edge{Kind: types.EdgeContains, To: id})
	}
}

// resolveImports adds an Imports edge from each importing file's node to
// the first topology node whose name matches a segment of the import
// path, preferring an exact crate-name match, then a module-name match,
// then a file-stem match (spec §4.5). Unresolved imports are dropped.
func resolveImports(g *Graph, st *state.State, relPaths []string) {
	crateNode, _ := g.Node(crateNodeID)

	var moduleIDs, fileIDs []NodeID
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		switch n.Kind {
		case types.NodeModule:
			moduleIDs = append(moduleIDs, id)
		case types.NodeFile:
			fileIDs = append(fileIDs, id)
		}
	}
	sort.Slice(moduleIDs, func(i, j int) bool { return moduleIDs[i] < moduleIDs[j] })
	sort.Slice(fileIDs, func(i, j int) bool { return fileIDs[i] < fileIDs[j] })

	for _, rel := range relPaths {
		fileID, ok := st.LookupFileID(rel)
		if !ok {
			continue
		}
		for _, imp := range st.Imports(fileID) {
			segments := importSegments(imp.Path)
			target, ok := resolveSegments(segments, crateNode.Name, g, moduleIDs, fileIDs)
			if !ok {
				continue
			}
			g.AddEdge(fileNodeID(rel), Edge{
				Kind:    types.EdgeImports,
				To:      target,
				UsePath: imp.Path,
				IsGlob:  imp.IsGlob,
			})
		}
	}
}

func resolveSegments(segments []string, crateName string, g *Graph, moduleIDs, fileIDs []NodeID) (NodeID, bool) {
	for _, seg := range segments {
		if seg == crateName {
			return crateNodeID, true
		}
	}
	for _, id := range moduleIDs {
		n, _ := g.Node(id)
		for _, seg := range segments {
			if n.Name == seg {
				return id, true
			}
		}
	}
	for _, id := range fileIDs {
		n, _ := g.Node(id)
		for _, seg := range segments {
			if n.Name == seg {
				return id, true
			}
		}
	}
	return "", false
}

// importSegments splits a Rust "::"-separated path or a web-style relative
// import source into its component segments, stripping "."/".." relative
// markers so "./widget" and "widget" resolve the same way.
func importSegments(importPath string) []string {
	var segments []string
	for _, part := range strings.Split(importPath, "::") {
		for _, piece := range strings.Split(part, "/") {
			if piece == "" || piece == "." || piece == ".." {
				continue
			}
			segments = append(segments, piece)
		}
	}
	return segments
}

// computeRelevance runs damped iterative scoring over every node in g,
// storing the result in each node's TopologyMetrics.RelevanceScore (spec
// §4.5). Existing churn/coverage metrics, if any, are preserved.
func computeRelevance(g *Graph) {
	ids := g.NodeIDs()
	n := float64(len(ids))
	if n == 0 {
		return
	}

	scores := make(map[NodeID]float64, len(ids))
	for _, id := range ids {
		scores[id] = 1 / n
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[NodeID]float64, len(ids))
		totalDelta := 0.0
		for _, id := range ids {
			sum := 0.0
			for _, src := range g.Incoming(id) {
				outdeg := g.OutDegree(src)
				if outdeg == 0 {
					continue
				}
				sum += scores[src] / float64(outdeg)
			}
			val := (1-dampingFactor)/n + dampingFactor*sum
			next[id] = val
			delta := val - scores[id]
			if delta < 0 {
				delta = -delta
			}
			totalDelta += delta
		}
		scores = next
		if totalDelta < convergenceDelta {
			break
		}
	}

	for _, id := range ids {
		m, _ := g.Metrics(id)
		m.RelevanceScore = scores[id]
		g.SetMetrics(id, m)
	}
}

// RemoveFile removes rel's File node (and any Module/Crate nodes left with
// no children are NOT pruned — only the file itself, per spec §4.5) and
// its metrics.
func RemoveFile(g *Graph, rel string) {
	g.RemoveNode(fileNodeID(rel))
}
