// Package contextbuild assembles a token-budgeted slice of source around a
// (file, line) anchor for consumption by an LLM: the innermost enclosing
// symbol, its neighbors in the call graph and type signature, and a
// location window, ranked by a blend of structural relevance and topology
// score (spec §4.10).
package contextbuild

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ocierrors "github.com/codeindexer/oci/internal/errors"
	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/topology"
	"github.com/codeindexer/oci/internal/types"
)

const (
	baseScoreSelf    = 1.0
	baseScoreParent  = 0.7
	baseScoreCallee  = 0.8
	baseScoreCaller  = 0.6
	baseScoreType    = 0.5
	baseScoreImport  = 0.4
	locationBaseline = 1.0 // the anchor location chunk always ranks first

	maxCallers = 5
	maxImports = 5

	// primaryThreshold is the final-score cutoff separating primary from
	// related chunks (spec §4.10).
	primaryThreshold = 0.6

	// relevanceWeight/baseWeight combine a candidate's structural role
	// with how central its file is in the import graph.
	baseWeight      = 0.7
	relevanceWeight = 0.3

	charsPerToken = 4
)

// Chunk is one piece of assembled context.
type Chunk struct {
	Label     string // scoped symbol name, import path, or "<file>:<line range>"
	FilePath  string
	StartLine int
	EndLine   int
	Text      string
	Score     float64
	Tokens    int
	Primary   bool
}

// Result is the token-budgeted context for one (file, line) anchor.
type Result struct {
	Anchor types.SymbolDef // zero value if no enclosing symbol was found
	Chunks []Chunk
}

// candidate is a scored reference gathered from the call graph, the
// anchor's signature, its parent, or the file's imports, before it's
// turned into a Chunk.
type candidate struct {
	label     string
	filePath  string
	startByte int
	endByte   int
	startLine int
	endLine   int
	base      float64
}

// Build assembles context around line in file: the innermost symbol
// containing it, candidates scored per spec §4.10, and a leading location
// chunk spanning line±surrounding. root is the project root used to
// re-read source for chunk text. Chunks are returned in descending score
// order, truncated to fit maxTokens (chars/4 estimate).
func Build(root, file string, line, surrounding, maxTokens int, st *state.State, topo *topology.Graph) (*Result, error) {
	fileID, ok := st.LookupFileID(file)
	if !ok {
		return nil, ocierrors.NewQueryError(ocierrors.KindInvalidQuery, "file not indexed: "+file)
	}

	anchor, hasAnchor := innermostSymbol(st.FileSymbols(fileID), line)

	source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
	if err != nil {
		return nil, ocierrors.NewIndexingError("context_build", err).WithFile(fileID, file)
	}
	lines := splitLines(source)

	result := &Result{}
	if hasAnchor {
		result.Anchor = anchor
	}

	locChunk := locationChunk(file, line, surrounding, lines)
	chunks := []Chunk{locChunk}

	if hasAnchor {
		candidates := gatherCandidates(anchor, file, st)
		for _, c := range candidates {
			relevance := fileRelevance(topo, c.filePath)
			score := baseWeight*c.base + relevanceWeight*relevance
			text := sliceSource(root, c.filePath, c.startByte, c.endByte, source, file)
			chunks = append(chunks, Chunk{
				Label:     c.label,
				FilePath:  c.filePath,
				StartLine: c.startLine + 1,
				EndLine:   c.endLine + 1,
				Text:      text,
				Score:     score,
				Tokens:    estimateTokens(text),
				Primary:   score >= primaryThreshold,
			})
		}
	}

	sort.SliceStable(chunks[1:], func(i, j int) bool {
		return chunks[1:][i].Score > chunks[1:][j].Score
	})

	result.Chunks = budget(chunks, maxTokens)
	return result, nil
}

// innermostSymbol finds the symbol in candidates whose line range contains
// line and is narrowest — the most deeply nested definition, since tree
// structure in source maps to range containment.
func innermostSymbol(candidates []types.SymbolDef, line int) (types.SymbolDef, bool) {
	var best types.SymbolDef
	found := false
	bestSpan := -1
	for _, def := range candidates {
		if line < def.Location.StartLine || line > def.Location.EndLine {
			continue
		}
		span := def.Location.EndLine - def.Location.StartLine
		if !found || span < bestSpan {
			best = def
			bestSpan = span
			found = true
		}
	}
	return best, found
}

func gatherCandidates(anchor types.SymbolDef, file string, st *state.State) []candidate {
	var out []candidate
	seen := map[string]bool{anchor.ScopedName: true}

	add := func(def types.SymbolDef, base float64) {
		if seen[def.ScopedName] {
			return
		}
		seen[def.ScopedName] = true
		out = append(out, candidate{
			label:     def.ScopedName,
			filePath:  def.Location.Path,
			startByte: def.Location.StartByte,
			endByte:   def.Location.EndByte,
			startLine: def.Location.StartLine,
			endLine:   def.Location.EndLine,
			base:      base,
		})
	}

	out = append(out, candidate{
		label:     anchor.ScopedName,
		filePath:  anchor.Location.Path,
		startByte: anchor.Location.StartByte,
		endByte:   anchor.Location.EndByte,
		startLine: anchor.Location.StartLine,
		endLine:   anchor.Location.EndLine,
		base:      baseScoreSelf,
	})

	if anchor.Parent != "" {
		if parent, ok := st.GetSymbol(anchor.Parent); ok {
			add(parent, baseScoreParent)
		}
	}

	for _, edge := range st.FindCallees(anchor.ScopedName) {
		for _, callee := range st.FindByName(edge.CalleeName) {
			add(callee, baseScoreCallee)
		}
	}

	callers := st.FindCallers(anchor.SimpleName)
	sort.Slice(callers, func(i, j int) bool { return callers[i].Location.Path < callers[j].Location.Path })
	for i, edge := range callers {
		if i >= maxCallers {
			break
		}
		callerName, ok := st.Resolve(edge.Caller)
		if !ok {
			continue
		}
		if def, ok := st.GetSymbol(callerName); ok {
			add(def, baseScoreCaller)
		}
	}

	if anchor.Signature != nil {
		for _, typeName := range referencedTypeNames(anchor.Signature) {
			for _, def := range st.FindByName(typeName) {
				add(def, baseScoreType)
			}
		}
	}

	if fileID, ok := st.LookupFileID(file); ok {
		imports := st.Imports(fileID)
		for i, imp := range imports {
			if i >= maxImports {
				break
			}
			out = append(out, candidate{
				label:    imp.Path,
				filePath: file,
				base:     baseScoreImport,
			})
		}
	}

	return out
}

// referencedTypeNames extracts a best-effort identifier from each
// parameter and the return type of sig: the trailing word after stripping
// reference/generic punctuation, which is enough to look up a matching
// struct/enum/trait definition by simple name.
func referencedTypeNames(sig *types.Signature) []string {
	var names []string
	for _, p := range sig.Params {
		if t := typeIdentifier(p); t != "" {
			names = append(names, t)
		}
	}
	if sig.HasReturn {
		if t := typeIdentifier(sig.ReturnType); t != "" {
			names = append(names, t)
		}
	}
	return names
}

func typeIdentifier(raw string) string {
	t := raw
	if colon := strings.IndexByte(t, ':'); colon >= 0 {
		t = t[colon+1:]
	}
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "&")
	t = strings.TrimPrefix(t, "mut ")
	t = strings.TrimSpace(t)
	if lt := strings.IndexByte(t, '<'); lt >= 0 {
		t = t[:lt]
	}
	t = strings.Trim(t, "[]")
	return t
}

func fileRelevance(topo *topology.Graph, filePath string) float64 {
	if topo == nil {
		return 0
	}
	metrics, ok := topo.Metrics(topology.FileNodeID(filePath))
	if !ok {
		return 0
	}
	return metrics.RelevanceScore
}

func splitLines(source []byte) []string {
	return strings.Split(string(source), "\n")
}

func locationChunk(file string, line, surrounding int, lines []string) Chunk {
	start := line - surrounding
	if start < 0 {
		start = 0
	}
	end := line + surrounding
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if end < start {
		end = start
	}
	text := strings.Join(lines[start:end+1], "\n")
	return Chunk{
		Label:     file,
		FilePath:  file,
		StartLine: start + 1,
		EndLine:   end + 1,
		Text:      text,
		Score:     locationBaseline,
		Tokens:    estimateTokens(text),
		Primary:   true,
	}
}

// sliceSource returns the candidate's byte span, reading from the
// already-loaded anchor source when the candidate lives in the same file,
// or re-reading its own file otherwise.
func sliceSource(root, candidatePath string, start, end int, anchorSource []byte, anchorPath string) string {
	if start == 0 && end == 0 {
		return ""
	}
	source := anchorSource
	if candidatePath != anchorPath {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(candidatePath)))
		if err != nil {
			return ""
		}
		source = data
	}
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start > end {
		return ""
	}
	return string(source[start:end])
}

func estimateTokens(text string) int {
	return len(text) / charsPerToken
}

// budget keeps chunks (already in descending-score order with the
// location chunk first) until adding one more would exceed maxTokens.
// maxTokens <= 0 means unbounded.
func budget(chunks []Chunk, maxTokens int) []Chunk {
	if maxTokens <= 0 {
		return chunks
	}
	var out []Chunk
	spent := 0
	for _, c := range chunks {
		if spent+c.Tokens > maxTokens && len(out) > 0 {
			break
		}
		out = append(out, c)
		spent += c.Tokens
	}
	return out
}
