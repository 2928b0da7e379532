// Package parser turns a parsed concrete syntax tree into the three flat
// records the rest of the pipeline indexes: symbol definitions, call edges,
// and imports. Each supported language implements extract_symbols,
// extract_calls and extract_imports as pure functions over a tree-sitter
// tree, grounded on the tagged queries of the teacher's
// internal/parser/parser_language_setup.go but walking the tree directly
// instead of running queries, behind a small Language interface instead of
// one heavyweight unified extractor.
package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codeindexer/oci/internal/types"
)

// FileContext carries the per-file identity a language implementation needs
// to place extracted records: the file's interned id, its project-relative
// path (forward-slash separated), and the root scope its symbols nest
// under ("crate" for native-style languages, "file:<relPath>" for
// web-style ones, per spec §4.3).
type FileContext struct {
	FileID    types.FileID
	RelPath   string
	RootScope string
}

// Language is one tree-sitter-backed extractor. Implementations must
// tolerate parse failures by returning empty slices rather than erroring;
// a syntax error in the source does not abort a run (spec §4.3).
type Language interface {
	// Parse builds a tree-sitter tree for source. A non-nil error here means
	// the grammar could not be loaded at all (a programming/build error,
	// not a source-file problem) — ordinary syntax errors still produce a
	// tree with ERROR nodes that Parse returns successfully.
	Parse(source []byte) (*tree_sitter.Tree, error)

	ExtractSymbols(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.SymbolDef
	ExtractCalls(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.CallEdge
	ExtractImports(tree *tree_sitter.Tree, source []byte, file FileContext) []types.ImportInfo
}

// Dispatch returns the Language registered for a file extension (including
// the leading dot, lowercase), or nil if the extension isn't supported.
func Dispatch(ext string) Language {
	switch strings.ToLower(ext) {
	case ".rs":
		return rustLanguage{}
	case ".ts", ".mts", ".cts":
		return typescriptLanguage{tsx: false}
	case ".tsx":
		return typescriptLanguage{tsx: true}
	default:
		return nil
	}
}

// RootScopeFor returns the root scope a file's symbols nest under: "crate"
// for Rust, "file:<relPath>" for the web-style languages.
func RootScopeFor(ext, relPath string) string {
	switch strings.ToLower(ext) {
	case ".rs":
		return "crate"
	default:
		return "file:" + relPath
	}
}

// nodeText slices source by a node's byte range.
func nodeText(source []byte, node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) {
		end = uint(len(source))
	}
	if start > end {
		return ""
	}
	return string(source[start:end])
}

// childOfKind reports whether node has a direct child of the given kind,
// returning it if found. Used for modifier tokens (async/unsafe/const,
// pub/private/protected) that tree-sitter grammars expose as anonymous or
// unnamed children rather than named fields.
func childOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

func hasChildOfKind(node *tree_sitter.Node, kind string) bool {
	return childOfKind(node, kind) != nil
}

// walk calls visit for node and every descendant, depth-first.
func walk(node *tree_sitter.Node, visit func(*tree_sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		walk(node.Child(i), visit)
	}
}

func location(relPath string, node *tree_sitter.Node) types.Location {
	start := node.StartPosition()
	end := node.EndPosition()
	return types.Location{
		Path:      relPath,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		StartLine: int(start.Row),
		StartCol:  int(start.Column),
		EndLine:   int(end.Row),
		EndCol:    int(end.Column),
	}
}
