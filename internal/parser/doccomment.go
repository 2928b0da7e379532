package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// docCommentCollector walks backward over a node's preceding siblings,
// gathering the contiguous run of doc-prefixed comments immediately before
// it — skipping over attribute/decorator nodes in between, per spec §4.3 —
// and the raw text of those attribute nodes, in source order.
type docCommentCollector struct {
	source      []byte
	isComment   func(kind string) bool
	isAttribute func(kind string) bool
	isDoc       func(commentText string) bool
}

// collect returns (docComment, attributes) for node: the doc comment is the
// matched comments joined with newlines in source order; attributes is the
// raw text of every attribute node found, in source order.
func (d *docCommentCollector) collect(node *tree_sitter.Node) (string, []string) {
	var docLines []string
	var attrs []string

	cur := node.PrevSibling()
	// Doc comments must sit immediately before the item, only attributes may
	// come between; stop at the first sibling that is neither.
	for cur != nil {
		kind := cur.Kind()
		switch {
		case d.isAttribute(kind):
			attrs = append(attrs, nodeText(d.source, cur))
			cur = cur.PrevSibling()
		case d.isComment(kind):
			text := nodeText(d.source, cur)
			if !d.isDoc(text) {
				cur = nil
				continue
			}
			docLines = append(docLines, text)
			cur = cur.PrevSibling()
		default:
			cur = nil
		}
	}

	// Both were collected walking backward; restore source order.
	reverse(docLines)
	reverse(attrs)
	return strings.Join(docLines, "\n"), attrs
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// hasTestMarker reports whether any attribute's text contains "test"
// (case-insensitive), the extraction-time test-detection rule (spec §4.3).
func hasTestMarker(attrs []string) bool {
	for _, a := range attrs {
		if strings.Contains(strings.ToLower(a), "test") {
			return true
		}
	}
	return false
}

// withSyntheticTestAttribute normalizes an already-matched test attribute to
// the canonical "#[test]" spelling (spec §4.3: "an attribute whose text
// contains the substring `test` promotes the enclosing function. If no such
// attribute is present, an explicit `#[test]` attribute is synthesized so
// downstream consumers observe it uniformly" — read as: the substring match
// decides promotion, and synthesis only normalizes spelling, never
// decides it on its own). A function with no test-like attribute at all is
// returned unchanged; calling this unconditionally on every function is
// safe for exactly that reason.
func withSyntheticTestAttribute(attrs []string) []string {
	if !hasTestMarker(attrs) {
		return attrs
	}
	for _, a := range attrs {
		if strings.TrimSpace(a) == "#[test]" {
			return attrs
		}
	}
	return append(attrs, "#[test]")
}
