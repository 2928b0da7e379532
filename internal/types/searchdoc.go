package types

// NumBM25Fields is the fixed width of every per-field vector in the BM25
// index: path, identifier, doc, string-literal, code (spec §3/§4.6).
const NumBM25Fields = 5

const (
	FieldPath = iota
	FieldIdentifier
	FieldDoc
	FieldStringLiteral
	FieldCode
)

// MaxIndexedTextChars bounds the indexed text stored per SearchDoc.
const MaxIndexedTextChars = 4000

// MaxPreviewChars bounds the single-line preview stored per SearchDoc.
const MaxPreviewChars = 240

// SearchDoc is one BM25 document, built from one extracted symbol.
type SearchDoc struct {
	ID          int
	Symbol      string // display string, e.g. "crate::m::F::g"
	FilePath    string // relative to project root
	StartByte   int
	EndByte     int
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	Preview     string
	IndexedText string
}
