package bm25

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/types"
)

// fieldVector is a length-5 per-field vector, ordered per
// types.Field{Path,Identifier,Doc,StringLiteral,Code}.
type fieldVector [types.NumBM25Fields]float64

// PostingEntry is one document's term frequency vector for one term.
// Exported for gob persistence (spec §6, bm25.bin).
type PostingEntry struct {
	DocID int
	TF    fieldVector
}

// Posting is the ordered, append-only entry list for one term. Per spec
// §4.6, appending a term already present for a doc-id increments that
// doc's last entry in place rather than adding a new one.
type Posting struct {
	Entries []PostingEntry
}

// docMeta is everything the scorer needs about one indexed document besides
// its postings.
type docMeta struct {
	Doc      types.SearchDoc
	FieldLen fieldVector
}

// DocInput is the raw material AddDocument needs to populate all five
// fields for one symbol. Doc.IndexedText/Preview are the already-truncated
// display strings (spec §4.4); DocComment and CodeText are the untruncated
// originals needed to split doc/string-literal/code tokens apart.
type DocInput struct {
	Doc        types.SearchDoc
	SimpleName string
	ScopedName string
	DocComment string
	CodeText   string
}

// Index is a field-weighted BM25 index. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	K1       float64
	B        float64
	Weights  fieldVector
	Stemming bool

	Docs     map[int]docMeta
	Postings map[string]*Posting

	AvgFieldLen fieldVector
	finalized   bool
}

// New creates an empty index configured from cfg. When cfg.EnableStemming
// is set, AddDocument additionally posts each field's tokens under their
// Porter2 stems (spec §4.6), grounded on the teacher's
// internal/semantic/stemmer.go.
func New(cfg config.BM25Config) *Index {
	return &Index{
		K1:       cfg.K1,
		B:        cfg.B,
		Weights:  cfg.FieldWeights(),
		Stemming: cfg.EnableStemming,
		Docs:     make(map[int]docMeta),
		Postings: make(map[string]*Posting),
	}
}

// Reset empties the index back to the state New produced, keeping K1/B/
// Weights.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Docs = make(map[int]docMeta)
	idx.Postings = make(map[string]*Posting)
	idx.AvgFieldLen = fieldVector{}
	idx.finalized = false
}

// AddDocument populates one document's five term-frequency fields and
// merges its postings in. Must be called before Finalize; AddDocument
// after Finalize invalidates the cached averages until Finalize runs again.
func (idx *Index) AddDocument(in DocInput) {
	pathTokens := Tokenize(pathWithoutExt(in.Doc.FilePath))
	identifierTokens := append(Tokenize(in.SimpleName), Tokenize(in.ScopedName)...)
	docTokens := Tokenize(in.DocComment)

	var stringTokens []string
	for _, lit := range ExtractStringLiterals(in.CodeText) {
		stringTokens = append(stringTokens, Tokenize(lit)...)
	}
	codeTokens := Tokenize(stripStringLiterals(in.CodeText))

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var lens fieldVector
	lens[types.FieldPath] = float64(len(pathTokens))
	lens[types.FieldIdentifier] = float64(len(identifierTokens))
	lens[types.FieldDoc] = float64(len(docTokens))
	lens[types.FieldStringLiteral] = float64(len(stringTokens))
	lens[types.FieldCode] = float64(len(codeTokens))

	idx.Docs[in.Doc.ID] = docMeta{Doc: in.Doc, FieldLen: lens}

	idx.addField(in.Doc.ID, types.FieldPath, pathTokens)
	idx.addField(in.Doc.ID, types.FieldIdentifier, identifierTokens)
	idx.addField(in.Doc.ID, types.FieldDoc, docTokens)
	idx.addField(in.Doc.ID, types.FieldStringLiteral, stringTokens)
	idx.addField(in.Doc.ID, types.FieldCode, codeTokens)

	if idx.Stemming {
		idx.addField(in.Doc.ID, types.FieldPath, stemmedExtras(pathTokens))
		idx.addField(in.Doc.ID, types.FieldIdentifier, stemmedExtras(identifierTokens))
		idx.addField(in.Doc.ID, types.FieldDoc, stemmedExtras(docTokens))
		idx.addField(in.Doc.ID, types.FieldStringLiteral, stemmedExtras(stringTokens))
		idx.addField(in.Doc.ID, types.FieldCode, stemmedExtras(codeTokens))
	}

	idx.finalized = false
}

// addField must be called with idx.mu held.
func (idx *Index) addField(docID, field int, tokens []string) {
	for _, tok := range tokens {
		p, ok := idx.Postings[tok]
		if !ok {
			p = &Posting{}
			idx.Postings[tok] = p
		}
		if n := len(p.Entries); n > 0 && p.Entries[n-1].DocID == docID {
			p.Entries[n-1].TF[field]++
			continue
		}
		entry := PostingEntry{DocID: docID}
		entry.TF[field]++
		p.Entries = append(p.Entries, entry)
	}
}

// Finalize computes per-field average document length and must be called
// once after every batch of AddDocument calls and before Score.
func (idx *Index) Finalize() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var sum fieldVector
	for _, d := range idx.Docs {
		for f := 0; f < types.NumBM25Fields; f++ {
			sum[f] += d.FieldLen[f]
		}
	}
	n := float64(len(idx.Docs))
	if n > 0 {
		for f := 0; f < types.NumBM25Fields; f++ {
			idx.AvgFieldLen[f] = sum[f] / n
		}
	}
	idx.finalized = true
}

// ScoredDoc is one query result.
type ScoredDoc struct {
	Doc   types.SearchDoc
	Score float64
}

// Score runs a tokenized query against the index and returns the topK
// highest-scoring documents, descending by score.
func (idx *Index) Score(query string, topK int) []ScoredDoc {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.finalized || len(idx.Docs) == 0 {
		return nil
	}

	terms := Tokenize(query)
	if idx.Stemming {
		terms = append(terms, stemmedExtras(terms)...)
	}
	n := float64(len(idx.Docs))
	scores := make(map[int]float64)

	for _, term := range terms {
		posting, ok := idx.Postings[term]
		if !ok {
			continue
		}
		df := float64(len(posting.Entries))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		for _, entry := range posting.Entries {
			doc, ok := idx.Docs[entry.DocID]
			if !ok {
				continue
			}
			var tfW, lenW, avgW float64
			for f := 0; f < types.NumBM25Fields; f++ {
				w := idx.Weights[f]
				tfW += w * entry.TF[f]
				lenW += w * doc.FieldLen[f]
				avgW += w * idx.AvgFieldLen[f]
			}
			norm := 1 - idx.B + idx.B*lenW/math.Max(avgW, 1e-6)
			scores[entry.DocID] += idf * tfW * (idx.K1 + 1) / math.Max(tfW+idx.K1*norm, 1e-6)
		}
	}

	results := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		results = append(results, ScoredDoc{Doc: idx.Docs[docID].Doc, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Doc.FilePath != results[j].Doc.FilePath {
			return results[i].Doc.FilePath < results[j].Doc.FilePath
		}
		return results[i].Doc.StartByte < results[j].Doc.StartByte
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// DocCount reports how many documents are indexed.
func (idx *Index) DocCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.Docs)
}

func pathWithoutExt(path string) string {
	if dot := strings.LastIndexByte(path, '.'); dot > strings.LastIndexByte(path, '/') {
		return path[:dot]
	}
	return path
}

// stripStringLiterals replaces the contents of '"'/'\'' delimited literals
// with spaces, so the code field doesn't double-count string contents
// already captured by the string-literal field (spec §4.6 "code tokens:
// the remaining indexed text").
func stripStringLiterals(code string) string {
	runes := []rune(code)
	out := make([]rune, len(runes))
	copy(out, runes)

	i := 0
	for i < len(runes) {
		q := runes[i]
		if q != '"' && q != '\'' {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != q {
			if runes[j] == '\\' && j+1 < len(runes) {
				out[j] = ' '
				j++
				out[j] = ' '
				j++
				continue
			}
			out[j] = ' '
			j++
		}
		i = j + 1
	}
	return string(out)
}
