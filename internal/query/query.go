// Package query serves BM25 search requests against a persisted index: it
// parses the path:/-path:/ext:/-ext: filter grammar, runs scoring with a
// widened internal top-K so filters have something to narrow, then
// re-sorts and truncates to the caller's requested K (spec §4.7).
package query

import (
	"sort"
	"strings"

	"github.com/codeindexer/oci/internal/bm25"
	"github.com/codeindexer/oci/internal/config"
	ocierrors "github.com/codeindexer/oci/internal/errors"
)

// internalFanout is the multiplier spec §4.7 applies to the caller's K
// before filtering, so that excluding a handful of paths/extensions
// doesn't starve the final result set.
const internalFanout = 5

// maxInternalTopK caps the widened top-K regardless of fanout, bounding
// how much of the posting lists Score walks for one query.
const maxInternalTopK = 1000

// Result is one search hit with 1-based line/column positions, the
// convention callers (editors, terminals) expect rather than the 0-based
// positions tree-sitter and internal/types.Location use.
type Result struct {
	Symbol    string
	FilePath  string
	StartByte int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Preview   string
	Score     float64
}

// Searcher serves queries against one loaded BM25 index.
type Searcher struct {
	bm25 *bm25.Index
}

// Load reads the persisted BM25 blob for cfg.Project.Root. Returns a
// KindIndexMissing *errors.QueryError if no index has been built yet — the
// boundary layer may choose to auto-build once and retry (spec §7).
func Load(cfg *config.Config) (*Searcher, error) {
	idx, err := loadBM25(cfg)
	if err != nil {
		return nil, ocierrors.NewQueryError(ocierrors.KindIndexMissing, "no index found; run build first: "+err.Error())
	}
	return &Searcher{bm25: idx}, nil
}

// Search runs raw (query text plus optional filter tokens) against the
// loaded index and returns up to k results.
func (s *Searcher) Search(raw string, k int) ([]Result, error) {
	f, bmQuery := parseQuery(raw)
	bmQuery = strings.TrimSpace(bmQuery)
	if bmQuery == "" {
		return nil, ocierrors.NewQueryError(ocierrors.KindInvalidQuery, "empty query after filter stripping")
	}
	if k <= 0 {
		k = 10
	}

	topK := k * internalFanout
	if topK > maxInternalTopK {
		topK = maxInternalTopK
	}

	scored := s.bm25.Score(bmQuery, topK)

	results := make([]Result, 0, len(scored))
	for _, sd := range scored {
		if !f.matches(sd.Doc.FilePath) {
			continue
		}
		results = append(results, Result{
			Symbol:    sd.Doc.Symbol,
			FilePath:  sd.Doc.FilePath,
			StartByte: sd.Doc.StartByte,
			StartLine: sd.Doc.StartLine + 1,
			StartCol:  sd.Doc.StartCol + 1,
			EndLine:   sd.Doc.EndLine + 1,
			EndCol:    sd.Doc.EndCol + 1,
			Preview:   sd.Doc.Preview,
			Score:     sd.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].FilePath != results[j].FilePath {
			return results[i].FilePath < results[j].FilePath
		}
		return results[i].StartByte < results[j].StartByte
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
