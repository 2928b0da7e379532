package bm25

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/types"
)

func testConfig() config.BM25Config {
	return config.BM25Config{
		K1:                  1.2,
		B:                   0.75,
		WeightPath:          2.0,
		WeightIdentifier:    1.8,
		WeightDoc:           1.4,
		WeightStringLiteral: 1.1,
		WeightCode:          1.0,
	}
}

func TestScoreRanksExactIdentifierMatchHighest(t *testing.T) {
	idx := New(testConfig())

	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 1, FilePath: "src/auth.rs", StartByte: 0, EndByte: 50},
		SimpleName: "authenticate_user",
		ScopedName: "crate::auth::authenticate_user",
		DocComment: "Checks the given credentials.",
		CodeText:   `fn authenticate_user(token: &str) -> bool { token == "valid" }`,
	})
	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 2, FilePath: "src/math.rs", StartByte: 0, EndByte: 30},
		SimpleName: "add",
		ScopedName: "crate::math::add",
		DocComment: "Adds two numbers.",
		CodeText:   `fn add(a: i32, b: i32) -> i32 { a + b }`,
	})
	idx.Finalize()

	results := idx.Score("authenticate", 10)
	require.NotEmpty(t, results)
	require.Equal(t, 1, results[0].Doc.ID)
}

func TestScoreReturnsEmptyForUnknownTerm(t *testing.T) {
	idx := New(testConfig())
	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 1, FilePath: "src/a.rs"},
		SimpleName: "foo",
		ScopedName: "crate::foo",
		CodeText:   "fn foo() {}",
	})
	idx.Finalize()

	require.Empty(t, idx.Score("zzzznotpresent", 10))
}

func TestScoreRespectsTopKAndOrdering(t *testing.T) {
	idx := New(testConfig())
	for i := 1; i <= 5; i++ {
		idx.AddDocument(DocInput{
			Doc:        types.SearchDoc{ID: i, FilePath: "src/search.rs", StartByte: i * 10},
			SimpleName: "search",
			ScopedName: "crate::search",
			CodeText:   "fn search() { search(); search(); }",
		})
	}
	idx.Finalize()

	results := idx.Score("search", 3)
	require.Len(t, results, 3)
}

func TestScoreWithStemmingMatchesRelatedWordForm(t *testing.T) {
	cfg := testConfig()
	cfg.EnableStemming = true
	idx := New(cfg)

	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 1, FilePath: "src/auth.rs"},
		SimpleName: "authentication",
		ScopedName: "crate::auth::authentication",
		DocComment: "Represents a completed authentication.",
		CodeText:   "struct authentication { token: String }",
	})
	idx.Finalize()

	results := idx.Score("authenticating", 10)
	require.NotEmpty(t, results)
	require.Equal(t, 1, results[0].Doc.ID)
}

func TestScoreWithoutStemmingMissesRelatedWordForm(t *testing.T) {
	idx := New(testConfig())

	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 1, FilePath: "src/auth.rs"},
		SimpleName: "authentication",
		ScopedName: "crate::auth::authentication",
		DocComment: "Represents a completed authentication.",
		CodeText:   "struct authentication { token: String }",
	})
	idx.Finalize()

	require.Empty(t, idx.Score("authenticating", 10))
}

func TestResetClearsDocsAndPostings(t *testing.T) {
	idx := New(testConfig())
	idx.AddDocument(DocInput{
		Doc:        types.SearchDoc{ID: 1, FilePath: "src/a.rs"},
		SimpleName: "foo",
		ScopedName: "crate::foo",
		CodeText:   "fn foo() {}",
	})
	idx.Finalize()
	require.Equal(t, 1, idx.DocCount())

	idx.Reset()
	require.Equal(t, 0, idx.DocCount())
	require.Empty(t, idx.Score("foo", 10))
}
