package intervention

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

func TestFindDuplicatesRanksExactSignatureMatchHighest(t *testing.T) {
	st := state.New()
	st.AddSymbol(types.SymbolDef{
		SimpleName: "authenticate_user",
		ScopedName: "crate::auth::authenticate_user",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "src/auth.rs"},
		Signature: &types.Signature{
			Params:     []string{"token: &str", "retries: i32"},
			ReturnType: "bool",
			HasReturn:  true,
		},
	})
	st.AddSymbol(types.SymbolDef{
		SimpleName: "add",
		ScopedName: "crate::math::add",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "src/math.rs"},
		Signature: &types.Signature{
			Params:     []string{"a: i32", "b: i32"},
			ReturnType: "i32",
			HasReturn:  true,
		},
	})

	matches := FindDuplicates("fn authenticate_user(token: &str, retries: i32) -> bool", st)
	require.NotEmpty(t, matches)
	require.Equal(t, "crate::auth::authenticate_user", matches[0].Symbol.ScopedName)
	require.Greater(t, matches[0].Score, 0.9)
}

func TestFindDuplicatesExcludesNonFunctionKinds(t *testing.T) {
	st := state.New()
	st.AddSymbol(types.SymbolDef{
		SimpleName: "widget",
		ScopedName: "crate::widget",
		Kind:       types.KindStruct,
		Location:   types.Location{Path: "src/lib.rs"},
	})

	matches := FindDuplicates("fn widget() -> bool", st)
	require.Empty(t, matches)
}

func TestParamCountSimilarityMatchesSpecTable(t *testing.T) {
	require.Equal(t, 1.0, paramCountSimilarity(2, 2))
	require.Equal(t, 0.7, paramCountSimilarity(2, 3))
	require.InDelta(t, 0.15, paramCountSimilarity(2, 4), 1e-9)
}

func TestReturnTypeSimilarityHandlesAbsentAndMismatch(t *testing.T) {
	bothAbsent := returnTypeSimilarity(ParsedSignature{}, types.SymbolDef{})
	require.Equal(t, 1.0, bothAbsent)

	onlyOne := returnTypeSimilarity(ParsedSignature{HasReturn: true, ReturnType: "bool"}, types.SymbolDef{})
	require.Equal(t, 0.5, onlyOne)

	mismatch := returnTypeSimilarity(
		ParsedSignature{HasReturn: true, ReturnType: "bool"},
		types.SymbolDef{Signature: &types.Signature{HasReturn: true, ReturnType: "i32"}},
	)
	require.Equal(t, 0.3, mismatch)
}
