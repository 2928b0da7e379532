package intervention

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

func TestCheckNamingConflictsExactNameBlocks(t *testing.T) {
	st := state.New()
	st.GetOrCreateFileID("src/lib.rs")
	st.AddSymbol(types.SymbolDef{
		SimpleName: "helper",
		ScopedName: "crate::helper",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "src/lib.rs"},
	})

	out := CheckNamingConflicts("helper", "src/lib.rs", st)
	require.NotEmpty(t, out)
	require.Equal(t, SeverityBlock, out[0].Severity)
}

func TestCheckNamingConflictsCaseOnlyDifferenceWarns(t *testing.T) {
	st := state.New()
	st.AddSymbol(types.SymbolDef{
		SimpleName: "Helper",
		ScopedName: "crate::Helper",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "src/lib.rs"},
	})

	out := CheckNamingConflicts("helper", "src/lib.rs", st)
	require.Len(t, out, 1)
	require.Equal(t, SeverityWarning, out[0].Severity)
}

func TestCheckNamingConflictsTypoDistanceWarns(t *testing.T) {
	st := state.New()
	st.AddSymbol(types.SymbolDef{
		SimpleName: "process_event",
		ScopedName: "crate::process_event",
		Kind:       types.KindFunction,
		Location:   types.Location{Path: "src/lib.rs"},
	})

	out := CheckNamingConflicts("proces_event", "src/lib.rs", st)
	require.NotEmpty(t, out)
	require.Equal(t, SeverityWarning, out[0].Severity)
}

func TestCheckNamingConflictsImportShadowWarns(t *testing.T) {
	st := state.New()
	fileID := st.GetOrCreateFileID("src/lib.rs")
	st.SetImports(fileID, []types.ImportInfo{{Path: "std::collections::HashMap", LocalName: "HashMap", FileID: fileID}})

	out := CheckNamingConflicts("HashMap", "src/lib.rs", st)
	require.Len(t, out, 1)
	require.Equal(t, SeverityWarning, out[0].Severity)
}

func TestCheckNamingConflictsUnknownFileReturnsEmpty(t *testing.T) {
	st := state.New()
	require.Empty(t, CheckNamingConflicts("anything", "src/nope.rs", st))
}
