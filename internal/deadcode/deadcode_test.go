package deadcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

func def(scoped, simple string, kind types.SymbolKind, vis types.Visibility) types.SymbolDef {
	return types.SymbolDef{
		SimpleName: simple,
		ScopedName: scoped,
		Kind:       kind,
		Visibility: vis,
		Location:   types.Location{Path: "src/lib.rs"},
	}
}

func TestAnalyzeReachesTransitiveCalleesFromMain(t *testing.T) {
	st := state.New()
	st.AddSymbol(def("crate::main", "main", types.KindFunction, types.VisPrivate))
	st.AddSymbol(def("crate::helper", "helper", types.KindFunction, types.VisPrivate))
	st.AddSymbol(def("crate::unused", "unused", types.KindFunction, types.VisPrivate))

	st.AddCallEdge(types.CallEdge{
		Caller:     st.Intern("crate::main"),
		CalleeName: "helper",
		Location:   types.Location{Path: "src/lib.rs"},
	})

	report := Analyze(st)

	var deadNames []string
	for _, d := range report.DeadSymbols {
		deadNames = append(deadNames, d.ScopedName)
	}
	require.Contains(t, deadNames, "crate::unused")
	require.NotContains(t, deadNames, "crate::helper")
	require.NotContains(t, deadNames, "crate::main")
}

func TestAnalyzePublicSymbolsAreEntryPoints(t *testing.T) {
	st := state.New()
	st.AddSymbol(def("crate::public_api", "public_api", types.KindFunction, types.VisPublic))

	report := Analyze(st)
	require.Empty(t, report.DeadSymbols)
}

func TestAnalyzeModuleFieldVariantNeverReportedDead(t *testing.T) {
	st := state.New()
	st.AddSymbol(def("crate::m", "m", types.KindModule, types.VisPrivate))
	st.AddSymbol(def("crate::S::f", "f", types.KindField, types.VisPrivate))
	st.AddSymbol(def("crate::E::V", "V", types.KindVariant, types.VisPrivate))

	report := Analyze(st)
	require.Empty(t, report.DeadSymbols)
	require.Empty(t, report.PotentiallyLive)
}

func TestAnalyzeUnreachedConstIsPotentiallyLiveNotDead(t *testing.T) {
	st := state.New()
	st.AddSymbol(def("crate::MAGIC", "MAGIC", types.KindConst, types.VisPrivate))

	report := Analyze(st)
	require.Empty(t, report.DeadSymbols)
	require.Len(t, report.PotentiallyLive, 1)
	require.Equal(t, "crate::MAGIC", report.PotentiallyLive[0].ScopedName)
}

func TestAnalyzeUnreachedFunctionWithDeriveAttributeIsPotentiallyLive(t *testing.T) {
	st := state.New()
	d := def("crate::Thing::fmt", "fmt", types.KindMethod, types.VisPrivate)
	d.Attributes = []string{"derive(Debug)"}
	st.AddSymbol(d)

	report := Analyze(st)
	require.Empty(t, report.DeadSymbols)
	require.Len(t, report.PotentiallyLive, 1)
}

func TestAnalyzeMethodReachableThroughParentImpl(t *testing.T) {
	st := state.New()
	impl := def("crate::Widget", "Widget", types.KindImpl, types.VisPrivate)
	st.AddSymbol(impl)
	method := def("crate::Widget::render", "render", types.KindMethod, types.VisPrivate)
	method.Parent = "crate::Widget"
	st.AddSymbol(method)

	report := Analyze(st)
	require.Empty(t, report.DeadSymbols)
}
