// Package deadcode finds unreferenced symbols by breadth-first traversal of
// the call graph from a conservative entry-point set (spec §4.8).
package deadcode

import (
	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

// Report is the result of one analysis pass over a State.
type Report struct {
	// DeadSymbols are unreached symbols except Module/Field/Variant — those
	// three kinds are structural, not independently callable, so
	// "unreached" doesn't mean "dead" for them.
	DeadSymbols []types.SymbolDef

	// PotentiallyLive is the subset of unreached symbols that are
	// constants, statics, macros, or carry an attribute (derive, macro,
	// no_mangle, export_name, link_name, used) that could make them live
	// through a path the call graph doesn't model (codegen, FFI, linker
	// references).
	PotentiallyLive []types.SymbolDef
}

// Analyze walks every symbol in st and returns the dead/potentially-live
// classification.
func Analyze(st *state.State) Report {
	all := st.AllSymbols()

	byScoped := make(map[string]types.SymbolDef, len(all))
	for _, def := range all {
		byScoped[def.ScopedName] = def
	}

	reached := make(map[string]bool, len(all))
	var queue []string

	for _, def := range all {
		if isEntryPoint(def) && !reached[def.ScopedName] {
			reached[def.ScopedName] = true
			queue = append(queue, def.ScopedName)
		}
	}

	for len(queue) > 0 {
		scoped := queue[0]
		queue = queue[1:]

		markReachable(byScoped[scoped], reached, &queue)

		for _, edge := range st.FindCallees(scoped) {
			for _, callee := range st.FindByName(edge.CalleeName) {
				markReachable(callee, reached, &queue)
			}
		}
	}

	var report Report
	for _, def := range all {
		if reached[def.ScopedName] {
			continue
		}
		if def.Kind == types.KindModule || def.Kind == types.KindField || def.Kind == types.KindVariant {
			continue
		}
		if isPotentiallyLive(def) {
			report.PotentiallyLive = append(report.PotentiallyLive, def)
			continue
		}
		report.DeadSymbols = append(report.DeadSymbols, def)
	}
	return report
}

// markReachable marks def (and its parent, if any and not already reached)
// reachable, queuing both for traversal.
func markReachable(def types.SymbolDef, reached map[string]bool, queue *[]string) {
	if def.ScopedName == "" {
		return
	}
	if !reached[def.ScopedName] {
		reached[def.ScopedName] = true
		*queue = append(*queue, def.ScopedName)
	}
	if def.Parent != "" && !reached[def.Parent] {
		reached[def.Parent] = true
		*queue = append(*queue, def.Parent)
	}
}

// isEntryPoint applies the conservative entry-point rules from spec §4.8.
func isEntryPoint(def types.SymbolDef) bool {
	if def.SimpleName == "main" && (def.Kind == types.KindFunction || def.Kind == types.KindMethod) {
		return true
	}
	if (def.Kind == types.KindFunction || def.Kind == types.KindMethod) && def.IsTest() {
		return true
	}
	if def.Visibility == types.VisPublic || def.Visibility == types.VisCrate {
		return true
	}
	if def.Kind == types.KindImpl {
		return true
	}
	if def.Kind == types.KindMethod && def.Parent != "" {
		return true
	}
	return false
}

// isPotentiallyLive classifies an unreached symbol as conservatively kept
// rather than dead (spec §4.8).
func isPotentiallyLive(def types.SymbolDef) bool {
	switch def.Kind {
	case types.KindConst, types.KindStatic, types.KindMacro:
		return true
	}
	return def.HasPotentiallyLiveAttribute()
}
