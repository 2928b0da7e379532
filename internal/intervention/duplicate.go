package intervention

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

// duplicateThreshold is the minimum composite score a candidate must clear
// to be reported at all (spec §4.9).
const duplicateThreshold = 0.3

// Match is one existing symbol found to plausibly duplicate a proposed
// signature, with the composite score that ranked it.
type Match struct {
	Symbol types.SymbolDef
	Score  float64
}

// FindDuplicates scores every indexed function/method against proposedSig
// and returns the ones scoring above duplicateThreshold, sorted
// descending.
func FindDuplicates(proposedSig string, st *state.State) []Match {
	proposed := ParseSignature(proposedSig)

	var matches []Match
	for _, def := range st.AllSymbols() {
		if def.Kind != types.KindFunction && def.Kind != types.KindMethod {
			continue
		}
		score := similarityScore(proposed, def)
		if score > duplicateThreshold {
			matches = append(matches, Match{Symbol: def, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// similarityScore implements the weighted composite from spec §4.9: 40%
// name, 20% parameter count, 25% parameter types, 15% return type.
func similarityScore(proposed ParsedSignature, existing types.SymbolDef) float64 {
	existingParamTypes := existingParamTypes(existing)

	name := nameSimilarity(proposed.Name, existing.SimpleName)
	count := paramCountSimilarity(len(proposed.ParamTypes), len(existingParamTypes))
	paramTypes := paramTypeSimilarity(proposed.ParamTypes, existingParamTypes)
	ret := returnTypeSimilarity(proposed, existing)

	return 0.40*name + 0.20*count + 0.25*paramTypes + 0.15*ret
}

// nameSimilarity is 1 minus the Levenshtein edit distance normalized by
// the longer name's length (spec §4.9).
func nameSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := edlib.LevenshteinDistance(a, b)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

func paramCountSimilarity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.3 / float64(diff)
	}
}

func paramTypeSimilarity(a, b []string) float64 {
	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	if total == 0 {
		return 1.0
	}
	matches := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(total)
}

func returnTypeSimilarity(proposed ParsedSignature, existing types.SymbolDef) float64 {
	existingHasReturn := existing.Signature != nil && existing.Signature.HasReturn
	var existingReturn string
	if existingHasReturn {
		existingReturn = normalizeType(existing.Signature.ReturnType)
	}

	switch {
	case !proposed.HasReturn && !existingHasReturn:
		return 1.0
	case proposed.HasReturn != existingHasReturn:
		return 0.5
	case proposed.ReturnType == existingReturn:
		return 1.0
	default:
		return 0.3
	}
}

func existingParamTypes(def types.SymbolDef) []string {
	if def.Signature == nil {
		return nil
	}
	var out []string
	for _, p := range def.Signature.Params {
		p = strings.TrimSpace(p)
		if p == "" || p == "self" || p == "&self" || p == "&mut self" {
			continue
		}
		out = append(out, normalizeType(paramType(p)))
	}
	return out
}
