package intervention

import (
	"fmt"

	"github.com/hbollon/go-edlib"

	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/types"
)

// fuzzyNameThreshold is the Jaro-Winkler similarity above which an
// unrelated-looking name still earns an Info suggestion (spec §4.9).
const fuzzyNameThreshold = 0.7

// maxAlternatives caps how many suggestions SuggestAlternatives returns.
const maxAlternatives = 10

// SuggestAlternatives looks for symbols a caller proposing name might want
// to reuse instead of creating a new one: an exact simple-name match is a
// Warning ("this already exists"), a fuzzy Jaro-Winkler match above
// fuzzyNameThreshold is an Info ("did you mean").
func SuggestAlternatives(name string, st *state.State) []Intervention {
	var out []Intervention

	exact := st.FindByName(name)
	for _, def := range exact {
		out = append(out, Intervention{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%q already exists at %s; consider reusing it", name, def.ScopedName),
			Symbol:   def.ScopedName,
			Score:    1.0,
		})
	}

	exactScoped := make(map[string]bool, len(exact))
	for _, def := range exact {
		exactScoped[def.ScopedName] = true
	}

	for _, def := range st.AllSymbols() {
		if def.Kind != types.KindFunction && def.Kind != types.KindMethod {
			continue
		}
		if exactScoped[def.ScopedName] || def.SimpleName == name {
			continue
		}
		score, err := edlib.StringsSimilarity(name, def.SimpleName, edlib.JaroWinkler)
		if err != nil || float64(score) <= fuzzyNameThreshold {
			continue
		}
		out = append(out, Intervention{
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%q is similar to existing %s", name, def.ScopedName),
			Symbol:   def.ScopedName,
			Score:    float64(score),
		})
	}

	sortInterventions(out)
	if len(out) > maxAlternatives {
		out = out[:maxAlternatives]
	}
	return out
}
