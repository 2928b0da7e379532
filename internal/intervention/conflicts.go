package intervention

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/codeindexer/oci/internal/state"
)

// typoEditDistance is the maximum edit distance that flags two names in
// the same file as a likely typo of each other (spec §4.9).
const typoEditDistance = 2

// typoMinLength is the shortest name typo-checking applies to: below this,
// an edit-distance-2 match is nearly every short name against every other.
const typoMinLength = 3

// CheckNamingConflicts flags concerns about adding a symbol named name to
// filePath: an exact collision blocks, a near-miss (typo, case-only
// difference, or a shadowing import) warns.
func CheckNamingConflicts(name, filePath string, st *state.State) []Intervention {
	fileID, ok := st.LookupFileID(filePath)
	if !ok {
		return nil
	}

	var out []Intervention
	for _, def := range st.FileSymbols(fileID) {
		switch {
		case def.SimpleName == name:
			out = append(out, Intervention{
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("%q already defined in this file as %s", name, def.ScopedName),
				Symbol:   def.ScopedName,
				Score:    1.0,
			})
		case strings.EqualFold(def.SimpleName, name):
			out = append(out, Intervention{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%q differs from existing %s only by case", name, def.ScopedName),
				Symbol:   def.ScopedName,
				Score:    0.9,
			})
		case len(name) > typoMinLength && len(def.SimpleName) > typoMinLength &&
			edlib.LevenshteinDistance(name, def.SimpleName) <= typoEditDistance:
			out = append(out, Intervention{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%q is close to existing %s; possible typo", name, def.ScopedName),
				Symbol:   def.ScopedName,
				Score:    0.6,
			})
		}
	}

	for _, imp := range st.Imports(fileID) {
		if imp.LocalName == name {
			out = append(out, Intervention{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%q shadows an import of %s", name, imp.Path),
				Score:    0.8,
			})
		}
	}

	sortInterventions(out)
	return out
}
