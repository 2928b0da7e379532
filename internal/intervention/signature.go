// Package intervention flags likely-duplicate or conflicting symbols before
// a new one is added: signature similarity against the existing index
// (spec §4.9), name-collision and import-shadow checks within one file.
package intervention

import "strings"

// ParsedSignature is a proposed function/method signature broken into the
// pieces similarityScore compares against an indexed symbol. Parsing is
// string scanning, not a grammar: proposed signatures are free text from a
// caller describing intent, not necessarily valid source.
type ParsedSignature struct {
	Name       string
	ParamTypes []string
	ReturnType string
	HasReturn  bool
}

// ParseSignature scans a Rust-style signature ("fn name(a: Type, b: Type2)
// -> Ret") for its name, parameter types, and return type. Tolerant of
// missing pieces: a bare "name(...)" parses fine with no return type.
func ParseSignature(sig string) ParsedSignature {
	sig = strings.TrimSpace(sig)
	sig = strings.TrimPrefix(sig, "pub ")
	sig = strings.TrimPrefix(sig, "async ")
	sig = strings.TrimPrefix(sig, "unsafe ")
	sig = strings.TrimPrefix(sig, "fn ")

	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return ParsedSignature{Name: strings.TrimSpace(sig)}
	}
	name := strings.TrimSpace(sig[:open])

	close := matchingParen(sig, open)
	var paramsRaw string
	var rest string
	if close < 0 {
		paramsRaw = sig[open+1:]
	} else {
		paramsRaw = sig[open+1 : close]
		rest = sig[close+1:]
	}

	var paramTypes []string
	for _, p := range splitTopLevel(paramsRaw, ',') {
		p = strings.TrimSpace(p)
		if p == "" || p == "self" || p == "&self" || p == "&mut self" {
			continue
		}
		paramTypes = append(paramTypes, normalizeType(paramType(p)))
	}

	parsed := ParsedSignature{Name: name, ParamTypes: paramTypes}

	if arrow := strings.Index(rest, "->"); arrow >= 0 {
		ret := strings.TrimSpace(rest[arrow+2:])
		if brace := strings.IndexByte(ret, '{'); brace >= 0 {
			ret = strings.TrimSpace(ret[:brace])
		}
		if where := strings.Index(ret, "where"); where >= 0 {
			ret = strings.TrimSpace(ret[:where])
		}
		if ret != "" {
			parsed.ReturnType = normalizeType(ret)
			parsed.HasReturn = true
		}
	}

	return parsed
}

// paramType pulls the type half out of a "name: Type" parameter, or
// returns p unchanged if there's no colon (a bare type, as in a trait
// method's positional-only signature).
func paramType(p string) string {
	if colon := strings.IndexByte(p, ':'); colon >= 0 {
		return strings.TrimSpace(p[colon+1:])
	}
	return p
}

// typeEquivalences groups normalized type spellings spec §4.9 treats as
// compatible for duplicate detection, even though they aren't the same
// Rust type.
var typeEquivalences = map[string]string{
	"str":    "str",
	"string": "str",
	"vec":    "seq",
	"slice":  "seq",
}

// normalizeType lowercases, strips whitespace, strips leading reference
// markers, and canonicalizes a small set of interchangeable spellings
// (spec §4.9).
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, " ", "")
	for strings.HasPrefix(t, "&") {
		t = strings.TrimPrefix(t, "&")
		t = strings.TrimPrefix(t, "mut")
	}
	base := t
	if lt := strings.IndexByte(t, '<'); lt >= 0 {
		base = t[:lt]
	}
	if canon, ok := typeEquivalences[base]; ok {
		return canon
	}
	return t
}

// matchingParen finds the index of the ')' matching the '(' at open,
// accounting for nesting. Returns -1 if unmatched.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// angle/paren/bracket groups (so "a: Vec<i32, u8>" isn't split in two).
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
