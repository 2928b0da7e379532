package types

import "strings"

// SymbolKind is the closed set of symbol kinds the extraction pipeline can
// produce.
type SymbolKind uint8

const (
	KindFunction SymbolKind = iota
	KindMethod
	KindStruct
	KindEnum
	KindTrait
	KindImpl
	KindConst
	KindStatic
	KindModule
	KindTypeAlias
	KindMacro
	KindField
	KindVariant
)

// String renders the kind for debug output and BM25 identifier text.
func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindImpl:
		return "impl"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	case KindModule:
		return "module"
	case KindTypeAlias:
		return "type_alias"
	case KindMacro:
		return "macro"
	case KindField:
		return "field"
	case KindVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// Visibility is the closed set of visibility modifiers.
type Visibility uint8

const (
	VisPrivate Visibility = iota
	VisCrate
	VisSuper
	VisRestricted
	VisPublic
)

// Signature captures a callable's parameter/return/modifier text as
// extracted verbatim from source, without type inference.
type Signature struct {
	Params     []string
	ReturnType string
	HasReturn  bool
	Async      bool
	Unsafe     bool
	Const      bool
	Generics   string
	WhereClause string
}

// SymbolDef is one definition site, keyed externally by ScopedName.
//
// Invariants (spec §3):
//   - ScopedName is globally unique within a build.
//   - Location is contained in exactly one file.
//   - Method symbols have Parent set to the enclosing impl/struct/trait.
//   - Module/impl symbols carry no Signature.
type SymbolDef struct {
	ID          SymbolID
	SimpleName  string
	ScopedName  string
	Kind        SymbolKind
	Location    Location
	Signature   *Signature
	Visibility  Visibility
	Attributes  []string
	DocComment  string
	Parent      string // scoped name of enclosing impl/struct/trait, "" if none
}

// IsTest reports whether an attribute on this symbol marks it as a test,
// per the extraction rule in spec §4.3 (any attribute whose text contains
// "test").
func (s *SymbolDef) IsTest() bool {
	for _, a := range s.Attributes {
		if strings.Contains(strings.ToLower(a), "test") {
			return true
		}
	}
	return false
}

// potentiallyLiveAttrs are the attribute substrings that mark an otherwise
// unreached symbol as "potentially live" rather than dead (spec §4.8).
var potentiallyLiveAttrs = []string{"derive", "macro", "no_mangle", "export_name", "link_name", "used"}

// HasPotentiallyLiveAttribute reports whether any attribute text contains
// one of the conservative-keep markers.
func (s *SymbolDef) HasPotentiallyLiveAttribute() bool {
	for _, a := range s.Attributes {
		lower := strings.ToLower(a)
		for _, marker := range potentiallyLiveAttrs {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
