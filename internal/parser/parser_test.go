package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexer/oci/internal/types"
)

func parseRust(t *testing.T, src string) (Language, FileContext) {
	t.Helper()
	lang := Dispatch(".rs")
	require.NotNil(t, lang)
	file := FileContext{FileID: 1, RelPath: "src/lib.rs", RootScope: RootScopeFor(".rs", "src/lib.rs")}
	return lang, file
}

func parseTS(t *testing.T, relPath string) (Language, FileContext) {
	t.Helper()
	lang := Dispatch(".ts")
	require.NotNil(t, lang)
	file := FileContext{FileID: 2, RelPath: relPath, RootScope: RootScopeFor(".ts", relPath)}
	return lang, file
}

func TestRustScopedNameForNestedModuleStructMethod(t *testing.T) {
	src := `pub mod m { pub struct F; impl F { pub fn g(&self) {} } }`
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)

	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	var method *types.SymbolDef
	for i := range symbols {
		if symbols[i].ScopedName == "crate::m::F::g" {
			method = &symbols[i]
		}
	}
	require.NotNil(t, method, "expected crate::m::F::g among %v", scopedNames(symbols))
	require.Equal(t, types.KindMethod, method.Kind)
	require.Equal(t, "crate::m::F", method.Parent)
}

func TestRustVisibilityAndDocComment(t *testing.T) {
	src := "/// Adds one.\npub fn add_one(x: i32) -> i32 { x + 1 }"
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	require.Len(t, symbols, 1)
	require.Equal(t, "crate::add_one", symbols[0].ScopedName)
	require.Equal(t, types.VisPublic, symbols[0].Visibility)
	require.Equal(t, "/// Adds one.", symbols[0].DocComment)
	require.NotNil(t, symbols[0].Signature)
	require.Equal(t, "i32", symbols[0].Signature.ReturnType)
}

func TestRustCallExtractionDirectAndMethod(t *testing.T) {
	src := `fn main() { helper(); self.worker.run(); }
fn helper() {}`
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	edges := lang.ExtractCalls(tree, []byte(src), file, interner)

	var sawHelper, sawRun bool
	for _, e := range edges {
		if e.CalleeName == "helper" && !e.IsMethodCall {
			sawHelper = true
		}
		if e.CalleeName == "run" && e.IsMethodCall {
			sawRun = true
		}
	}
	require.True(t, sawHelper, "expected a direct call edge to helper, got %+v", edges)
	require.True(t, sawRun, "expected a method call edge to run, got %+v", edges)
}

func TestRustImportFlattenedNestedUseList(t *testing.T) {
	src := `use std::collections::{HashMap, HashSet as Set};`
	lang, file := parseRust(t, src)

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	imports := lang.ExtractImports(tree, []byte(src), file)

	require.Len(t, imports, 2)
	byLocal := map[string]types.ImportInfo{}
	for _, imp := range imports {
		byLocal[imp.LocalName] = imp
	}
	require.Equal(t, "std::collections::HashMap", byLocal["HashMap"].Path)
	require.Equal(t, "std::collections::HashSet", byLocal["Set"].Path)
}

func TestRustGlobImport(t *testing.T) {
	src := `use std::io::*;`
	lang, file := parseRust(t, src)

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	imports := lang.ExtractImports(tree, []byte(src), file)

	require.Len(t, imports, 1)
	require.True(t, imports[0].IsGlob)
	require.Equal(t, "std::io", imports[0].Path)
}

func TestTypeScriptClassMethodScopedName(t *testing.T) {
	src := `export class Widget {
  private count: number = 0;
  increment(): number {
    return this.count + 1;
  }
}`
	lang, file := parseTS(t, "src/widget.ts")
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	var method *types.SymbolDef
	for i := range symbols {
		if symbols[i].SimpleName == "increment" {
			method = &symbols[i]
		}
	}
	require.NotNil(t, method, "expected increment among %v", scopedNames(symbols))
	require.Equal(t, types.KindMethod, method.Kind)
	require.Equal(t, "file:src/widget.ts::Widget", method.Parent)
}

func TestTypeScriptArrowConstEmitsFunction(t *testing.T) {
	src := `export const add = (a: number, b: number) => a + b;`
	lang, file := parseTS(t, "src/math.ts")
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	require.Len(t, symbols, 1)
	require.Equal(t, "add", symbols[0].SimpleName)
	require.Equal(t, types.KindFunction, symbols[0].Kind)
}

func TestTypeScriptNamedAndNamespaceImports(t *testing.T) {
	src := `import { readFile as read } from "fs";
import * as path from "path";`
	lang, file := parseTS(t, "src/io.ts")

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	imports := lang.ExtractImports(tree, []byte(src), file)

	require.Len(t, imports, 2)
	byLocal := map[string]types.ImportInfo{}
	for _, imp := range imports {
		byLocal[imp.LocalName] = imp
	}
	require.Equal(t, "fs", byLocal["read"].Path)
	require.False(t, byLocal["read"].IsGlob)
	require.Equal(t, "path", byLocal["path"].Path)
	require.True(t, byLocal["path"].IsGlob)
}

func TestTypeScriptMemberCallExtraction(t *testing.T) {
	src := `function run() {
  fetchData();
  client.request("/health");
}`
	lang, file := parseTS(t, "src/run.ts")
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	edges := lang.ExtractCalls(tree, []byte(src), file, interner)

	var sawFetch, sawRequest bool
	for _, e := range edges {
		if e.CalleeName == "fetchData" && !e.IsMethodCall {
			sawFetch = true
		}
		if e.CalleeName == "request" && e.IsMethodCall {
			sawRequest = true
		}
	}
	require.True(t, sawFetch)
	require.True(t, sawRequest)
}

func TestParseFailureProducesEmptyExtractionNotPanic(t *testing.T) {
	src := `fn broken( {{{ not valid rust at all`
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_ = lang.ExtractSymbols(tree, []byte(src), file, interner)
		_ = lang.ExtractCalls(tree, []byte(src), file, interner)
		_ = lang.ExtractImports(tree, []byte(src), file)
	})
}

func TestRustHelperFunctionUnderTestsDirWithoutTestAttributeIsNotPromoted(t *testing.T) {
	lang := Dispatch(".rs")
	require.NotNil(t, lang)
	relPath := "tests/common.rs"
	file := FileContext{FileID: 1, RelPath: relPath, RootScope: RootScopeFor(".rs", relPath)}
	interner := types.NewInterner()

	src := `fn setup_fixture() {}`
	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	require.Len(t, symbols, 1)
	require.False(t, symbols[0].IsTest(), "a plain helper under tests/ must not be synthesized into a test entry point")
	require.Empty(t, symbols[0].Attributes)
}

func TestRustExactTestAttributeIsNotDuplicated(t *testing.T) {
	src := "#[test]\nfn checks_add_one() {}"
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	require.Len(t, symbols, 1)
	require.Equal(t, []string{"#[test]"}, symbols[0].Attributes)
	require.True(t, symbols[0].IsTest())
}

func TestRustNonCanonicalTestAttributeIsNormalized(t *testing.T) {
	src := "#[test_case(1)]\nfn checks_variants() {}"
	lang, file := parseRust(t, src)
	interner := types.NewInterner()

	tree, err := lang.Parse([]byte(src))
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree, []byte(src), file, interner)

	require.Len(t, symbols, 1)
	require.True(t, symbols[0].IsTest())
	require.Contains(t, symbols[0].Attributes, "#[test_case(1)]")
	require.Contains(t, symbols[0].Attributes, "#[test]")
}

func scopedNames(symbols []types.SymbolDef) []string {
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.ScopedName
	}
	return names
}
