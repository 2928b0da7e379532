package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codeindexer/oci/internal/types"
)

// typescriptLanguage extracts symbols, calls, and imports from TypeScript
// (and the TSX grammar variant) source, grounded on the teacher's
// setupTypeScript tagged query (internal/parser/parser_language_setup.go),
// walked as a scoped visitor the same way rustLanguage is.
type typescriptLanguage struct {
	tsx bool
}

func (l typescriptLanguage) Parse(source []byte) (*tree_sitter.Tree, error) {
	p := tree_sitter.NewParser()
	defer p.Close()
	var langPtr = tree_sitter_typescript.LanguageTypescript()
	if l.tsx {
		langPtr = tree_sitter_typescript.LanguageTSX()
	}
	lang := tree_sitter.NewLanguage(langPtr)
	if err := p.SetLanguage(lang); err != nil {
		return nil, err
	}
	return p.Parse(source, nil), nil
}

func tsDocCollector(source []byte) *docCommentCollector {
	return &docCommentCollector{
		source:      source,
		isComment:   func(kind string) bool { return kind == "comment" },
		isAttribute: func(kind string) bool { return kind == "decorator" },
		isDoc:       func(text string) bool { return strings.HasPrefix(text, "/**") },
	}
}

// tsVisibility maps an explicit accessibility modifier; TS members default
// to public when unmarked.
func tsVisibility(node *tree_sitter.Node) types.Visibility {
	if hasChildOfKind(node, "accessibility_modifier") {
		mod := childOfKind(node, "accessibility_modifier")
		text := mod.Child(0)
		if text != nil {
			switch text.Kind() {
			case "private":
				return types.VisPrivate
			case "protected":
				return types.VisRestricted
			}
		}
	}
	return types.VisPublic
}

func tsSignature(paramsNode, returnTypeNode *tree_sitter.Node, source []byte, async bool) *types.Signature {
	sig := &types.Signature{Async: async}
	if paramsNode != nil {
		count := paramsNode.ChildCount()
		for i := uint(0); i < count; i++ {
			c := paramsNode.Child(i)
			if c != nil && c.IsNamed() {
				sig.Params = append(sig.Params, strings.TrimSpace(nodeText(source, c)))
			}
		}
	}
	if returnTypeNode != nil {
		sig.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(source, returnTypeNode), ":"))
		sig.ReturnType = strings.TrimSpace(sig.ReturnType)
		sig.HasReturn = true
	}
	return sig
}

func (l typescriptLanguage) ExtractSymbols(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.SymbolDef {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	stack := newScopeStack(file.RootScope)
	docs := tsDocCollector(source)
	var symbols []types.SymbolDef

	emit := func(node *tree_sitter.Node, simpleName string, kind types.SymbolKind, sig *types.Signature, vis types.Visibility) types.SymbolDef {
		docComment, attrs := docs.collect(node)
		parent := ""
		if kind == types.KindMethod {
			parent = stack.enclosingType()
		}
		def := types.SymbolDef{
			SimpleName: simpleName,
			ScopedName: stack.qualify(simpleName),
			Kind:       kind,
			Location:   location(file.RelPath, node),
			Signature:  sig,
			Visibility: vis,
			Attributes: attrs,
			DocComment: docComment,
			Parent:     parent,
		}
		if interner != nil {
			interner.Intern(def.ScopedName)
		}
		return def
	}

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		kind := node.Kind()
		pushed := false

		switch kind {
		case "function_declaration", "generator_function_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				sig := tsSignature(node.ChildByFieldName("parameters"), node.ChildByFieldName("return_type"), source, hasChildOfKind(node, "async"))
				symbols = append(symbols, emit(node, name, types.KindFunction, sig, types.VisPublic))
				stack.push(name, scopeFunction)
				pushed = true
			}

		case "method_definition":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				sig := tsSignature(node.ChildByFieldName("parameters"), node.ChildByFieldName("return_type"), source, hasChildOfKind(node, "async"))
				symbols = append(symbols, emit(node, name, types.KindMethod, sig, tsVisibility(node)))
				stack.push(name, scopeFunction)
				pushed = true
			}

		case "class_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindStruct, nil, types.VisPublic))
				stack.push(name, scopeType)
				pushed = true
			}

		case "interface_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindTrait, nil, types.VisPublic))
				stack.push(name, scopeType)
				pushed = true
			}

		case "type_alias_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindTypeAlias, nil, types.VisPublic))
			}

		case "enum_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindEnum, nil, types.VisPublic))
				collectTSEnumMembers(node, source, stack, name, file.RelPath, &symbols)
			}

		case "module", "internal_module":
			// TypeScript `namespace`/`module` declarations.
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				if node.ChildByFieldName("body") != nil {
					symbols = append(symbols, emit(node, name, types.KindModule, nil, types.VisPublic))
					stack.push(name, scopeModule)
					pushed = true
				}
			}

		case "public_field_definition":
			if sym, ok := tsClassField(node, source, stack, file.RelPath, docs); ok {
				symbols = append(symbols, sym)
				if interner != nil {
					interner.Intern(sym.ScopedName)
				}
			}

		case "lexical_declaration":
			tsLexicalDeclaration(node, source, stack, emit, &symbols)
		}

		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			visit(node.Child(i))
		}
		if pushed {
			stack.pop()
		}
	}

	visit(root)
	return symbols
}

// tsLexicalDeclaration handles `const`/`let` bindings at the current scope:
// a binding whose value is an arrow/function expression emits a Function
// named after the binding (spec §4.3); a plain value binding emits Const
// (const) or Static (let).
func tsLexicalDeclaration(node *tree_sitter.Node, source []byte, stack *scopeStack,
	emit func(*tree_sitter.Node, string, types.SymbolKind, *types.Signature, types.Visibility) types.SymbolDef,
	symbols *[]types.SymbolDef) {

	isConst := childOfKind(node, "const") != nil

	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		decl := node.Child(i)
		if decl == nil || decl.Kind() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(source, nameNode)
		value := decl.ChildByFieldName("value")

		if value != nil && isFunctionLike(value.Kind()) {
			sig := tsSignature(value.ChildByFieldName("parameters"), value.ChildByFieldName("return_type"), source, hasChildOfKind(value, "async"))
			*symbols = append(*symbols, emit(decl, name, types.KindFunction, sig, types.VisPublic))
			continue
		}

		symKind := types.KindStatic
		if isConst {
			symKind = types.KindConst
		}
		*symbols = append(*symbols, emit(decl, name, symKind, nil, types.VisPublic))
	}
}

func isFunctionLike(kind string) bool {
	switch kind {
	case "arrow_function", "function_expression", "generator_function":
		return true
	}
	return false
}

func tsClassField(node *tree_sitter.Node, source []byte, stack *scopeStack, relPath string, docs *docCommentCollector) (types.SymbolDef, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return types.SymbolDef{}, false
	}
	name := nodeText(source, nameNode)
	value := node.ChildByFieldName("value")

	kind := types.KindField
	var sig *types.Signature
	if value != nil && isFunctionLike(value.Kind()) {
		kind = types.KindMethod
		sig = tsSignature(value.ChildByFieldName("parameters"), value.ChildByFieldName("return_type"), source, hasChildOfKind(value, "async"))
	}

	docComment, attrs := docs.collect(node)
	parent := ""
	if kind == types.KindMethod {
		parent = stack.enclosingType()
	}
	return types.SymbolDef{
		SimpleName: name,
		ScopedName: stack.qualify(name),
		Kind:       kind,
		Location:   location(relPath, node),
		Signature:  sig,
		Visibility: tsVisibility(node),
		Attributes: attrs,
		DocComment: docComment,
		Parent:     parent,
	}, true
}

func collectTSEnumMembers(enumNode *tree_sitter.Node, source []byte, stack *scopeStack, enumName, relPath string, out *[]types.SymbolDef) {
	body := enumNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	docs := tsDocCollector(source)
	stack.push(enumName, scopeType)
	defer stack.pop()

	count := body.ChildCount()
	for i := uint(0); i < count; i++ {
		member := body.Child(i)
		if member == nil || member.Kind() != "enum_assignment" && member.Kind() != "property_identifier" {
			continue
		}
		nameNode := member
		if member.Kind() == "enum_assignment" {
			nameNode = member.ChildByFieldName("name")
		}
		if nameNode == nil {
			continue
		}
		name := nodeText(source, nameNode)
		docComment, attrs := docs.collect(member)
		*out = append(*out, types.SymbolDef{
			SimpleName: name,
			ScopedName: stack.qualify(name),
			Kind:       types.KindVariant,
			Location:   location(relPath, member),
			Visibility: types.VisPublic,
			Attributes: attrs,
			DocComment: docComment,
			Parent:     stack.current(),
		})
	}
}

func (l typescriptLanguage) ExtractCalls(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.CallEdge {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	stack := newScopeStack(file.RootScope)
	var edges []types.CallEdge

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		kind := node.Kind()
		pushed := false

		switch kind {
		case "function_declaration", "generator_function_declaration", "method_definition":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				stack.push(nodeText(source, nameNode), scopeFunction)
				pushed = true
			}
		case "class_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				stack.push(nodeText(source, nameNode), scopeType)
				pushed = true
			}
		case "interface_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				stack.push(nodeText(source, nameNode), scopeType)
				pushed = true
			}
		case "variable_declarator":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				if value := node.ChildByFieldName("value"); value != nil && isFunctionLike(value.Kind()) {
					stack.push(nodeText(source, nameNode), scopeFunction)
					pushed = true
				}
			}
		case "call_expression":
			if fn := node.ChildByFieldName("function"); fn != nil {
				name, isMethod := tsCalleeName(fn, source)
				if name != "" {
					caller := stack.callerScope()
					callerName := types.Name(0)
					if interner != nil {
						callerName = interner.Intern(caller)
					}
					edges = append(edges, types.CallEdge{
						Caller:       callerName,
						CalleeName:   name,
						Location:     location(file.RelPath, node),
						IsMethodCall: isMethod,
					})
				}
			}
		}

		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			visit(node.Child(i))
		}
		if pushed {
			stack.pop()
		}
	}

	visit(root)
	return edges
}

// tsCalleeName derives a CallEdge's callee name and is_method_call flag,
// per spec §4.3: identifiers are used directly; member/property access
// uses the property name; string-indexed subscripts use the literal's
// value; optional-chain and parenthesized wrappers recurse through.
func tsCalleeName(node *tree_sitter.Node, source []byte) (string, bool) {
	switch node.Kind() {
	case "identifier":
		return nodeText(source, node), false
	case "member_expression":
		if prop := node.ChildByFieldName("property"); prop != nil {
			return nodeText(source, prop), true
		}
		return "", false
	case "subscript_expression":
		if idx := node.ChildByFieldName("index"); idx != nil {
			if idx.Kind() == "string" {
				return tsStringLiteralValue(idx, source), true
			}
			name, _ := tsCalleeName(node.ChildByFieldName("object"), source)
			return name, true
		}
	case "non_null_expression", "parenthesized_expression":
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			c := node.Child(i)
			if c != nil && c.IsNamed() {
				return tsCalleeName(c, source)
			}
		}
	}
	return nodeText(source, node), false
}

// tsStringLiteralValue returns a TS string literal's content, stripping the
// surrounding quotes but preserving embedded hyphens.
func tsStringLiteralValue(node *tree_sitter.Node, source []byte) string {
	text := nodeText(source, node)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func (l typescriptLanguage) ExtractImports(tree *tree_sitter.Tree, source []byte, file FileContext) []types.ImportInfo {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	var imports []types.ImportInfo
	walk(root, func(node *tree_sitter.Node) {
		if node.Kind() != "import_statement" {
			return
		}
		sourceNode := node.ChildByFieldName("source")
		if sourceNode == nil {
			return
		}
		path := tsStringLiteralValue(sourceNode, source)

		clause := childOfKind(node, "import_clause")
		if clause == nil {
			// Side-effect-only import: `import "foo";`
			imports = append(imports, types.ImportInfo{
				Path:     path,
				Location: location(file.RelPath, node),
				FileID:   file.FileID,
			})
			return
		}

		count := clause.ChildCount()
		for i := uint(0); i < count; i++ {
			c := clause.Child(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "identifier":
				imports = append(imports, types.ImportInfo{
					Path: path, LocalName: nodeText(source, c),
					Location: location(file.RelPath, node), FileID: file.FileID,
				})
			case "namespace_import":
				name := c.Child(c.ChildCount() - 1)
				local := ""
				if name != nil {
					local = nodeText(source, name)
				}
				imports = append(imports, types.ImportInfo{
					Path: path, LocalName: local, IsGlob: true,
					Location: location(file.RelPath, node), FileID: file.FileID,
				})
			case "named_imports":
				specCount := c.ChildCount()
				for j := uint(0); j < specCount; j++ {
					spec := c.Child(j)
					if spec == nil || spec.Kind() != "import_specifier" {
						continue
					}
					nameNode := spec.ChildByFieldName("name")
					aliasNode := spec.ChildByFieldName("alias")
					local := nodeText(source, nameNode)
					if aliasNode != nil {
						local = nodeText(source, aliasNode)
					}
					imports = append(imports, types.ImportInfo{
						Path: path, LocalName: local,
						Location: location(file.RelPath, node), FileID: file.FileID,
					})
				}
			}
		}
	})
	return imports
}
