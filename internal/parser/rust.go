package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/codeindexer/oci/internal/types"
)

// rustLanguage extracts symbols, calls, and imports from Rust source,
// grounded on the teacher's setupRust tagged query (internal/parser/
// parser_language_setup.go) but walked as a scoped visitor instead of a
// flat query match, so nested impl/mod scopes and method parents can be
// tracked the way spec.md §4.3 requires.
type rustLanguage struct{}

func (rustLanguage) Parse(source []byte) (*tree_sitter.Tree, error) {
	p := tree_sitter.NewParser()
	defer p.Close()
	lang := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	if err := p.SetLanguage(lang); err != nil {
		return nil, err
	}
	return p.Parse(source, nil), nil
}

func rustDocCollector(source []byte) *docCommentCollector {
	return &docCommentCollector{
		source: source,
		isComment: func(kind string) bool {
			return kind == "line_comment" || kind == "block_comment"
		},
		isAttribute: func(kind string) bool { return kind == "attribute_item" },
		isDoc: func(text string) bool {
			return strings.HasPrefix(text, "///") || strings.HasPrefix(text, "//!") ||
				strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/*!")
		},
	}
}

func rustVisibility(node *tree_sitter.Node, source []byte) types.Visibility {
	vis := childOfKind(node, "visibility_modifier")
	if vis == nil {
		return types.VisPrivate
	}
	text := nodeText(source, vis)
	switch {
	case text == "pub":
		return types.VisPublic
	case strings.Contains(text, "pub(crate)"):
		return types.VisCrate
	case strings.Contains(text, "pub(super)"):
		return types.VisSuper
	case strings.HasPrefix(text, "pub("):
		return types.VisRestricted
	default:
		return types.VisPublic
	}
}

func rustSignature(node *tree_sitter.Node, source []byte) *types.Signature {
	sig := &types.Signature{
		Async:  hasChildOfKind(node, "async"),
		Unsafe: hasChildOfKind(node, "unsafe"),
		Const:  hasChildOfKind(node, "const"),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		count := params.ChildCount()
		for i := uint(0); i < count; i++ {
			c := params.Child(i)
			if c != nil && c.IsNamed() {
				sig.Params = append(sig.Params, strings.TrimSpace(nodeText(source, c)))
			}
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig.ReturnType = strings.TrimSpace(nodeText(source, ret))
		sig.HasReturn = true
	}
	if generics := node.ChildByFieldName("type_parameters"); generics != nil {
		sig.Generics = nodeText(source, generics)
	}
	if where := node.ChildByFieldName("where_clause"); where != nil {
		sig.WhereClause = strings.TrimSpace(nodeText(source, where))
	}
	return sig
}

func (rustLanguage) ExtractSymbols(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.SymbolDef {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	stack := newScopeStack(file.RootScope)
	docs := rustDocCollector(source)

	var symbols []types.SymbolDef
	var visitChildren func(node *tree_sitter.Node)

	emit := func(node *tree_sitter.Node, simpleName string, kind types.SymbolKind, sig *types.Signature) types.SymbolDef {
		docComment, attrs := docs.collect(node)
		if kind == types.KindFunction {
			attrs = withSyntheticTestAttribute(attrs)
		}
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
			Visibility: rustVisibility(node, source),
			Attributes: attrs,
			DocComment: docComment,
			Parent:     parent,
		}
		if interner != nil {
			interner.Intern(def.ScopedName)
		}
		return def
	}

	visitChildren = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		kind := node.Kind()

		pushed := false
		switch kind {
		case "function_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symKind := types.KindFunction
				if n := len(stack.frames); n > 0 && stack.frames[n-1].kind == scopeType {
					symKind = types.KindMethod
				}
				symbols = append(symbols, emit(node, name, symKind, rustSignature(node, source)))
				stack.push(name, scopeFunction)
				pushed = true
			}

		case "struct_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindStruct, nil))
				collectRustFields(node, source, stack, name, file.RelPath, &symbols)
			}

		case "enum_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindEnum, nil))
				collectRustVariants(node, source, stack, name, file.RelPath, &symbols)
			}

		case "trait_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindTrait, nil))
				stack.push(name, scopeType)
				pushed = true
			}

		case "impl_item":
			var name string
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				name = strings.TrimSpace(nodeText(source, typeNode))
			}
			if name != "" {
				symbols = append(symbols, emit(node, name, types.KindImpl, nil))
				stack.push(name, scopeType)
				pushed = true
			}

		case "type_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindTypeAlias, nil))
			}

		case "const_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindConst, nil))
			}

		case "static_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindStatic, nil))
			}

		case "macro_definition":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindMacro, nil))
			}

		case "mod_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil && node.ChildByFieldName("body") != nil {
				name := nodeText(source, nameNode)
				symbols = append(symbols, emit(node, name, types.KindModule, nil))
				stack.push(name, scopeModule)
				pushed = true
			}
		}

		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			visitChildren(node.Child(i))
		}

		if pushed {
			stack.pop()
		}
	}

	visitChildren(root)
	return symbols
}

func collectRustFields(structNode *tree_sitter.Node, source []byte, stack *scopeStack, structName, relPath string, out *[]types.SymbolDef) {
	body := structNode.ChildByFieldName("body")
	if body == nil || body.Kind() != "field_declaration_list" {
		return
	}
	docs := rustDocCollector(source)
	stack.push(structName, scopeType)
	defer stack.pop()

	count := body.ChildCount()
	for i := uint(0); i < count; i++ {
		field := body.Child(i)
		if field == nil || field.Kind() != "field_declaration" {
			continue
		}
		nameNode := field.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(source, nameNode)
		docComment, attrs := docs.collect(field)
		*out = append(*out, types.SymbolDef{
			SimpleName: name,
			ScopedName: stack.qualify(name),
			Kind:       types.KindField,
			Location:   location(relPath, field),
			Visibility: rustVisibility(field, source),
			Attributes: attrs,
			DocComment: docComment,
			Parent:     stack.current(),
		})
	}
}

func collectRustVariants(enumNode *tree_sitter.Node, source []byte, stack *scopeStack, enumName, relPath string, out *[]types.SymbolDef) {
	body := enumNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	docs := rustDocCollector(source)
	stack.push(enumName, scopeType)
	defer stack.pop()

	count := body.ChildCount()
	for i := uint(0); i < count; i++ {
		variant := body.Child(i)
		if variant == nil || variant.Kind() != "enum_variant" {
			continue
		}
		nameNode := variant.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(source, nameNode)
		docComment, attrs := docs.collect(variant)
		*out = append(*out, types.SymbolDef{
			SimpleName: name,
			ScopedName: stack.qualify(name),
			Kind:       types.KindVariant,
			Location:   location(relPath, variant),
			Visibility: types.VisPublic,
			Attributes: attrs,
			DocComment: docComment,
			Parent:     stack.current(),
		})
	}
}

func (rustLanguage) ExtractCalls(tree *tree_sitter.Tree, source []byte, file FileContext, interner *types.Interner) []types.CallEdge {
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
		case "function_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				stack.push(nodeText(source, nameNode), scopeFunction)
				pushed = true
			}
		case "impl_item":
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				stack.push(strings.TrimSpace(nodeText(source, typeNode)), scopeType)
				pushed = true
			}
		case "trait_item", "mod_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				scopeKindVal := scopeModule
				if kind == "trait_item" {
					scopeKindVal = scopeType
				}
				stack.push(nodeText(source, nameNode), scopeKindVal)
				pushed = true
			}
		case "call_expression":
			if fn := node.ChildByFieldName("function"); fn != nil {
				name, isMethod := rustCalleeName(fn, source)
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

// rustCalleeName derives a CallEdge's callee name and is_method_call flag
// from a call expression's function node, per spec §4.3's "call
// extraction" rule.
func rustCalleeName(node *tree_sitter.Node, source []byte) (string, bool) {
	switch node.Kind() {
	case "identifier":
		return nodeText(source, node), false
	case "field_expression":
		if field := node.ChildByFieldName("field"); field != nil {
			return nodeText(source, field), true
		}
		return "", false
	case "scoped_identifier":
		if name := node.ChildByFieldName("name"); name != nil {
			return nodeText(source, name), false
		}
		return nodeText(source, node), false
	case "generic_function":
		if fn := node.ChildByFieldName("function"); fn != nil {
			return rustCalleeName(fn, source)
		}
	case "parenthesized_expression", "reference_expression", "unary_expression", "try_expression":
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			c := node.Child(i)
			if c != nil && c.IsNamed() {
				return rustCalleeName(c, source)
			}
		}
	case "index_expression":
		if idx := node.ChildByFieldName("index"); idx != nil && idx.Kind() == "string_literal" {
			return rustStringLiteralValue(idx, source), true
		}
		if value := node.ChildByFieldName("value"); value != nil {
			name, _ := rustCalleeName(value, source)
			return name, true
		}
	}
	return nodeText(source, node), false
}

// rustStringLiteralValue returns a Rust string literal's content, stripping
// the surrounding quotes but preserving embedded hyphens.
func rustStringLiteralValue(node *tree_sitter.Node, source []byte) string {
	text := nodeText(source, node)
	text = strings.TrimPrefix(text, "r")
	text = strings.Trim(text, "#")
	return strings.Trim(text, `"`)
}

func (rustLanguage) ExtractImports(tree *tree_sitter.Tree, source []byte, file FileContext) []types.ImportInfo {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	var imports []types.ImportInfo
	walk(root, func(node *tree_sitter.Node) {
		if node.Kind() != "use_declaration" {
			return
		}
		arg := node.ChildByFieldName("argument")
		if arg == nil {
			return
		}
		for _, leaf := range flattenRustUseTree(arg, source, "") {
			imports = append(imports, types.ImportInfo{
				Path:      leaf.path,
				LocalName: leaf.local,
				IsGlob:    leaf.isGlob,
				Location:  location(file.RelPath, node),
				FileID:    file.FileID,
			})
		}
	})
	return imports
}

type useLeaf struct {
	path   string
	local  string
	isGlob bool
}

func joinUsePrefix(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	if segment == "" {
		return prefix
	}
	return prefix + "::" + segment
}

func lastUseSegment(path string) string {
	parts := strings.Split(path, "::")
	return parts[len(parts)-1]
}

// flattenRustUseTree recursively flattens a `use` argument node (which may
// be a bare path, an aliased path, a glob, or a nested `{...}` list) into
// its leaf imports, concatenating the outer path prefix with each leaf per
// spec §4.3's "nested import lists are flattened" rule.
func flattenRustUseTree(node *tree_sitter.Node, source []byte, prefix string) []useLeaf {
	switch node.Kind() {
	case "use_list":
		var out []useLeaf
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			c := node.Child(i)
			if c != nil && c.IsNamed() {
				out = append(out, flattenRustUseTree(c, source, prefix)...)
			}
		}
		return out

	case "scoped_use_list":
		newPrefix := prefix
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			newPrefix = joinUsePrefix(prefix, nodeText(source, pathNode))
		}
		if listNode := node.ChildByFieldName("list"); listNode != nil {
			return flattenRustUseTree(listNode, source, newPrefix)
		}
		return nil

	case "use_as_clause":
		pathNode := node.ChildByFieldName("path")
		aliasNode := node.ChildByFieldName("alias")
		full := joinUsePrefix(prefix, nodeText(source, pathNode))
		local := nodeText(source, aliasNode)
		return []useLeaf{{path: full, local: local}}

	case "use_wildcard":
		var pathText string
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			c := node.Child(i)
			if c != nil && c.IsNamed() {
				pathText = nodeText(source, c)
			}
		}
		full := joinUsePrefix(prefix, pathText)
		return []useLeaf{{path: full, local: "*", isGlob: true}}

	default:
		text := nodeText(source, node)
		full := joinUsePrefix(prefix, text)
		return []useLeaf{{path: full, local: lastUseSegment(full)}}
	}
}
