package extractor

import (
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// RustExtractor implements LanguageExtractor for Rust.
type RustExtractor struct{}

func (r *RustExtractor) GetLanguage() *sitter.Language {
	return rust.GetLanguage()
}

var docAttrRe = regexp.MustCompile(`^#!?\[\s*doc\s*=`)

// scope carries what encloses the node being visited.
type scope struct {
	nested bool // inside a function, impl or trait body
}

func (r *RustExtractor) Classify(root *sitter.Node, sourceCode []byte) []Item {
	var items []Item
	r.visit(root, sourceCode, scope{}, &items)
	return items
}

func (r *RustExtractor) visit(node *sitter.Node, src []byte, sc scope, items *[]Item) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		r.visitNode(child, src, sc, items)
	}
}

func (r *RustExtractor) visitNode(n *sitter.Node, src []byte, sc scope, items *[]Item) {
	switch n.Type() {
	case "function_item":
		kind := KindFunction
		if ownerType(n) == "impl_item" {
			kind = KindMethod
		}
		item := r.newItem(n, src, kind, "fn")
		item.Signature = functionSignature(n, src)
		*items = append(*items, item)
		if body := n.ChildByFieldName("body"); body != nil {
			r.visit(body, src, scope{nested: true}, items)
		}

	case "function_signature_item":
		if ownerType(n) == "trait_item" {
			item := r.newItem(n, src, KindFunction, "fn")
			item.Signature = strings.TrimSuffix(strings.TrimSpace(n.Content(src)), ";")
			*items = append(*items, item)
		}

	case "struct_item", "enum_item", "union_item", "trait_item":
		keyword := strings.TrimSuffix(n.Type(), "_item")
		kind := structuredKind(keyword)
		if sc.nested {
			kind = KindNestedStructuredType
		}
		item := r.newItem(n, src, kind, keyword)
		item.IsNested = sc.nested
		*items = append(*items, item)
		if n.Type() == "trait_item" {
			if body := n.ChildByFieldName("body"); body != nil {
				r.visit(body, src, scope{nested: true}, items)
			}
		}

	case "impl_item":
		if body := n.ChildByFieldName("body"); body != nil {
			r.visit(body, src, scope{nested: true}, items)
		}

	case "mod_item":
		item := r.newItem(n, src, KindModule, "mod")
		body := n.ChildByFieldName("body")
		item.HasBody = body != nil
		*items = append(*items, item)
		if body != nil {
			r.visit(body, src, scope{}, items)
		}

	case "type_item":
		// Associated types in impl blocks are not aliases.
		if ownerType(n) == "" {
			*items = append(*items, r.newItem(n, src, KindTypeAlias, "type"))
		}

	case "const_item":
		*items = append(*items, r.newItem(n, src, KindConstantOrStatic, "const"))

	case "static_item":
		*items = append(*items, r.newItem(n, src, KindConstantOrStatic, "static"))

	case "macro_definition":
		item := r.newItem(n, src, KindMacro, "macro_rules")
		if hasAttribute(n, src, "macro_export") {
			item.Visibility = Public
		}
		*items = append(*items, item)

	case "line_comment", "block_comment", "attribute_item", "inner_attribute_item",
		"use_declaration", "extern_crate_declaration", "macro_invocation":
		// Not declarations of interest and never contain any.

	default:
		r.visit(n, src, sc, items)
	}
}

func (r *RustExtractor) newItem(n *sitter.Node, src []byte, kind Kind, keyword string) Item {
	start := n.StartPoint()
	item := Item{
		Kind:       kind,
		Visibility: visibilityOf(n, src),
		Keyword:    keyword,
		Line:       int(start.Row) + 1,
		Column:     int(start.Column) + 1,
		EndLine:    int(n.EndPoint().Row) + 1,
	}
	if name := n.ChildByFieldName("name"); name != nil {
		item.Name = name.Content(src)
	}
	item.AnchorLine = anchorLine(n, src)
	return item
}

func (r *RustExtractor) FileItem(path string, role FileRole, sourceCode []byte) Item {
	kind := KindModule
	if role == RolePackageRoot {
		kind = KindPackageRoot
	}
	return Item{
		Kind:       kind,
		Visibility: Public,
		Name:       moduleName(path),
		Keyword:    "mod",
		Line:       1,
		Column:     1,
		EndLine:    len(SplitLines(sourceCode)),
		AnchorLine: 1,
		HasBody:    true,
		Synthetic:  true,
	}
}

func structuredKind(keyword string) Kind {
	switch keyword {
	case "enum":
		return KindEnumeration
	case "union":
		return KindUnion
	case "trait":
		return KindTraitLike
	}
	return KindStructuredType
}

// ownerType returns "impl_item" or "trait_item" when n sits directly in the
// body of one, and "" otherwise.
func ownerType(n *sitter.Node) string {
	parent := n.Parent()
	if parent == nil || parent.Type() != "declaration_list" {
		return ""
	}
	owner := parent.Parent()
	if owner == nil {
		return ""
	}
	switch owner.Type() {
	case "impl_item", "trait_item":
		return owner.Type()
	}
	return ""
}

func visibilityOf(n *sitter.Node, src []byte) Visibility {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() == "visibility_modifier" {
			if strings.TrimSpace(child.Content(src)) == "pub" {
				return Public
			}
			return Private
		}
	}
	return Private
}

func functionSignature(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return strings.TrimSpace(n.Content(src))
	}
	return strings.TrimSpace(string(src[n.StartByte():body.StartByte()]))
}

// anchorLine returns the first line of the non-doc outer attributes that sit
// directly above n, or n's own line when there are none.
func anchorLine(n *sitter.Node, src []byte) int {
	anchor := n
	for {
		prev := anchor.PrevSibling()
		if prev == nil || prev.Type() != "attribute_item" {
			break
		}
		if anchor.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}
		if docAttrRe.MatchString(strings.TrimSpace(prev.Content(src))) {
			break
		}
		anchor = prev
	}
	return int(anchor.StartPoint().Row) + 1
}

// hasAttribute reports whether an attribute mentioning name is attached to n,
// looking through interleaved doc comments.
func hasAttribute(n *sitter.Node, src []byte, name string) bool {
	cur := n
	for {
		prev := cur.PrevSibling()
		if prev == nil || cur.StartPoint().Row-prev.EndPoint().Row > 1 {
			return false
		}
		switch prev.Type() {
		case "attribute_item":
			if strings.Contains(prev.Content(src), name) {
				return true
			}
		case "line_comment", "block_comment":
		default:
			return false
		}
		cur = prev
	}
}

func moduleName(path string) string {
	base := filepath.Base(path)
	switch base {
	case "mod.rs":
		return filepath.Base(filepath.Dir(path))
	case "lib.rs", "main.rs":
		return "crate"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
