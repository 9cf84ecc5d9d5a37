package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Parse extracts the item tree from Rust source. Syntax errors inside the
// file do not fail the parse; tree-sitter recovers and we extract whatever
// items survive. The returned tree keeps no reference to parser state.
func Parse(content []byte) (*ItemTree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse rust source: %w", err)
	}
	defer tree.Close()

	it := &ItemTree{}
	extractItems(it, tree.RootNode(), content, -1)
	return it, nil
}

// extractItems walks the direct children of a source_file or declaration_list
// node and appends items in declaration order. parent is the index of the
// enclosing inline mod item, or -1 at the file top level.
func extractItems(it *ItemTree, container *sitter.Node, content []byte, parent int32) {
	for i := 0; i < int(container.NamedChildCount()); i++ {
		node := container.NamedChild(i)
		switch node.Type() {
		case "mod_item":
			name := node.ChildByFieldName("name")
			if name == nil {
				continue
			}
			body := node.ChildByFieldName("body")
			kind := ItemModDecl
			if body != nil {
				kind = ItemModule
			}
			idx := appendItem(it, Item{
				Kind:      kind,
				Name:      name.Content(content),
				Parent:    parent,
				Range:     nodeRange(node),
				NameRange: nodeRange(name),
			})
			if body != nil {
				extractItems(it, body, content, idx)
			}
		case "struct_item":
			appendNamed(it, node, content, parent, ItemStruct)
		case "enum_item":
			name := node.ChildByFieldName("name")
			if name == nil {
				continue
			}
			variants, variantRanges := enumVariants(node, content)
			appendItem(it, Item{
				Kind:          ItemEnum,
				Name:          name.Content(content),
				Parent:        parent,
				Range:         nodeRange(node),
				NameRange:     nodeRange(name),
				Variants:      variants,
				VariantRanges: variantRanges,
			})
		case "function_item":
			appendNamed(it, node, content, parent, ItemFunction)
		case "const_item":
			appendNamed(it, node, content, parent, ItemConst)
		case "static_item":
			appendNamed(it, node, content, parent, ItemStatic)
		case "trait_item":
			appendNamed(it, node, content, parent, ItemTrait)
		case "type_item":
			appendNamed(it, node, content, parent, ItemTypeAlias)
		case "use_declaration":
			arg := node.ChildByFieldName("argument")
			if arg == nil {
				continue
			}
			imports := flattenUse(arg, content, nil)
			if len(imports) == 0 {
				continue
			}
			appendItem(it, Item{
				Kind:    ItemUse,
				Parent:  parent,
				Range:   nodeRange(node),
				Imports: imports,
			})
		case "union_item", "macro_definition":
			appendNamed(it, node, content, parent, ItemOther)
		}
	}
}

func appendItem(it *ItemTree, item Item) int32 {
	it.Items = append(it.Items, item)
	return int32(len(it.Items) - 1)
}

// appendNamed appends a simple named item, skipping nodes without a name.
func appendNamed(it *ItemTree, node *sitter.Node, content []byte, parent int32, kind ItemKind) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}
	appendItem(it, Item{
		Kind:      kind,
		Name:      name.Content(content),
		Parent:    parent,
		Range:     nodeRange(node),
		NameRange: nodeRange(name),
	})
}

// enumVariants collects variant names and their ranges from an enum_item's
// body in declaration order.
func enumVariants(enumNode *sitter.Node, content []byte) ([]string, []Range) {
	body := enumNode.ChildByFieldName("body")
	if body == nil {
		return nil, nil
	}
	var variants []string
	var ranges []Range
	for i := 0; i < int(body.NamedChildCount()); i++ {
		v := body.NamedChild(i)
		if v.Type() != "enum_variant" {
			continue
		}
		if name := v.ChildByFieldName("name"); name != nil {
			variants = append(variants, name.Content(content))
			ranges = append(ranges, nodeRange(name))
		}
	}
	return variants, ranges
}

// flattenUse expands a use clause node into flat imports. prefix carries the
// raw segments accumulated from enclosing scoped lists, including any leading
// "crate"/"self"/"super" anchors; anchors are split off by finishImport.
func flattenUse(node *sitter.Node, content []byte, prefix []string) []Import {
	switch node.Type() {
	case "identifier", "crate", "super", "self", "metavariable":
		return finishImport(append(clone(prefix), node.Content(content)), "", false)
	case "scoped_identifier":
		segs := clone(prefix)
		if p := node.ChildByFieldName("path"); p != nil {
			segs = append(segs, pathSegments(p, content)...)
		}
		if n := node.ChildByFieldName("name"); n != nil {
			segs = append(segs, n.Content(content))
		}
		return finishImport(segs, "", false)
	case "use_as_clause":
		p := node.ChildByFieldName("path")
		alias := node.ChildByFieldName("alias")
		if p == nil || alias == nil {
			return nil
		}
		segs := append(clone(prefix), pathSegments(p, content)...)
		return finishImport(segs, alias.Content(content), false)
	case "use_wildcard":
		segs := clone(prefix)
		if node.NamedChildCount() > 0 {
			segs = append(segs, pathSegments(node.NamedChild(0), content)...)
		}
		return finishImport(segs, "", true)
	case "scoped_use_list":
		segs := clone(prefix)
		if p := node.ChildByFieldName("path"); p != nil {
			segs = append(segs, pathSegments(p, content)...)
		}
		list := node.ChildByFieldName("list")
		if list == nil {
			return nil
		}
		return flattenUse(list, content, segs)
	case "use_list":
		var out []Import
		for i := 0; i < int(node.NamedChildCount()); i++ {
			out = append(out, flattenUse(node.NamedChild(i), content, prefix)...)
		}
		return out
	}
	return nil
}

// pathSegments splits a (possibly scoped) path node into raw segments.
func pathSegments(node *sitter.Node, content []byte) []string {
	switch node.Type() {
	case "scoped_identifier":
		var segs []string
		if p := node.ChildByFieldName("path"); p != nil {
			segs = pathSegments(p, content)
		}
		if n := node.ChildByFieldName("name"); n != nil {
			segs = append(segs, n.Content(content))
		}
		return segs
	default:
		return []string{node.Content(content)}
	}
}

// finishImport converts raw segments into an Import, splitting the leading
// anchor segment ("crate", "self", "super") into the path kind. Imports with
// no remaining segments (e.g. a bare `use crate;`) are dropped, as are paths
// with anchors in non-leading position — those never resolve anyway.
func finishImport(raw []string, alias string, glob bool) []Import {
	kind := PathPlain
	segs := raw
	if len(segs) > 0 {
		switch segs[0] {
		case "crate":
			kind, segs = PathCrate, segs[1:]
		case "self":
			kind, segs = PathSelf, segs[1:]
		case "super":
			kind, segs = PathSuper, segs[1:]
		}
	}
	if len(segs) == 0 && !glob {
		return nil
	}
	for _, s := range segs {
		if s == "crate" || s == "self" || s == "super" {
			return nil
		}
	}
	return []Import{{Kind: kind, Segments: segs, Alias: alias, Glob: glob}}
}

func clone(segs []string) []string {
	out := make([]string, len(segs))
	copy(out, segs)
	return out
}

func nodeRange(node *sitter.Node) Range {
	start := node.StartPoint()
	end := node.EndPoint()
	return Range{
		StartLine: int(start.Row),
		StartCol:  int(start.Column),
		EndLine:   int(end.Row),
		EndCol:    int(end.Column),
	}
}
