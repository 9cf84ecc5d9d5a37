// Package syntax extracts a flat item tree from Rust source files using
// tree-sitter. The item tree is the only view of syntax the semantic core
// consumes: top-level and inline-module items with stable indices, enum
// variant lists, and flattened use declarations.
package syntax

// ItemKind classifies an extracted item.
type ItemKind uint8

const (
	ItemModule    ItemKind = iota // mod foo { ... }
	ItemModDecl                   // mod foo;
	ItemStruct                    // struct, incl. unit and tuple structs
	ItemEnum                      // enum with its variant list
	ItemFunction                  // fn
	ItemConst                     // const
	ItemStatic                    // static
	ItemTrait                     // trait
	ItemTypeAlias                 // type Foo = ...
	ItemUse                       // use declaration, flattened into Imports
	ItemOther                     // named item of an unhandled kind (union, macro_rules, ...)
)

// String returns the lower-case kind name.
func (k ItemKind) String() string {
	switch k {
	case ItemModule:
		return "module"
	case ItemModDecl:
		return "mod-decl"
	case ItemStruct:
		return "struct"
	case ItemEnum:
		return "enum"
	case ItemFunction:
		return "function"
	case ItemConst:
		return "const"
	case ItemStatic:
		return "static"
	case ItemTrait:
		return "trait"
	case ItemTypeAlias:
		return "type-alias"
	case ItemUse:
		return "use"
	default:
		return "item"
	}
}

// Range is a half-open source range with 0-based lines and columns.
type Range struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// PathKind distinguishes how a use path anchors its first segment.
type PathKind uint8

const (
	PathPlain PathKind = iota // foo::bar
	PathCrate                 // crate::foo
	PathSelf                  // self::foo
	PathSuper                 // super::foo
)

// Import is one name introduced by a use declaration. A single declaration
// with a use list expands into several Imports.
type Import struct {
	Kind     PathKind
	Segments []string
	Alias    string // local name override from `as`; empty means last segment
	Glob     bool   // `use path::*`
}

// LocalName returns the name the import binds in the module scope.
// Undefined for glob imports.
func (im Import) LocalName() string {
	if im.Alias != "" {
		return im.Alias
	}
	if len(im.Segments) == 0 {
		return ""
	}
	return im.Segments[len(im.Segments)-1]
}

// Item is one extracted declaration. Items are stored pre-order in the
// ItemTree, so an item's index is stable for identical file content.
type Item struct {
	Kind      ItemKind
	Name      string // empty for ItemUse
	Parent    int32  // index of the enclosing inline module item, -1 at file top level
	Range     Range  // the whole item
	NameRange Range  // just the name token, for diagnostics and navigation

	Variants      []string // ItemEnum only, in declaration order
	VariantRanges []Range  // name ranges parallel to Variants
	Imports       []Import // ItemUse only
}

// ItemTree is the flat, ordered item list for one file.
type ItemTree struct {
	Items []Item
}

// TopLevel reports the indices of items directly owned by the module with
// the given mod item index. Pass -1 for the file's top level.
func (t *ItemTree) TopLevel(parent int32) []int32 {
	var out []int32
	for i := range t.Items {
		if t.Items[i].Parent == parent {
			out = append(out, int32(i))
		}
	}
	return out
}
