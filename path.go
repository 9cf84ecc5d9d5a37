package analyzer

import (
	"fmt"
	"strings"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// PathKind says how a path anchors its first segment.
type PathKind uint8

const (
	// PathPlain resolves the first segment in the starting module's scope.
	PathPlain PathKind = iota
	// PathCrate starts from the source root's crate-root module.
	PathCrate
	// PathSelf starts from the starting module itself.
	PathSelf
	// PathSuper starts from the starting module's parent.
	PathSuper
)

// Path is a structured item path: an anchor kind plus ordered name segments.
type Path struct {
	Kind     PathKind
	Segments []string
}

// ParsePath parses a `::`-separated path string such as "crate::foo::Bar",
// "self::x", "super::y" or "a::b". Anchors are only recognized in leading
// position; empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("parse path: empty path")
	}
	segs := strings.Split(s, "::")
	p := Path{Kind: PathPlain}
	switch segs[0] {
	case "crate":
		p.Kind, segs = PathCrate, segs[1:]
	case "self":
		p.Kind, segs = PathSelf, segs[1:]
	case "super":
		p.Kind, segs = PathSuper, segs[1:]
	}
	for _, seg := range segs {
		if seg == "" {
			return Path{}, fmt.Errorf("parse path %q: empty segment", s)
		}
		if seg == "crate" || seg == "self" || seg == "super" {
			return Path{}, fmt.Errorf("parse path %q: %q not in leading position", s, seg)
		}
	}
	p.Segments = segs
	return p, nil
}

// MustParsePath is ParsePath for statically known paths; it panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func pathFromImport(im syntax.Import) Path {
	kind := PathPlain
	switch im.Kind {
	case syntax.PathCrate:
		kind = PathCrate
	case syntax.PathSelf:
		kind = PathSelf
	case syntax.PathSuper:
		kind = PathSuper
	}
	return Path{Kind: kind, Segments: im.Segments}
}

// scopeFn looks a name up in a module's scope. The aggregator passes its
// in-progress scopes during the import fixpoint; public resolution passes
// the frozen item map.
type scopeFn func(module int32, name string) (perNs, bool)

// resolvePathIn runs the shared segment loop against one source root's
// module tree. Failure is always the empty pair, never an error; the only
// error returned is ErrCanceled.
func (a *Analysis) resolvePathIn(tree *moduleTree, scope scopeFn, from int32, p Path) (perNs, error) {
	var start int32
	switch p.Kind {
	case PathCrate:
		start = tree.crateRoot(from)
	case PathSelf, PathPlain:
		start = from
	case PathSuper:
		parent := tree.nodes[from].parent
		if parent < 0 {
			return perNsNone(), nil
		}
		start = parent
	}
	cur := perNsTypes(a.moduleDef(tree, start))

	for i, seg := range p.Segments {
		if err := a.checkCanceled(); err != nil {
			return perNsNone(), err
		}
		if cur.types == noDef {
			return perNsNone(), nil
		}
		loc := a.host.defs.lookup(cur.types)
		switch loc.kind {
		case DefKindModule:
			next, ok := scope(loc.module, seg)
			if !ok {
				return perNsNone(), nil
			}
			cur = next
		case DefKindEnum:
			if i != len(p.Segments)-1 {
				return perNsNone(), nil
			}
			// Trailing segment on an enum names a variant, which is
			// simultaneously type-like (pattern) and value-like
			// (constructor): both slots get the variant handle.
			variants, err := a.enumVariantNames(loc)
			if err != nil {
				return perNsNone(), err
			}
			for ord, vname := range variants {
				if vname == seg {
					v := a.host.defs.intern(defLoc{
						kind:    DefKindEnumVariant,
						root:    loc.root,
						module:  loc.module,
						item:    loc.item,
						variant: int32(ord),
					})
					return perNsBoth(v, v), nil
				}
			}
			return perNsNone(), nil
		default:
			return perNsNone(), nil
		}
	}
	return cur, nil
}

// enumVariantNames reads an enum's variant names from its item tree.
func (a *Analysis) enumVariantNames(loc defLoc) ([]string, error) {
	items, err := a.itemTree(loc.item.file)
	if err != nil {
		return nil, err
	}
	if loc.item.item < 0 || int(loc.item.item) >= len(items.Items) {
		return nil, nil
	}
	return items.Items[loc.item.item].Variants, nil
}

// moduleDef interns the module definition handle for a tree node.
func (a *Analysis) moduleDef(tree *moduleTree, node int32) defID {
	n := tree.nodes[node]
	return a.host.defs.intern(defLoc{
		kind:   DefKindModule,
		root:   tree.rootID,
		module: node,
		item:   n.source,
	})
}
