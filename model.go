package analyzer

import (
	"sort"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// Range is a half-open source range with 0-based lines and columns. The
// zero value stands for "the whole file" on file-backed definitions.
type Range struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

func rangeFromSyntax(r syntax.Range) Range {
	return Range{StartLine: r.StartLine, StartCol: r.StartCol, EndLine: r.EndLine, EndCol: r.EndCol}
}

// Location is a (file, range) pair suitable for display or jump-to.
type Location struct {
	File  FileID
	Path  string // root-relative path of File
	Range Range
}

func (a *Analysis) location(file FileID, r Range) Location {
	path, _ := a.FilePath(file)
	return Location{File: file, Path: path, Range: r}
}

// Source returns where the definition's syntax lives. For file-backed
// modules the range is the whole file; for everything else it is the name
// token of the defining item.
func (d defRef) Source() (Location, error) {
	a := d.a
	if err := a.checkCanceled(); err != nil {
		return Location{}, err
	}
	loc := a.host.defs.lookup(d.id)
	if loc.item.item < 0 {
		return a.location(loc.item.file, Range{}), nil
	}
	items, err := a.itemTree(loc.item.file)
	if err != nil {
		return Location{}, err
	}
	item := items.Items[loc.item.item]
	if loc.kind == DefKindEnumVariant && int(loc.variant) < len(item.VariantRanges) {
		return a.location(loc.item.file, rangeFromSyntax(item.VariantRanges[loc.variant])), nil
	}
	return a.location(loc.item.file, rangeFromSyntax(item.NameRange)), nil
}

// Name returns the definition's declared name. Enum variants return the
// variant name, not the enum's.
func (d defRef) Name() (string, error) {
	a := d.a
	if err := a.checkCanceled(); err != nil {
		return "", err
	}
	loc := a.host.defs.lookup(d.id)
	if loc.item.item < 0 {
		return "", nil
	}
	items, err := a.itemTree(loc.item.file)
	if err != nil {
		return "", err
	}
	item := items.Items[loc.item.item]
	if loc.kind == DefKindEnumVariant {
		if int(loc.variant) < len(item.Variants) {
			return item.Variants[loc.variant], nil
		}
		return "", nil
	}
	return item.Name, nil
}

// tree returns the module tree owning this definition.
func (d defRef) tree() (*moduleTree, defLoc, error) {
	loc := d.a.host.defs.lookup(d.id)
	tree, err := d.a.moduleTree(loc.root)
	if err != nil {
		return nil, defLoc{}, err
	}
	return tree, loc, nil
}

// Name returns the module's declared name, empty for a crate root.
func (m Module) Name() (string, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return "", err
	}
	return tree.nodes[loc.module].name, nil
}

// DefinitionSource returns the file (and, for inline modules, item range)
// that defines this module's body.
func (m Module) DefinitionSource() (Location, error) {
	return m.defRef.Source()
}

// DeclarationSource returns the `mod` item declaring this module, nil for a
// crate root.
func (m Module) DeclarationSource() (*Location, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	node := tree.nodes[loc.module]
	if node.parent < 0 {
		return nil, nil
	}
	items, err := m.a.itemTree(node.declFile)
	if err != nil {
		return nil, err
	}
	l := m.a.location(node.declFile, rangeFromSyntax(items.Items[node.declItem].Range))
	return &l, nil
}

// Krate returns the crate this module belongs to, nil when its crate-root
// file is not registered in the crate graph.
func (m Module) Krate() (*Crate, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	rootFile := tree.nodes[tree.crateRoot(loc.module)].source.file
	id, ok := m.a.state.crateGraph.crateForRootFile(rootFile)
	if !ok {
		return nil, nil
	}
	return &Crate{a: m.a, id: id}, nil
}

// CrateRoot returns the topmost ancestor of this module.
func (m Module) CrateRoot() (Module, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return Module{}, err
	}
	root := tree.crateRoot(loc.module)
	return Module{defRef{a: m.a, id: m.a.moduleDef(tree, root)}}, nil
}

// Child finds a direct child module by name, nil if absent.
func (m Module) Child(name string) (*Module, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	node, ok := tree.child(loc.module, name)
	if !ok {
		return nil, nil
	}
	child := Module{defRef{a: m.a, id: m.a.moduleDef(tree, node)}}
	return &child, nil
}

// Children returns all child modules in declaration order.
func (m Module) Children() ([]Module, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	links := tree.nodes[loc.module].children
	out := make([]Module, 0, len(links))
	for _, l := range links {
		out = append(out, Module{defRef{a: m.a, id: m.a.moduleDef(tree, l.module)}})
	}
	return out, nil
}

// Parent returns the declaring module, nil for a crate root.
func (m Module) Parent() (*Module, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	parent := tree.nodes[loc.module].parent
	if parent < 0 {
		return nil, nil
	}
	p := Module{defRef{a: m.a, id: m.a.moduleDef(tree, parent)}}
	return &p, nil
}

// PathToRoot returns the ancestor chain starting at this module and ending
// at the crate root.
func (m Module) PathToRoot() ([]Module, error) {
	out := []Module{m}
	cur := m
	for {
		parent, err := cur.Parent()
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return out, nil
		}
		out = append(out, *parent)
		cur = *parent
	}
}

// Scope returns the set of names visible in this module: local declarations
// plus resolved imports.
func (m Module) Scope() (ModuleScope, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return ModuleScope{}, err
	}
	im, err := m.a.itemMapFor(tree.rootID)
	if err != nil {
		return ModuleScope{}, err
	}
	return ModuleScope{a: m.a, entries: im.scopes[loc.module]}, nil
}

// ResolvePath resolves a structured path against this module. Failure to
// resolve is an empty PerNs, never an error.
func (m Module) ResolvePath(p Path) (PerNs, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return PerNs{}, err
	}
	im, err := m.a.itemMapFor(tree.rootID)
	if err != nil {
		return PerNs{}, err
	}
	per, err := m.a.resolvePathIn(tree, im.get, loc.module, p)
	if err != nil {
		return PerNs{}, err
	}
	return m.a.wrapPerNs(per), nil
}

// Problems returns the structural layout problems attached to this module.
func (m Module) Problems() ([]Problem, error) {
	tree, loc, err := m.tree()
	if err != nil {
		return nil, err
	}
	return append([]Problem(nil), tree.nodes[loc.module].problems...), nil
}

// ModuleScope is the frozen name -> namespace-pair view of one module.
type ModuleScope struct {
	a       *Analysis
	entries moduleScopeData
}

// Get looks up a visible name.
func (s ModuleScope) Get(name string) (PerNs, bool) {
	e, ok := s.entries[name]
	if !ok {
		return PerNs{}, false
	}
	return s.a.wrapPerNs(e.def), true
}

// Names returns all visible names sorted.
func (s ModuleScope) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of visible names.
func (s ModuleScope) Len() int { return len(s.entries) }

// Variants returns the enum's variants in declaration order.
func (e Enum) Variants() ([]EnumVariant, error) {
	a := e.a
	if err := a.checkCanceled(); err != nil {
		return nil, err
	}
	loc := a.host.defs.lookup(e.id)
	names, err := a.enumVariantNames(loc)
	if err != nil {
		return nil, err
	}
	out := make([]EnumVariant, len(names))
	for ord := range names {
		id := a.host.defs.intern(defLoc{
			kind:    DefKindEnumVariant,
			root:    loc.root,
			module:  loc.module,
			item:    loc.item,
			variant: int32(ord),
		})
		out[ord] = EnumVariant{defRef{a: a, id: id}}
	}
	return out, nil
}

// ParentEnum returns the enum this variant belongs to.
func (v EnumVariant) ParentEnum() (Enum, error) {
	a := v.a
	loc := a.host.defs.lookup(v.id)
	id := a.host.defs.intern(defLoc{
		kind:   DefKindEnum,
		root:   loc.root,
		module: loc.module,
		item:   loc.item,
	})
	return Enum{defRef{a: a, id: id}}, nil
}

// Crate is a handle on one crate of the crate graph.
type Crate struct {
	a  *Analysis
	id CrateID
}

// CrateDependency pairs a dependency crate with its declared import name.
type CrateDependency struct {
	Crate Crate
	Name  string
}

// ID returns the crate's graph identifier.
func (c Crate) ID() CrateID { return c.id }

// Dependencies returns the crate's ordered dependency edges.
func (c Crate) Dependencies() ([]CrateDependency, error) {
	if err := c.a.checkCanceled(); err != nil {
		return nil, err
	}
	edges := c.a.state.crateGraph.Dependencies(c.id)
	out := make([]CrateDependency, len(edges))
	for i, e := range edges {
		out[i] = CrateDependency{Crate: Crate{a: c.a, id: e.Crate}, Name: e.Name}
	}
	return out, nil
}

// RootModule returns the crate's root module, nil when the root file is not
// part of any tracked source root.
func (c Crate) RootModule() (*Module, error) {
	file, ok := c.a.state.crateGraph.RootFile(c.id)
	if !ok {
		return nil, nil
	}
	entry, ok := c.a.state.files[file]
	if !ok {
		return nil, nil
	}
	tree, err := c.a.moduleTree(entry.root)
	if err != nil {
		return nil, err
	}
	node, ok := tree.roots[file]
	if !ok {
		return nil, nil
	}
	m := Module{defRef{a: c.a, id: c.a.moduleDef(tree, node)}}
	return &m, nil
}
