package analyzer

import (
	"path"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// ProblemKind is the closed set of recoverable module-layout problems.
type ProblemKind uint8

const (
	// ProblemUnresolvedModule: a `mod foo;` declaration with no candidate
	// file. Candidate holds the path the file is expected at.
	ProblemUnresolvedModule ProblemKind = iota
	// ProblemNotDirOwner: a `mod foo;` declaration in a file that cannot
	// host child-module files at its current location. MoveTo holds where
	// the declaring file would have to move; Candidate the child file to
	// create relative to the new directory.
	ProblemNotDirOwner
)

// Problem is a structural module-layout issue attached to the declaring
// module node. Problems are ordinary data: tree construction continues
// around them and diagnostics features turn them into user-facing messages.
type Problem struct {
	Kind      ProblemKind
	Candidate string
	MoveTo    string // ProblemNotDirOwner only
	File      FileID // file containing the declaration
	Range     Range  // range of the declaring `mod` item's name
}

type childLink struct {
	name   string
	module int32
	// declaration site, for Module.DeclarationSource.
	declFile FileID
	declItem int32
}

type moduleNode struct {
	// source is the node's definition site: (file, -1) for a file-backed
	// module, (file, mod-item index) for an inline one.
	source sourceItemID
	parent int32 // node index, -1 for a crate root

	// parent link data; zero values for a crate root.
	name     string
	declFile FileID
	declItem int32

	children []childLink
	problems []Problem
}

// moduleTree is the per-source-root module hierarchy. Node indices are
// deterministic: the builder walks crates in ID order and declarations in
// item order, so byte-identical inputs reproduce identical indices.
type moduleTree struct {
	rootID SourceRootID
	nodes  []moduleNode
	// roots maps crate-root files in this source root to their tree roots.
	roots map[FileID]int32
	// byFile maps each file-backed module's file to its node.
	byFile map[FileID]int32
}

func (t *moduleTree) crateRoot(node int32) int32 {
	for t.nodes[node].parent >= 0 {
		node = t.nodes[node].parent
	}
	return node
}

// buildModuleTree derives the module forest for one source root from the
// crate graph and `mod` declarations. Unresolvable declarations attach a
// Problem to the declaring node and construction continues best-effort.
func buildModuleTree(a *Analysis, rootID SourceRootID) (*moduleTree, error) {
	t := &moduleTree{
		rootID: rootID,
		roots:  map[FileID]int32{},
		byFile: map[FileID]int32{},
	}
	root, ok := a.state.roots[rootID]
	if !ok {
		return t, nil
	}
	graph := a.state.crateGraph
	for _, crateID := range graph.CrateIDs() {
		file, _ := graph.RootFile(crateID)
		entry, tracked := a.state.files[file]
		if !tracked || entry.root != rootID {
			continue
		}
		if _, seen := t.roots[file]; seen {
			continue // two crates sharing a root file share the tree
		}
		node := t.addNode(moduleNode{source: sourceItemID{file: file, item: -1}, parent: -1})
		t.roots[file] = node
		t.byFile[file] = node
		if err := t.populate(a, root, node); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *moduleTree) addNode(n moduleNode) int32 {
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// populate expands one node's `mod` declarations into child links,
// recursing depth-first in declaration order.
func (t *moduleTree) populate(a *Analysis, root *sourceRoot, node int32) error {
	// Checkpoint once per module node visited.
	if err := a.checkCanceled(); err != nil {
		return err
	}
	src := t.nodes[node].source
	items, err := a.itemTree(src.file)
	if err != nil {
		return err
	}
	for _, idx := range items.TopLevel(src.item) {
		item := items.Items[idx]
		switch item.Kind {
		case syntax.ItemModule:
			child := t.addNode(moduleNode{
				source:   sourceItemID{file: src.file, item: idx},
				parent:   node,
				name:     item.Name,
				declFile: src.file,
				declItem: idx,
			})
			t.link(node, childLink{name: item.Name, module: child, declFile: src.file, declItem: idx})
			if err := t.populate(a, root, child); err != nil {
				return err
			}
		case syntax.ItemModDecl:
			if err := t.resolveDeclaration(a, root, node, idx, item.Name, src.file, rangeFromSyntax(item.NameRange)); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveDeclaration finds the file backing a `mod name;` declaration
// following the fixed layout convention: name.rs or name/mod.rs under the
// declaring module's directory. The declaring file must be a directory owner
// (mod.rs or a crate root); inline-module ancestors each add one directory
// level, so `mod a { mod b; }` in lib.rs looks for a/b.rs.
func (t *moduleTree) resolveDeclaration(a *Analysis, root *sourceRoot, node, declItem int32, name string, declFile FileID, declRange Range) error {
	declPath := a.state.files[declFile].path
	dir := path.Dir(declPath)
	if dir == "." {
		dir = ""
	}
	base := path.Base(declPath)
	for _, inline := range t.inlinePrefix(node) {
		dir = path.Join(dir, inline)
	}

	if !isDirOwner(base, t.nodes[t.crateRoot(node)].source.file == declFile) {
		stem := trimRS(base)
		t.nodes[node].problems = append(t.nodes[node].problems, Problem{
			Kind:      ProblemNotDirOwner,
			Candidate: name + ".rs",
			MoveTo:    path.Join(path.Dir(declPath), stem, "mod.rs"),
			File:      declFile,
			Range:     declRange,
		})
		return nil
	}

	fileMod := path.Join(dir, name+".rs")
	dirMod := path.Join(dir, name, "mod.rs")
	var target FileID
	found := false
	for _, candidate := range []string{fileMod, dirMod} {
		if f, ok := root.files[candidate]; ok {
			target, found = f, true
			break
		}
	}
	if !found {
		t.nodes[node].problems = append(t.nodes[node].problems, Problem{
			Kind:      ProblemUnresolvedModule,
			Candidate: fileMod,
			File:      declFile,
			Range:     declRange,
		})
		return nil
	}

	// A file is claimed by its first declaration; later declarations link
	// to the existing node without reparenting, which also breaks cycles
	// of mutually declaring files.
	if existing, ok := t.byFile[target]; ok {
		t.link(node, childLink{name: name, module: existing, declFile: declFile, declItem: declItem})
		return nil
	}
	child := t.addNode(moduleNode{
		source:   sourceItemID{file: target, item: -1},
		parent:   node,
		name:     name,
		declFile: declFile,
		declItem: declItem,
	})
	t.byFile[target] = child
	t.link(node, childLink{name: name, module: child, declFile: declFile, declItem: declItem})
	return t.populate(a, root, child)
}

// inlinePrefix returns the names of the inline-module ancestors of node,
// outermost first, up to and including node itself. Empty for a file-backed
// module.
func (t *moduleTree) inlinePrefix(node int32) []string {
	var names []string
	for n := node; t.nodes[n].source.item >= 0; n = t.nodes[n].parent {
		names = append([]string{t.nodes[n].name}, names...)
	}
	return names
}

func (t *moduleTree) link(parent int32, l childLink) {
	t.nodes[parent].children = append(t.nodes[parent].children, l)
}

func (t *moduleTree) child(node int32, name string) (int32, bool) {
	for _, l := range t.nodes[node].children {
		if l.name == name {
			return l.module, true
		}
	}
	return 0, false
}

// isDirOwner reports whether a file may host child-module files in its own
// directory: mod.rs, the conventional crate roots, or the actual crate root.
func isDirOwner(base string, isCrateRoot bool) bool {
	return base == "mod.rs" || base == "lib.rs" || base == "main.rs" || isCrateRoot
}

func trimRS(base string) string {
	if len(base) > 3 && base[len(base)-3:] == ".rs" {
		return base[:len(base)-3]
	}
	return base
}
