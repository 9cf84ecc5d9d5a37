package analyzer

import "github.com/max-frai/rust-analyzer/internal/syntax"

// maxImportPasses bounds the import-resolution fixpoint. The merge is
// monotone so the loop converges long before this in practice; the cap is a
// hard stop for pathological cyclic glob graphs.
const maxImportPasses = 100

type scopeEntry struct {
	def   perNs
	local bool // introduced by a declaration, not an import
}

type moduleScopeData map[string]scopeEntry

// itemMap holds the aggregated per-module scopes for one source root,
// indexed by module node. Computed in one pass over the whole root so the
// import fixpoint is amortized across modules.
type itemMap struct {
	scopes []moduleScopeData
}

func (m *itemMap) get(module int32, name string) (perNs, bool) {
	e, ok := m.scopes[module][name]
	if !ok {
		return perNsNone(), false
	}
	return e.def, true
}

type importDirective struct {
	module int32
	im     syntax.Import
}

// buildItemMap computes every module scope in the source root: local
// declarations first, then imports resolved to a fixpoint. Entries that
// remain unresolved after the fixpoint are simply absent.
func buildItemMap(a *Analysis, rootID SourceRootID) (*itemMap, error) {
	tree, err := a.moduleTree(rootID)
	if err != nil {
		return nil, err
	}
	m := &itemMap{scopes: make([]moduleScopeData, len(tree.nodes))}

	var directives []importDirective
	for idx := range tree.nodes {
		if err := a.checkCanceled(); err != nil {
			return nil, err
		}
		scope := moduleScopeData{}
		node := &tree.nodes[idx]

		for _, l := range node.children {
			declareLocal(scope, l.name, perNsTypes(a.moduleDef(tree, l.module)))
		}

		items, err := a.itemTree(node.source.file)
		if err != nil {
			return nil, err
		}
		for _, itemIdx := range items.TopLevel(node.source.item) {
			item := items.Items[itemIdx]
			switch item.Kind {
			case syntax.ItemModule, syntax.ItemModDecl:
				// child links above already cover modules
			case syntax.ItemUse:
				for _, im := range item.Imports {
					directives = append(directives, importDirective{module: int32(idx), im: im})
				}
			default:
				kind := defKindForItem(item.Kind)
				id := a.host.defs.intern(defLoc{
					kind:   kind,
					root:   rootID,
					module: int32(idx),
					item:   sourceItemID{file: node.source.file, item: itemIdx},
				})
				declareLocal(scope, item.Name, perNsForKind(kind, id))
			}
		}
		m.scopes[idx] = scope
	}

	// Import fixpoint: repeatedly resolve what is resolvable against the
	// scopes built so far. The merge only ever fills empty slots, so each
	// pass is monotone and the loop stops when a full pass changes nothing.
	lookup := m.get
	for pass := 0; pass < maxImportPasses; pass++ {
		if err := a.checkCanceled(); err != nil {
			return nil, err
		}
		changed := false
		for _, d := range directives {
			p := pathFromImport(d.im)
			if d.im.Glob {
				ok, err := a.mergeGlob(tree, m, lookup, d, p)
				if err != nil {
					return nil, err
				}
				changed = changed || ok
				continue
			}
			per, err := a.resolvePathIn(tree, lookup, d.module, p)
			if err != nil {
				return nil, err
			}
			if per.isNone() {
				continue
			}
			if mergeImported(m.scopes[d.module], d.im.LocalName(), per) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return m, nil
}

// mergeGlob imports every visible name of the glob's target module.
// Non-module targets contribute nothing.
func (a *Analysis) mergeGlob(tree *moduleTree, m *itemMap, lookup scopeFn, d importDirective, p Path) (bool, error) {
	per, err := a.resolvePathIn(tree, lookup, d.module, p)
	if err != nil {
		return false, err
	}
	if per.types == noDef {
		return false, nil
	}
	loc := a.host.defs.lookup(per.types)
	if loc.kind != DefKindModule {
		return false, nil
	}
	changed := false
	for name, entry := range m.scopes[loc.module] {
		if mergeImported(m.scopes[d.module], name, entry.def) {
			changed = true
		}
	}
	return changed, nil
}

// declareLocal records a declaration, merging namespaces when a module
// declares two items of the same spelling in different namespaces.
func declareLocal(scope moduleScopeData, name string, per perNs) {
	e := scope[name]
	if per.types != noDef {
		e.def.types = per.types
	}
	if per.values != noDef {
		e.def.values = per.values
	}
	e.local = true
	scope[name] = e
}

// mergeImported folds an imported name into a scope. A local declaration
// wins outright over any import of the same spelling; between imports, the
// first resolution to land in a slot keeps it.
func mergeImported(scope moduleScopeData, name string, per perNs) bool {
	e, ok := scope[name]
	if ok && e.local {
		return false
	}
	changed := false
	if e.def.types == noDef && per.types != noDef {
		e.def.types = per.types
		changed = true
	}
	if e.def.values == noDef && per.values != noDef {
		e.def.values = per.values
		changed = true
	}
	if changed {
		scope[name] = e
	}
	return changed
}

// perNsForKind places a definition in its namespaces: types for type-like
// kinds, values for value-like ones, both for enum variants.
func perNsForKind(kind DefKind, id defID) perNs {
	switch kind {
	case DefKindFunction, DefKindConst, DefKindStatic:
		return perNsValues(id)
	case DefKindEnumVariant:
		return perNsBoth(id, id)
	default:
		return perNsTypes(id)
	}
}
