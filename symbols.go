package analyzer

import (
	"sort"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// IndexSymbol is one entry of a precomputed library symbol index.
type IndexSymbol struct {
	Name  string
	Kind  string
	File  FileID
	Range Range
}

// SymbolIndex is the precomputed name index supplied alongside a library
// root, so library content is never re-scanned by the core. Immutable after
// construction.
type SymbolIndex struct {
	byName map[string][]IndexSymbol
	count  int
}

// NewSymbolIndex builds an index from its entries.
func NewSymbolIndex(symbols []IndexSymbol) *SymbolIndex {
	idx := &SymbolIndex{byName: map[string][]IndexSymbol{}, count: len(symbols)}
	for _, s := range symbols {
		idx.byName[s.Name] = append(idx.byName[s.Name], s)
	}
	return idx
}

// Lookup returns all index entries with the exact name.
func (x *SymbolIndex) Lookup(name string) []IndexSymbol {
	return append([]IndexSymbol(nil), x.byName[name]...)
}

// Len returns the number of indexed symbols.
func (x *SymbolIndex) Len() int { return x.count }

// SymbolHit is one workspace symbol match.
type SymbolHit struct {
	Name     string
	Kind     string
	Location Location
	Library  bool // found via a library index rather than local files
}

// Symbols finds definitions with the exact given name across the workspace:
// local roots are scanned through their (cached) item trees, library roots
// answer from their precomputed indices. Ranking and fuzzy matching are a
// presentation concern and live above this core.
func (a *Analysis) Symbols(name string) ([]SymbolHit, error) {
	var hits []SymbolHit
	for _, rootID := range a.state.localRoots {
		root := a.state.roots[rootID]
		paths := make([]string, 0, len(root.files))
		for p := range root.files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			if err := a.checkCanceled(); err != nil {
				return nil, err
			}
			file := root.files[p]
			items, err := a.itemTree(file)
			if err != nil {
				return nil, err
			}
			for _, item := range items.Items {
				if item.Kind == syntax.ItemUse || item.Name != name {
					continue
				}
				hits = append(hits, SymbolHit{
					Name:     item.Name,
					Kind:     item.Kind.String(),
					Location: a.location(file, rangeFromSyntax(item.NameRange)),
				})
			}
		}
	}
	for _, rootID := range a.state.libraryRoots {
		if err := a.checkCanceled(); err != nil {
			return nil, err
		}
		idx, ok := a.state.libIndices[rootID]
		if !ok {
			continue
		}
		for _, s := range idx.Lookup(name) {
			hits = append(hits, SymbolHit{
				Name:     s.Name,
				Kind:     s.Kind,
				Location: a.location(s.File, s.Range),
				Library:  true,
			})
		}
	}
	return hits, nil
}
