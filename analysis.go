package analyzer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// ErrCanceled reports that a derived computation observed a newer input
// revision mid-flight and aborted. The partial result must be discarded;
// retry against a fresh snapshot if the query is still relevant. Check with
// errors.Is.
var ErrCanceled = errors.New("analyzer: revision advanced, computation canceled")

// IsCanceled reports whether err is a cancellation outcome.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// AnalysisHost owns the workspace inputs and all memoized derived state.
// It is the session-scoped context object: construct one per workspace,
// pass snapshots around, drop it at session end. Change application is the
// only mutation path and is serialized; reads never block it.
type AnalysisHost struct {
	writeMu sync.Mutex
	state   atomic.Pointer[inputState]
	rev     atomic.Uint64

	defs *interner

	// parsed caches item trees by file content hash; it survives revisions
	// since identical text always yields the identical item tree.
	parseMu sync.Mutex
	parsed  map[[32]byte]*syntax.ItemTree

	// Derived per-root results, keyed by the root's content fingerprint;
	// a matching fingerprint means the cached value is still exact.
	derivedMu sync.Mutex
	trees     map[SourceRootID]cachedTree
	itemMaps  map[SourceRootID]cachedItemMap

	// flight deduplicates concurrent recomputation of the same
	// (computation, key, fingerprint) triple.
	flight singleflight.Group
}

type cachedTree struct {
	fp   [32]byte
	tree *moduleTree
}

type cachedItemMap struct {
	fp [32]byte
	m  *itemMap
}

// NewAnalysisHost returns an empty host at revision zero.
func NewAnalysisHost() *AnalysisHost {
	h := &AnalysisHost{
		defs:     newInterner(),
		parsed:   map[[32]byte]*syntax.ItemTree{},
		trees:    map[SourceRootID]cachedTree{},
		itemMaps: map[SourceRootID]cachedItemMap{},
	}
	h.state.Store(emptyInputState())
	return h
}

// Apply folds a change batch into the inputs and publishes a new revision.
// Snapshots taken before Apply keep their consistent view but their queries
// start reporting ErrCanceled.
func (h *AnalysisHost) Apply(c *Change) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	next := h.state.Load().clone()
	next.revision++
	c.apply(next)
	h.state.Store(next)
	h.rev.Store(next.revision)
}

// Analysis returns a read snapshot pinned to the current revision.
func (h *AnalysisHost) Analysis() *Analysis {
	return &Analysis{host: h, state: h.state.Load()}
}

// Analysis is an immutable view of the workspace at one revision. It is
// safe for concurrent use; all methods either complete against that
// revision or return ErrCanceled once a newer one is published.
type Analysis struct {
	host  *AnalysisHost
	state *inputState
}

// Revision returns the snapshot's revision stamp.
func (a *Analysis) Revision() uint64 { return a.state.revision }

// checkCanceled is the cancellation checkpoint threaded through every
// derived computation: cheap enough to call once per module node visited or
// per path segment resolved.
func (a *Analysis) checkCanceled() error {
	if a.host.rev.Load() != a.state.revision {
		return ErrCanceled
	}
	return nil
}

// FileText returns the current text of a tracked file.
func (a *Analysis) FileText(file FileID) (string, bool) {
	entry, ok := a.state.files[file]
	return entry.text, ok
}

// FilePath returns a file's root-relative path.
func (a *Analysis) FilePath(file FileID) (string, bool) {
	entry, ok := a.state.files[file]
	return entry.path, ok
}

// SourceRootOf returns the source root a file belongs to.
func (a *Analysis) SourceRootOf(file FileID) (SourceRootID, bool) {
	entry, ok := a.state.files[file]
	return entry.root, ok
}

// LocalRoots returns the local (editable) source roots in registration order.
func (a *Analysis) LocalRoots() []SourceRootID {
	return append([]SourceRootID(nil), a.state.localRoots...)
}

// LibraryRoots returns the read-only library roots in registration order.
func (a *Analysis) LibraryRoots() []SourceRootID {
	return append([]SourceRootID(nil), a.state.libraryRoots...)
}

// Crates returns every crate in the crate graph in ID order.
func (a *Analysis) Crates() []Crate {
	ids := a.state.crateGraph.CrateIDs()
	crates := make([]Crate, len(ids))
	for i, id := range ids {
		crates[i] = Crate{a: a, id: id}
	}
	return crates
}

// ModuleForFile returns the module whose definition lives in the given
// file, or nil when the file is not part of any crate's module tree.
func (a *Analysis) ModuleForFile(file FileID) (*Module, error) {
	entry, ok := a.state.files[file]
	if !ok {
		return nil, nil
	}
	tree, err := a.moduleTree(entry.root)
	if err != nil {
		return nil, err
	}
	node, ok := tree.byFile[file]
	if !ok {
		return nil, nil
	}
	m := Module{defRef{a: a, id: a.moduleDef(tree, node)}}
	return &m, nil
}

// itemTree parses a file into its item tree, memoized by content hash.
func (a *Analysis) itemTree(file FileID) (*syntax.ItemTree, error) {
	if err := a.checkCanceled(); err != nil {
		return nil, err
	}
	entry, ok := a.state.files[file]
	if !ok {
		return &syntax.ItemTree{}, nil
	}
	h := a.host
	h.parseMu.Lock()
	tree, hit := h.parsed[entry.hash]
	h.parseMu.Unlock()
	if hit {
		return tree, nil
	}
	key := fmt.Sprintf("parse:%x", entry.hash)
	v, err, _ := h.flight.Do(key, func() (any, error) {
		tree, err := syntax.Parse([]byte(entry.text))
		if err != nil {
			return nil, err
		}
		h.parseMu.Lock()
		h.parsed[entry.hash] = tree
		h.parseMu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*syntax.ItemTree), nil
}

// moduleTree returns the source root's module tree, recomputed wholesale
// whenever any file in the root (or the crate graph) changes.
func (a *Analysis) moduleTree(root SourceRootID) (*moduleTree, error) {
	if err := a.checkCanceled(); err != nil {
		return nil, err
	}
	fp := a.state.rootFingerprint(root)
	h := a.host
	h.derivedMu.Lock()
	cached, hit := h.trees[root]
	h.derivedMu.Unlock()
	if hit && cached.fp == fp {
		return cached.tree, nil
	}
	key := fmt.Sprintf("module-tree:%d:%x", root, fp)
	v, err, _ := h.flight.Do(key, func() (any, error) {
		tree, err := buildModuleTree(a, root)
		if err != nil {
			return nil, err
		}
		h.derivedMu.Lock()
		h.trees[root] = cachedTree{fp: fp, tree: tree}
		h.derivedMu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*moduleTree), nil
}

// itemMapFor returns the source root's aggregated module scopes.
func (a *Analysis) itemMapFor(root SourceRootID) (*itemMap, error) {
	if err := a.checkCanceled(); err != nil {
		return nil, err
	}
	fp := a.state.rootFingerprint(root)
	h := a.host
	h.derivedMu.Lock()
	cached, hit := h.itemMaps[root]
	h.derivedMu.Unlock()
	if hit && cached.fp == fp {
		return cached.m, nil
	}
	key := fmt.Sprintf("item-map:%d:%x", root, fp)
	v, err, _ := h.flight.Do(key, func() (any, error) {
		m, err := buildItemMap(a, root)
		if err != nil {
			return nil, err
		}
		h.derivedMu.Lock()
		h.itemMaps[root] = cachedItemMap{fp: fp, m: m}
		h.derivedMu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*itemMap), nil
}
