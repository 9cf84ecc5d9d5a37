package analyzer

import (
	"fmt"
	"sort"

	"lukechampine.com/blake3"
)

// FileID identifies one file across the whole workspace. IDs are assigned by
// the embedder (the workspace loader); the core never invents them.
type FileID uint32

// SourceRootID identifies a source root: a set of files treated as one
// resolution unit, either local (editable) or a read-only library.
type SourceRootID uint32

// CrateID identifies a crate in the crate graph.
type CrateID uint32

// fileEntry is the tracked state for one file.
type fileEntry struct {
	text string
	hash [32]byte // blake3 of text
	root SourceRootID
	path string // root-relative, slash-separated
}

// sourceRoot is the per-root file listing.
type sourceRoot struct {
	local bool
	files map[string]FileID // relative path -> file
}

func (r *sourceRoot) clone() *sourceRoot {
	files := make(map[string]FileID, len(r.files))
	for p, id := range r.files {
		files[p] = id
	}
	return &sourceRoot{local: r.local, files: files}
}

// inputState is one immutable snapshot of all inputs. Apply builds a new
// state from the previous one and swaps it in atomically; readers holding an
// old state keep a fully consistent view.
type inputState struct {
	revision     uint64
	files        map[FileID]fileEntry
	roots        map[SourceRootID]*sourceRoot
	localRoots   []SourceRootID
	libraryRoots []SourceRootID
	libIndices   map[SourceRootID]*SymbolIndex
	crateGraph   *CrateGraph
}

func emptyInputState() *inputState {
	return &inputState{
		files:      map[FileID]fileEntry{},
		roots:      map[SourceRootID]*sourceRoot{},
		libIndices: map[SourceRootID]*SymbolIndex{},
		crateGraph: NewCrateGraph(),
	}
}

func (s *inputState) clone() *inputState {
	next := &inputState{
		revision:     s.revision,
		files:        make(map[FileID]fileEntry, len(s.files)),
		roots:        make(map[SourceRootID]*sourceRoot, len(s.roots)),
		localRoots:   append([]SourceRootID(nil), s.localRoots...),
		libraryRoots: append([]SourceRootID(nil), s.libraryRoots...),
		libIndices:   make(map[SourceRootID]*SymbolIndex, len(s.libIndices)),
		crateGraph:   s.crateGraph,
	}
	for id, f := range s.files {
		next.files[id] = f
	}
	for id, r := range s.roots {
		next.roots[id] = r.clone()
	}
	for id, idx := range s.libIndices {
		next.libIndices[id] = idx
	}
	return next
}

// rootFingerprint digests everything a source root's derived results depend
// on: the sorted (path, content hash) listing plus the crate graph. Derived
// caches are keyed by this digest, so byte-identical inputs reuse cached
// module trees and item maps across revisions.
func (s *inputState) rootFingerprint(id SourceRootID) [32]byte {
	h := blake3.New(32, nil)
	root, ok := s.roots[id]
	if !ok {
		return digest32(h)
	}
	paths := make([]string, 0, len(root.files))
	for p := range root.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		entry := s.files[root.files[p]]
		fmt.Fprintf(h, "%s\x00%d\x00", p, root.files[p])
		h.Write(entry.hash[:])
	}
	s.crateGraph.digest(h)
	return digest32(h)
}

func digest32(h *blake3.Hasher) [32]byte {
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CrateDependencyEdge is one edge in the crate graph: the dependency crate
// and the name it is imported under.
type CrateDependencyEdge struct {
	Crate CrateID
	Name  string
}

type crateData struct {
	rootFile FileID
	deps     []CrateDependencyEdge
}

// CrateGraph maps crates to their root files and ordered dependency edges.
// It is built by the embedder and installed wholesale via
// [Change.SetCrateGraph]; the core never patches it in place.
type CrateGraph struct {
	crates map[CrateID]*crateData
	next   CrateID
}

// NewCrateGraph returns an empty crate graph.
func NewCrateGraph() *CrateGraph {
	return &CrateGraph{crates: map[CrateID]*crateData{}}
}

// AddCrate registers a crate with the given root file and returns its ID.
func (g *CrateGraph) AddCrate(rootFile FileID) CrateID {
	id := g.next
	g.next++
	g.crates[id] = &crateData{rootFile: rootFile}
	return id
}

// AddDependency adds an edge from -> to under the given import name.
// It rejects edges that would close a dependency cycle.
func (g *CrateGraph) AddDependency(from CrateID, name string, to CrateID) error {
	if _, ok := g.crates[from]; !ok {
		return fmt.Errorf("crate graph: unknown crate %d", from)
	}
	if _, ok := g.crates[to]; !ok {
		return fmt.Errorf("crate graph: unknown crate %d", to)
	}
	if g.reaches(to, from) {
		return fmt.Errorf("crate graph: dependency %d -> %d would create a cycle", from, to)
	}
	c := g.crates[from]
	c.deps = append(c.deps, CrateDependencyEdge{Crate: to, Name: name})
	return nil
}

// reaches reports whether from can reach target along dependency edges.
func (g *CrateGraph) reaches(from, target CrateID) bool {
	if from == target {
		return true
	}
	for _, dep := range g.crates[from].deps {
		if g.reaches(dep.Crate, target) {
			return true
		}
	}
	return false
}

// RootFile returns the crate's root file.
func (g *CrateGraph) RootFile(id CrateID) (FileID, bool) {
	c, ok := g.crates[id]
	if !ok {
		return 0, false
	}
	return c.rootFile, true
}

// Dependencies returns the crate's ordered dependency edges.
func (g *CrateGraph) Dependencies(id CrateID) []CrateDependencyEdge {
	c, ok := g.crates[id]
	if !ok {
		return nil
	}
	return append([]CrateDependencyEdge(nil), c.deps...)
}

// CrateIDs returns all crate IDs in ascending order.
func (g *CrateGraph) CrateIDs() []CrateID {
	ids := make([]CrateID, 0, len(g.crates))
	for id := range g.crates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// crateForRootFile finds the crate whose root file is the given file.
// When several crates share a root file, the lowest ID wins.
func (g *CrateGraph) crateForRootFile(file FileID) (CrateID, bool) {
	found := false
	var best CrateID
	for id, c := range g.crates {
		if c.rootFile == file && (!found || id < best) {
			best, found = id, true
		}
	}
	return best, found
}

// digest writes a deterministic encoding of the graph into h.
func (g *CrateGraph) digest(h *blake3.Hasher) {
	for _, id := range g.CrateIDs() {
		c := g.crates[id]
		fmt.Fprintf(h, "crate\x00%d\x00%d\x00", id, c.rootFile)
		for _, dep := range c.deps {
			fmt.Fprintf(h, "dep\x00%d\x00%s\x00", dep.Crate, dep.Name)
		}
	}
}

func hashText(text string) [32]byte {
	return blake3.Sum256([]byte(text))
}
