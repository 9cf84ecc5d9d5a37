package analyzer

// AddedFile describes one file introduced by a change batch.
type AddedFile struct {
	File FileID
	Path string // root-relative, slash-separated
	Text string
}

// RemovedFile describes one file dropped by a change batch.
type RemovedFile struct {
	File FileID
	Path string
}

type newRoot struct {
	id    SourceRootID
	local bool
}

type rootChange struct {
	added   []AddedFile
	removed []RemovedFile
}

type addedLibrary struct {
	root  SourceRootID
	files []AddedFile
	index *SymbolIndex
}

type fileText struct {
	file FileID
	text string
}

// Change is a batch of input edits, the sole mutation entry point of the
// model. Build one up with the Add*/Set* methods and hand it to
// [AnalysisHost.Apply]; the batch is applied atomically and establishes a
// new revision.
type Change struct {
	newRoots     []newRoot
	rootChanges  map[SourceRootID]*rootChange
	filesChanged []fileText
	libsAdded    []addedLibrary
	crateGraph   *CrateGraph
}

// NewChange returns an empty change batch.
func NewChange() *Change {
	return &Change{rootChanges: map[SourceRootID]*rootChange{}}
}

// AddRoot registers a new source root. Roots must be registered before the
// batch references them in AddFile or RemoveFile.
func (c *Change) AddRoot(id SourceRootID, local bool) {
	c.newRoots = append(c.newRoots, newRoot{id: id, local: local})
}

// AddFile adds a file to a source root with its initial text.
func (c *Change) AddFile(root SourceRootID, file FileID, path, text string) {
	rc := c.rootChange(root)
	rc.added = append(rc.added, AddedFile{File: file, Path: path, Text: text})
}

// RemoveFile drops a file from its source root.
func (c *Change) RemoveFile(root SourceRootID, file FileID, path string) {
	rc := c.rootChange(root)
	rc.removed = append(rc.removed, RemovedFile{File: file, Path: path})
}

// ChangeFile replaces the text of an already-tracked file.
func (c *Change) ChangeFile(file FileID, text string) {
	c.filesChanged = append(c.filesChanged, fileText{file: file, text: text})
}

// AddLibrary registers a read-only library root together with its file set
// and a precomputed symbol index, so library content is never re-scanned.
func (c *Change) AddLibrary(root SourceRootID, index *SymbolIndex, files []AddedFile) {
	c.libsAdded = append(c.libsAdded, addedLibrary{root: root, files: files, index: index})
}

// SetCrateGraph replaces the crate graph wholesale.
func (c *Change) SetCrateGraph(g *CrateGraph) {
	c.crateGraph = g
}

func (c *Change) rootChange(root SourceRootID) *rootChange {
	rc, ok := c.rootChanges[root]
	if !ok {
		rc = &rootChange{}
		c.rootChanges[root] = rc
	}
	return rc
}

// apply folds the batch into a cloned input state. Application order
// matters: roots are registered before their file sets, file sets before
// text changes, libraries after plain roots (their root listing and index
// land together), and the crate graph last so it may reference any file
// introduced earlier in the batch.
func (c *Change) apply(s *inputState) {
	for _, nr := range c.newRoots {
		if _, ok := s.roots[nr.id]; ok {
			continue
		}
		s.roots[nr.id] = &sourceRoot{local: nr.local, files: map[string]FileID{}}
		if nr.local {
			s.localRoots = append(s.localRoots, nr.id)
		}
	}
	for rootID, rc := range c.rootChanges {
		applyRootChange(s, rootID, rc)
	}
	for _, fc := range c.filesChanged {
		entry, ok := s.files[fc.file]
		if !ok {
			continue
		}
		entry.text = fc.text
		entry.hash = hashText(fc.text)
		s.files[fc.file] = entry
	}
	for _, lib := range c.libsAdded {
		if _, ok := s.roots[lib.root]; !ok {
			s.roots[lib.root] = &sourceRoot{local: false, files: map[string]FileID{}}
		}
		registered := false
		for _, id := range s.libraryRoots {
			if id == lib.root {
				registered = true
				break
			}
		}
		if !registered {
			s.libraryRoots = append(s.libraryRoots, lib.root)
		}
		applyRootChange(s, lib.root, &rootChange{added: lib.files})
		if lib.index != nil {
			s.libIndices[lib.root] = lib.index
		}
	}
	if c.crateGraph != nil {
		s.crateGraph = c.crateGraph
	}
}

func applyRootChange(s *inputState, rootID SourceRootID, rc *rootChange) {
	root, ok := s.roots[rootID]
	if !ok {
		return
	}
	for _, add := range rc.added {
		s.files[add.File] = fileEntry{
			text: add.Text,
			hash: hashText(add.Text),
			root: rootID,
			path: add.Path,
		}
		root.files[add.Path] = add.File
	}
	for _, rm := range rc.removed {
		delete(s.files, rm.File)
		delete(root.files, rm.Path)
	}
}
