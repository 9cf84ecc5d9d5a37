package analyzer

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHost applies one change batch registering root 0 with the given
// files and a crate per crateRoot path. File IDs are assigned 1..n in
// sorted path order; the returned map translates paths back.
func buildHost(t *testing.T, files map[string]string, crateRoots ...string) (*AnalysisHost, map[string]FileID) {
	t.Helper()
	host := NewAnalysisHost()
	change := NewChange()
	change.AddRoot(0, true)

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	ids := map[string]FileID{}
	for i, p := range paths {
		id := FileID(i + 1)
		ids[p] = id
		change.AddFile(0, id, p, files[p])
	}

	graph := NewCrateGraph()
	for _, rootPath := range crateRoots {
		id, ok := ids[rootPath]
		require.True(t, ok, "crate root %s not in file set", rootPath)
		graph.AddCrate(id)
	}
	change.SetCrateGraph(graph)
	host.Apply(change)
	return host, ids
}

// rootModule fetches the root module of the first crate.
func rootModule(t *testing.T, a *Analysis) Module {
	t.Helper()
	crates := a.Crates()
	require.NotEmpty(t, crates)
	m, err := crates[0].RootModule()
	require.NoError(t, err)
	require.NotNil(t, m)
	return *m
}

func TestApply_EstablishesNewRevision(t *testing.T) {
	host := NewAnalysisHost()
	require.Equal(t, uint64(0), host.Analysis().Revision())

	host.Apply(NewChange())
	require.Equal(t, uint64(1), host.Analysis().Revision())

	host.Apply(NewChange())
	require.Equal(t, uint64(2), host.Analysis().Revision())
}

func TestApply_OrderWithinBatch(t *testing.T) {
	// A single batch may register a root, add its files, and install a
	// crate graph referencing those files; the application order makes
	// each step visible to the next.
	host := NewAnalysisHost()
	change := NewChange()
	change.AddRoot(7, true)
	change.AddFile(7, 1, "lib.rs", "pub struct S;")
	graph := NewCrateGraph()
	graph.AddCrate(1)
	change.SetCrateGraph(graph)
	host.Apply(change)

	a := host.Analysis()
	require.Equal(t, []SourceRootID{7}, a.LocalRoots())
	m, err := a.ModuleForFile(1)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestApply_LibraryInSameBatchAsGraph(t *testing.T) {
	host := NewAnalysisHost()
	change := NewChange()
	change.AddRoot(0, true)
	change.AddFile(0, 1, "lib.rs", "fn main() {}")
	change.AddLibrary(1, NewSymbolIndex([]IndexSymbol{
		{Name: "Vec", Kind: "struct", File: 100, Range: Range{}},
	}), []AddedFile{{File: 100, Path: "lib.rs", Text: ""}})
	graph := NewCrateGraph()
	graph.AddCrate(1)
	graph.AddCrate(100)
	change.SetCrateGraph(graph)
	host.Apply(change)

	a := host.Analysis()
	require.Equal(t, []SourceRootID{1}, a.LibraryRoots())
	hits, err := a.Symbols("Vec")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.True(t, hits[0].Library)
}

func TestApply_RepeatedLibraryRegistration(t *testing.T) {
	host := NewAnalysisHost()
	change := NewChange()
	change.AddRoot(0, true)
	change.AddFile(0, 1, "lib.rs", "")
	host.Apply(change)

	addLib := func() {
		c := NewChange()
		c.AddLibrary(1, NewSymbolIndex([]IndexSymbol{
			{Name: "Vec", Kind: "struct", File: 100},
		}), []AddedFile{{File: 100, Path: "lib.rs", Text: ""}})
		host.Apply(c)
	}
	addLib()
	addLib()

	a := host.Analysis()
	assert.Equal(t, []SourceRootID{1}, a.LibraryRoots())
	hits, err := a.Symbols("Vec")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestApply_RemoveFile(t *testing.T) {
	host, ids := buildHost(t, map[string]string{
		"lib.rs": "mod foo;",
		"foo.rs": "",
	}, "lib.rs")

	change := NewChange()
	change.RemoveFile(0, ids["foo.rs"], "foo.rs")
	host.Apply(change)

	a := host.Analysis()
	_, tracked := a.FileText(ids["foo.rs"])
	assert.False(t, tracked)
}

func TestChangeFile_UntrackedIsIgnored(t *testing.T) {
	host, _ := buildHost(t, map[string]string{"lib.rs": ""}, "lib.rs")
	change := NewChange()
	change.ChangeFile(999, "text")
	host.Apply(change)

	_, tracked := host.Analysis().FileText(999)
	assert.False(t, tracked)
}

func TestCancellation_StaleSnapshotAborts(t *testing.T) {
	host, ids := buildHost(t, map[string]string{
		"lib.rs": "mod foo;\npub struct S;",
		"foo.rs": "",
	}, "lib.rs")

	a := host.Analysis()
	m, err := a.ModuleForFile(ids["lib.rs"])
	require.NoError(t, err)
	require.NotNil(t, m)

	// Publish a new revision; every query on the old snapshot must now
	// surface cancellation, not stale data.
	change := NewChange()
	change.ChangeFile(ids["foo.rs"], "// edited")
	host.Apply(change)

	_, err = m.ResolvePath(MustParsePath("foo"))
	require.Error(t, err)
	assert.True(t, IsCanceled(err))

	_, err = a.ModuleForFile(ids["lib.rs"])
	assert.True(t, IsCanceled(err))

	// A fresh snapshot works again.
	fresh := host.Analysis()
	m2, err := fresh.ModuleForFile(ids["lib.rs"])
	require.NoError(t, err)
	per, err := m2.ResolvePath(MustParsePath("foo"))
	require.NoError(t, err)
	assert.False(t, per.IsNone())
}

func TestCancellation_ConcurrentReadersNeverMixRevisions(t *testing.T) {
	host, ids := buildHost(t, map[string]string{
		"lib.rs": "mod foo;\npub struct S;\npub enum E { A, B }",
		"foo.rs": "use crate::S;",
	}, "lib.rs")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers resolve continuously; every outcome must be either a valid
	// value from one revision or ErrCanceled, never a panic or torn state.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				a := host.Analysis()
				m, err := a.ModuleForFile(ids["lib.rs"])
				if err != nil {
					assert.True(t, IsCanceled(err))
					continue
				}
				if m == nil {
					continue
				}
				per, err := m.ResolvePath(MustParsePath("E::A"))
				if err != nil {
					assert.True(t, IsCanceled(err))
					continue
				}
				if !per.IsNone() {
					def, ok := per.Types()
					assert.True(t, ok)
					assert.Equal(t, DefKindEnumVariant, def.Kind())
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		change := NewChange()
		change.ChangeFile(ids["foo.rs"], "// rev\nuse crate::S;")
		host.Apply(change)
		change = NewChange()
		change.ChangeFile(ids["foo.rs"], "use crate::S;")
		host.Apply(change)
	}
	close(stop)
	wg.Wait()
}

func TestMemoization_IdenticalContentKeepsHandles(t *testing.T) {
	host, ids := buildHost(t, map[string]string{
		"lib.rs": "mod foo;\npub struct S;",
		"foo.rs": "",
	}, "lib.rs")

	resolve := func() defID {
		a := host.Analysis()
		m, err := a.ModuleForFile(ids["lib.rs"])
		require.NoError(t, err)
		per, err := m.ResolvePath(MustParsePath("S"))
		require.NoError(t, err)
		require.NotEqual(t, noDef, per.per.types)
		return per.per.types
	}

	before := resolve()

	// Edit an unrelated file and revert: the root's content fingerprint
	// changes and changes back, but equal locations must re-intern to the
	// same handle either way.
	change := NewChange()
	change.ChangeFile(ids["foo.rs"], "// scratch")
	host.Apply(change)
	middle := resolve()

	change = NewChange()
	change.ChangeFile(ids["foo.rs"], "")
	host.Apply(change)
	after := resolve()

	assert.Equal(t, before, middle)
	assert.Equal(t, before, after)
}

func TestCrateGraph_RejectsCycles(t *testing.T) {
	g := NewCrateGraph()
	a := g.AddCrate(1)
	b := g.AddCrate(2)
	require.NoError(t, g.AddDependency(a, "b", b))
	err := g.AddDependency(b, "a", a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")

	err = g.AddDependency(a, "a", a)
	require.Error(t, err)
}
