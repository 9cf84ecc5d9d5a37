package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeOf(t *testing.T, m Module) ModuleScope {
	t.Helper()
	scope, err := m.Scope()
	require.NoError(t, err)
	return scope
}

func TestScope_LocalDeclarations(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": `
mod sub;
pub struct S;
pub enum E { A }
pub fn f() {}
pub const C: u32 = 0;
pub static G: u32 = 0;
pub trait Tr {}
pub type Alias = S;
`,
		"sub.rs": "",
	}, "lib.rs")

	root := rootModule(t, host.Analysis())
	scope := scopeOf(t, root)

	typesOnly := []string{"S", "E", "Tr", "Alias", "sub"}
	for _, name := range typesOnly {
		per, ok := scope.Get(name)
		require.True(t, ok, name)
		_, hasType := per.Types()
		_, hasValue := per.Values()
		assert.True(t, hasType, name)
		assert.False(t, hasValue, name)
	}

	valuesOnly := []string{"f", "C", "G"}
	for _, name := range valuesOnly {
		per, ok := scope.Get(name)
		require.True(t, ok, name)
		_, hasType := per.Types()
		_, hasValue := per.Values()
		assert.False(t, hasType, name)
		assert.True(t, hasValue, name)
	}

	assert.Equal(t, []string{"Alias", "C", "E", "G", "S", "Tr", "f", "sub"}, scope.Names())
}

func TestScope_KindTags(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "pub struct S;\npub enum E { A }\npub fn f() {}\npub trait Tr {}",
	}, "lib.rs")

	scope := scopeOf(t, rootModule(t, host.Analysis()))
	want := map[string]DefKind{
		"S":  DefKindStruct,
		"E":  DefKindEnum,
		"Tr": DefKindTrait,
	}
	for name, kind := range want {
		per, ok := scope.Get(name)
		require.True(t, ok)
		def, ok := per.Types()
		require.True(t, ok)
		assert.Equal(t, kind, def.Kind())
	}
	per, ok := scope.Get("f")
	require.True(t, ok)
	def, ok := per.Values()
	require.True(t, ok)
	assert.Equal(t, DefKindFunction, def.Kind())
	assert.IsType(t, Function{}, def)
}

func TestImports_SimpleAndAlias(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "mod foo;\nmod bar;",
		"foo.rs": "pub struct S;\npub fn make() {}",
		"bar.rs": "use crate::foo::S;\nuse crate::foo::make as build;",
	}, "lib.rs")

	root := rootModule(t, host.Analysis())
	bar, err := root.Child("bar")
	require.NoError(t, err)
	require.NotNil(t, bar)

	scope := scopeOf(t, *bar)
	per, ok := scope.Get("S")
	require.True(t, ok)
	def, ok := per.Types()
	require.True(t, ok)
	assert.Equal(t, DefKindStruct, def.Kind())

	per, ok = scope.Get("build")
	require.True(t, ok)
	def, ok = per.Values()
	require.True(t, ok)
	assert.Equal(t, DefKindFunction, def.Kind())

	// The alias hides the original spelling.
	_, ok = scope.Get("make")
	assert.False(t, ok)
}

func TestImports_ChainNeedsMultiplePasses(t *testing.T) {
	// c re-exports through b which re-exports through a; a single pass
	// cannot resolve the whole chain regardless of module order.
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "mod a;\nmod b;\nmod c;",
		"a.rs":   "pub struct S;",
		"b.rs":   "use crate::a::S;",
		"c.rs":   "use crate::b::S;",
	}, "lib.rs")

	root := rootModule(t, host.Analysis())
	c, err := root.Child("c")
	require.NoError(t, err)
	require.NotNil(t, c)
	per, ok := scopeOf(t, *c).Get("S")
	require.True(t, ok)
	def, ok := per.Types()
	require.True(t, ok)
	assert.Equal(t, DefKindStruct, def.Kind())
}

func TestImports_Glob(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs":     "mod prelude;\nmod user;",
		"prelude.rs": "pub struct S;\npub fn helper() {}",
		"user.rs":    "use crate::prelude::*;",
	}, "lib.rs")

	root := rootModule(t, host.Analysis())
	user, err := root.Child("user")
	require.NoError(t, err)
	require.NotNil(t, user)

	scope := scopeOf(t, *user)
	_, ok := scope.Get("S")
	assert.True(t, ok)
	_, ok = scope.Get("helper")
	assert.True(t, ok)
}

func TestImports_CyclicGlobsTerminate(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "mod a;\nmod b;",
		"a.rs":   "use crate::b::*;\npub struct FromA;",
		"b.rs":   "use crate::a::*;\npub struct FromB;",
	}, "lib.rs")

	root := rootModule(t, host.Analysis())
	a, err := root.Child("a")
	require.NoError(t, err)
	b, err := root.Child("b")
	require.NoError(t, err)

	// Both sides see both names once the globs reach fixpoint.
	for _, m := range []Module{*a, *b} {
		scope := scopeOf(t, m)
		_, ok := scope.Get("FromA")
		assert.True(t, ok)
		_, ok = scope.Get("FromB")
		assert.True(t, ok)
	}
}

func TestImports_LocalDeclarationWins(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "mod foo;\nmod bar;",
		"foo.rs": "pub struct S;",
		"bar.rs": "use crate::foo::S;\npub struct S;",
	}, "lib.rs")

	a := host.Analysis()
	root := rootModule(t, a)
	bar, err := root.Child("bar")
	require.NoError(t, err)
	foo, err := root.Child("foo")
	require.NoError(t, err)

	per, ok := scopeOf(t, *bar).Get("S")
	require.True(t, ok)
	local, ok := per.Types()
	require.True(t, ok)

	perFoo, ok := scopeOf(t, *foo).Get("S")
	require.True(t, ok)
	foreign, ok := perFoo.Types()
	require.True(t, ok)

	assert.False(t, local.(Struct).Same(foreign))
	loc, err := local.Source()
	require.NoError(t, err)
	path, _ := a.FilePath(loc.File)
	assert.Equal(t, "bar.rs", path)
}

func TestImports_UnresolvedNameIsAbsent(t *testing.T) {
	host, _ := buildHost(t, map[string]string{
		"lib.rs": "use crate::missing::Thing;",
	}, "lib.rs")

	scope := scopeOf(t, rootModule(t, host.Analysis()))
	_, ok := scope.Get("Thing")
	assert.False(t, ok)
}
