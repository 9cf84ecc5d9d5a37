package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ItemTree {
	t.Helper()
	tree, err := Parse([]byte(src))
	require.NoError(t, err)
	return tree
}

func TestParse_TopLevelItems(t *testing.T) {
	tree := parse(t, `
mod decl;
mod inline { fn hidden() {} }
pub struct S;
pub enum E { A, B }
pub fn f() {}
pub const C: u32 = 0;
pub static G: u32 = 0;
pub trait Tr {}
pub type Alias = S;
pub union U { a: u32 }
`)

	type got struct {
		kind ItemKind
		name string
	}
	var top []got
	for _, idx := range tree.TopLevel(-1) {
		top = append(top, got{tree.Items[idx].Kind, tree.Items[idx].Name})
	}
	assert.Equal(t, []got{
		{ItemModDecl, "decl"},
		{ItemModule, "inline"},
		{ItemStruct, "S"},
		{ItemEnum, "E"},
		{ItemFunction, "f"},
		{ItemConst, "C"},
		{ItemStatic, "G"},
		{ItemTrait, "Tr"},
		{ItemTypeAlias, "Alias"},
		{ItemOther, "U"},
	}, top)
}

func TestParse_InlineModuleNesting(t *testing.T) {
	tree := parse(t, "mod outer { mod inner { struct Deep; } struct Mid; }")

	top := tree.TopLevel(-1)
	require.Len(t, top, 1)
	outer := top[0]
	assert.Equal(t, ItemModule, tree.Items[outer].Kind)

	children := tree.TopLevel(outer)
	require.Len(t, children, 2)
	inner := children[0]
	assert.Equal(t, ItemModule, tree.Items[inner].Kind)
	assert.Equal(t, "inner", tree.Items[inner].Name)
	assert.Equal(t, ItemStruct, tree.Items[children[1]].Kind)

	deep := tree.TopLevel(inner)
	require.Len(t, deep, 1)
	assert.Equal(t, "Deep", tree.Items[deep[0]].Name)
}

func TestParse_EnumVariants(t *testing.T) {
	tree := parse(t, "enum E {\n    A,\n    B(u32),\n    C { x: u32 },\n}")

	require.Len(t, tree.Items, 1)
	item := tree.Items[0]
	assert.Equal(t, []string{"A", "B", "C"}, item.Variants)
	require.Len(t, item.VariantRanges, 3)
	assert.Equal(t, 1, item.VariantRanges[0].StartLine)
	assert.Equal(t, 4, item.VariantRanges[0].StartCol)
	assert.Equal(t, 2, item.VariantRanges[1].StartLine)
}

func TestParse_NameRange(t *testing.T) {
	tree := parse(t, "pub struct Widget;")
	require.Len(t, tree.Items, 1)
	r := tree.Items[0].NameRange
	assert.Equal(t, 0, r.StartLine)
	assert.Equal(t, 11, r.StartCol)
	assert.Equal(t, 17, r.EndCol)
}

func TestParse_UseFlattening(t *testing.T) {
	tree := parse(t, `
use crate::a::B;
use self::c;
use super::d::E as F;
use crate::g::*;
use h::{I, j::K, l::*};
use crate;
`)

	var imports []Import
	for _, item := range tree.Items {
		require.Equal(t, ItemUse, item.Kind)
		imports = append(imports, item.Imports...)
	}

	assert.Equal(t, []Import{
		{Kind: PathCrate, Segments: []string{"a", "B"}},
		{Kind: PathSelf, Segments: []string{"c"}},
		{Kind: PathSuper, Segments: []string{"d", "E"}, Alias: "F"},
		{Kind: PathCrate, Segments: []string{"g"}, Glob: true},
		{Kind: PathPlain, Segments: []string{"h", "I"}},
		{Kind: PathPlain, Segments: []string{"h", "j", "K"}},
		{Kind: PathPlain, Segments: []string{"h", "l"}, Glob: true},
	}, imports)
}

func TestImport_LocalName(t *testing.T) {
	im := Import{Segments: []string{"a", "B"}}
	assert.Equal(t, "B", im.LocalName())
	im.Alias = "C"
	assert.Equal(t, "C", im.LocalName())
}

func TestParse_RecoversFromErrors(t *testing.T) {
	// A broken item in the middle does not hide its neighbors.
	tree := parse(t, "struct Good;\nfn broken( {\nstruct AlsoGood;")
	names := map[string]bool{}
	for _, item := range tree.Items {
		names[item.Name] = true
	}
	assert.True(t, names["Good"])
}

func TestParse_EmptyAndCommentOnly(t *testing.T) {
	tree := parse(t, "")
	assert.Empty(t, tree.Items)

	tree = parse(t, "// nothing here\n/* still nothing */")
	assert.Empty(t, tree.Items)
}
