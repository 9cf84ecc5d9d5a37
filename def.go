package analyzer

import (
	"sync"

	"github.com/max-frai/rust-analyzer/internal/syntax"
)

// DefKind is the closed set of definition kinds. Resolving a handle back to
// a typed entity is a single exhaustive switch on this tag.
type DefKind uint8

const (
	DefKindModule DefKind = iota
	DefKindStruct
	DefKindEnum
	DefKindEnumVariant
	DefKindFunction
	DefKindConst
	DefKindStatic
	DefKindTrait
	DefKindTypeAlias
	DefKindItem // opaque fallback for named items of other kinds
)

// String returns the lower-case kind name.
func (k DefKind) String() string {
	switch k {
	case DefKindModule:
		return "module"
	case DefKindStruct:
		return "struct"
	case DefKindEnum:
		return "enum"
	case DefKindEnumVariant:
		return "enum-variant"
	case DefKindFunction:
		return "function"
	case DefKindConst:
		return "const"
	case DefKindStatic:
		return "static"
	case DefKindTrait:
		return "trait"
	case DefKindTypeAlias:
		return "type-alias"
	default:
		return "item"
	}
}

// defID is the interned surrogate for a definition location. Raw IDs never
// cross the package boundary; consumers see typed wrappers only.
type defID uint32

const noDef defID = 0

// sourceItemID points at one item within a file's item tree. item is the
// index in the flat item list; -1 stands for the whole file (the source of
// a file-backed module).
type sourceItemID struct {
	file FileID
	item int32
}

// defLoc is a definition location: where the definition's syntax lives.
// Equal locations always intern to the same defID, which is what keeps
// handles stable across recomputation of unchanged content.
type defLoc struct {
	kind    DefKind
	root    SourceRootID
	module  int32 // module node index within the root's module tree
	item    sourceItemID
	variant int32 // ordinal within the enum, DefKindEnumVariant only
}

// interner is the deduplicating defLoc -> defID table. It lives on the host
// and only grows; lookups are idempotent.
type interner struct {
	mu   sync.RWMutex
	ids  map[defLoc]defID
	locs []defLoc // locs[id-1], since 0 is the null handle
}

func newInterner() *interner {
	return &interner{ids: map[defLoc]defID{}}
}

func (in *interner) intern(loc defLoc) defID {
	in.mu.RLock()
	id, ok := in.ids[loc]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[loc]; ok {
		return id
	}
	in.locs = append(in.locs, loc)
	id = defID(len(in.locs))
	in.ids[loc] = id
	return id
}

func (in *interner) lookup(id defID) defLoc {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.locs[id-1]
}

// defRef is the common state of every typed entity wrapper: the snapshot it
// was produced from plus the interned handle.
type defRef struct {
	a  *Analysis
	id defID
}

func (d defRef) isDef() {}

// Kind returns the definition's kind tag.
func (d defRef) Kind() DefKind {
	return d.a.host.defs.lookup(d.id).kind
}

// Same reports whether two entities are the same definition.
func (d defRef) Same(other Def) bool {
	return other != nil && d.id == other.ref().id
}

func (d defRef) ref() defRef { return d }

// Def is the closed set of typed definition entities: Module, Struct, Enum,
// EnumVariant, Function, Const, Static, Trait, TypeAlias, or Item. The
// interface is sealed; no other implementations exist.
type Def interface {
	isDef()
	ref() defRef
	Kind() DefKind
	Same(other Def) bool
	Source() (Location, error)
}

// Module is a node in a source root's module tree.
type Module struct{ defRef }

// Struct is a struct definition.
type Struct struct{ defRef }

// Enum is an enum definition.
type Enum struct{ defRef }

// EnumVariant is one variant of an enum.
type EnumVariant struct{ defRef }

// Function is a fn definition.
type Function struct{ defRef }

// Const is a const definition.
type Const struct{ defRef }

// Static is a static definition.
type Static struct{ defRef }

// Trait is a trait definition.
type Trait struct{ defRef }

// TypeAlias is a type alias definition.
type TypeAlias struct{ defRef }

// Item is the opaque fallback for named definitions of other kinds.
type Item struct{ defRef }

// resolveDef turns a handle into its typed entity. Single exhaustive
// dispatch on the stored kind tag.
func (a *Analysis) resolveDef(id defID) Def {
	ref := defRef{a: a, id: id}
	switch a.host.defs.lookup(id).kind {
	case DefKindModule:
		return Module{ref}
	case DefKindStruct:
		return Struct{ref}
	case DefKindEnum:
		return Enum{ref}
	case DefKindEnumVariant:
		return EnumVariant{ref}
	case DefKindFunction:
		return Function{ref}
	case DefKindConst:
		return Const{ref}
	case DefKindStatic:
		return Static{ref}
	case DefKindTrait:
		return Trait{ref}
	case DefKindTypeAlias:
		return TypeAlias{ref}
	default:
		return Item{ref}
	}
}

// defKindForItem maps an extracted item kind to a definition kind.
func defKindForItem(kind syntax.ItemKind) DefKind {
	switch kind {
	case syntax.ItemStruct:
		return DefKindStruct
	case syntax.ItemEnum:
		return DefKindEnum
	case syntax.ItemFunction:
		return DefKindFunction
	case syntax.ItemConst:
		return DefKindConst
	case syntax.ItemStatic:
		return DefKindStatic
	case syntax.ItemTrait:
		return DefKindTrait
	case syntax.ItemTypeAlias:
		return DefKindTypeAlias
	default:
		return DefKindItem
	}
}
