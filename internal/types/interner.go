package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Never   TypeID
	Bool    TypeID
	String  TypeID
	Int     TypeID
	Uint    TypeID
	Float   TypeID
	// U32 is the discriminant type of lowered unions.
	U32 TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Nominal types are never deduplicated: every Register call mints a new id.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	classes  []ClassInfo
	unions   []UnionInfo
	params   []ParamInfo
	fns      []FnInfo
	byName   map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:  make(map[Type]TypeID, 64),
		byName: make(map[string]TypeID),
	}
	// reserve 0 as invalid sentinel in every side table
	in.classes = append(in.classes, ClassInfo{})
	in.unions = append(in.unions, UnionInfo{})
	in.params = append(in.params, ParamInfo{})
	in.fns = append(in.fns, FnInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Int = in.Intern(MakeInt(WidthAny))
	in.builtins.Uint = in.Intern(MakeUint(WidthAny))
	in.builtins.Float = in.Intern(MakeFloat(WidthAny))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf is a shortcut for Lookup(id).Kind.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Len reports how many types exist, including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// Named finds a class or union registered under name.
func (in *Interner) Named(name string) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

func (in *Interner) bindName(name string, id TypeID) {
	if name == "" {
		return
	}
	in.byName[name] = id
}

func appendSlot[T any](table *[]T, info T, what string) uint32 {
	*table = append(*table, info)
	slot, err := safecast.Conv[uint32](len(*table) - 1)
	if err != nil {
		panic(fmt.Errorf("%s info overflow: %w", what, err))
	}
	return slot
}
