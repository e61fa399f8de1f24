package pattern

import (
	"fmt"

	"quill/internal/types"
)

// SubType is the type of one constructor field.
type SubType struct {
	Type types.TypeID
	// PrivateUninhabited marks an empty field that the current module cannot see.
	// Such a column is skipped by analysis.
	PrivateUninhabited bool
}

// Cx answers type questions for one module's point of view.
type Cx struct {
	Types *types.Interner
	// Module is the scope the match is written in.
	Module string
	sets   map[types.TypeID]ConstructorSet
}

func NewCx(in *types.Interner, module string) *Cx {
	return &Cx{
		Types:  in,
		Module: module,
		sets:   make(map[types.TypeID]ConstructorSet),
	}
}

// CtorSetFor returns the constructors of ty. Results are cached per type.
func (cx *Cx) CtorSetFor(ty types.TypeID) (ConstructorSet, error) {
	if set, ok := cx.sets[ty]; ok {
		return set, nil
	}
	set, err := cx.ctorSetFor(ty)
	if err != nil {
		return ConstructorSet{}, err
	}
	cx.sets[ty] = set
	return set, nil
}

func (cx *Cx) ctorSetFor(ty types.TypeID) (ConstructorSet, error) {
	tt, ok := cx.Types.Lookup(ty)
	if !ok {
		return ConstructorSet{}, fmt.Errorf("%w: unknown type %d", ErrInternal, ty)
	}
	switch tt.Kind {
	case types.KindUnit:
		return ConstructorSet{Kind: SetClass}, nil
	case types.KindNever:
		return ConstructorSet{Kind: SetNoConstructors}, nil
	case types.KindBool:
		return ConstructorSet{Kind: SetBool}, nil
	case types.KindInt, types.KindUint, types.KindFloat, types.KindString, types.KindParam, types.KindFn:
		return ConstructorSet{Kind: SetUnlistable}, nil
	case types.KindClass:
		return ConstructorSet{Kind: SetClass, Empty: cx.Types.IsUninhabited(ty, cx.Module)}, nil
	case types.KindUnion:
		info, _ := cx.Types.UnionInfo(ty)
		foreign := info.Module != cx.Module
		nonExhaustive := info.Open && foreign
		if len(info.Variants) == 0 && !nonExhaustive {
			return ConstructorSet{Kind: SetNoConstructors}, nil
		}
		vis := make([]Visibility, len(info.Variants))
		for i := range info.Variants {
			v := &info.Variants[i]
			switch {
			case cx.Types.VariantUninhabited(v, cx.Module):
				vis[i] = VisEmpty
			case v.Hidden || (v.Private && foreign):
				vis[i] = VisHidden
			default:
				vis[i] = Visible
			}
		}
		return ConstructorSet{Kind: SetVariants, Variants: vis, NonExhaustive: nonExhaustive}, nil
	}
	return ConstructorSet{}, fmt.Errorf("%w: no constructors for %s", ErrInternal, tt.Kind)
}

// Arity is the number of fields a constructor of ty carries.
func (cx *Cx) Arity(ctor Constructor, ty types.TypeID) (int, error) {
	fields, err := cx.fields(ctor, ty)
	return len(fields), err
}

// CtorSubTypes returns the field types of ctor applied to ty, in declaration order.
func (cx *Cx) CtorSubTypes(ctor Constructor, ty types.TypeID) ([]SubType, error) {
	fields, err := cx.fields(ctor, ty)
	if err != nil || len(fields) == 0 {
		return nil, err
	}
	owner := ""
	isClass := ctor.Kind == CtorClass
	if isClass {
		if info, ok := cx.Types.ClassInfo(ty); ok {
			owner = info.Module
		}
	}
	out := make([]SubType, len(fields))
	for i, f := range fields {
		visible := !isClass || !f.Private || owner == cx.Module
		out[i] = SubType{
			Type:               f.Type,
			PrivateUninhabited: !visible && cx.Types.IsUninhabited(f.Type, cx.Module),
		}
	}
	return out, nil
}

func (cx *Cx) fields(ctor Constructor, ty types.TypeID) ([]types.Field, error) {
	switch ctor.Kind {
	case CtorClass:
		if cx.Types.KindOf(ty) == types.KindUnit {
			return nil, nil
		}
		info, ok := cx.Types.ClassInfo(ty)
		if !ok {
			return nil, fmt.Errorf("%w: class constructor on %s", ErrInternal, types.Label(cx.Types, ty))
		}
		return info.Fields, nil
	case CtorVariant:
		info, ok := cx.Types.UnionInfo(ty)
		if !ok || ctor.Index < 0 || ctor.Index >= len(info.Variants) {
			return nil, fmt.Errorf("%w: variant %d on %s", ErrInternal, ctor.Index, types.Label(cx.Types, ty))
		}
		return info.Variants[ctor.Index].Fields, nil
	default:
		return nil, nil
	}
}

// WildFromCtor builds `ctor(_, _, ...)` for ty.
func (cx *Cx) WildFromCtor(ctor Constructor, ty types.TypeID) (Witness, error) {
	if ctor.Kind == CtorWildcard {
		return Witness{Ctor: Wildcard, Type: ty}, nil
	}
	subs, err := cx.CtorSubTypes(ctor, ty)
	if err != nil {
		return Witness{}, err
	}
	w := Witness{Ctor: ctor, Type: ty}
	if len(subs) > 0 {
		w.Fields = make([]Witness, len(subs))
	}
	for i, sub := range subs {
		c := Wildcard
		if sub.PrivateUninhabited {
			c = PrivateUninhabited
		}
		w.Fields[i] = Witness{Ctor: c, Type: sub.Type}
	}
	return w, nil
}
