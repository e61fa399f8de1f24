package types

// IsUninhabited reports whether no value of the type can be observed from
// code living in scope. Private class fields only make their class empty
// inside the declaring module, and open unions are always inhabited outside
// theirs. Recursive types are treated as inhabited.
func (in *Interner) IsUninhabited(id TypeID, scope string) bool {
	return in.uninhabited(id, scope, make(map[TypeID]struct{}))
}

// VariantUninhabited reports whether the variant's fields are jointly
// uninhabited, i.e. at least one of them is.
func (in *Interner) VariantUninhabited(v *Variant, scope string) bool {
	return in.variantUninhabited(v, scope, make(map[TypeID]struct{}))
}

func (in *Interner) uninhabited(id TypeID, scope string, visiting map[TypeID]struct{}) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindNever:
		return true
	case KindClass, KindUnion:
	default:
		return false
	}
	if _, busy := visiting[id]; busy {
		return false
	}
	visiting[id] = struct{}{}
	defer delete(visiting, id)

	if tt.Kind == KindClass {
		info := in.classInfo(id)
		if info == nil {
			return false
		}
		for _, f := range info.Fields {
			if f.Private && scope != info.Module {
				continue
			}
			if in.uninhabited(f.Type, scope, visiting) {
				return true
			}
		}
		return false
	}

	info := in.unionInfo(id)
	if info == nil {
		return false
	}
	if info.Open && scope != info.Module {
		return false
	}
	for i := range info.Variants {
		if !in.variantUninhabited(&info.Variants[i], scope, visiting) {
			return false
		}
	}
	return true
}

func (in *Interner) variantUninhabited(v *Variant, scope string, visiting map[TypeID]struct{}) bool {
	for _, f := range v.Fields {
		if in.uninhabited(f.Type, scope, visiting) {
			return true
		}
	}
	return false
}
