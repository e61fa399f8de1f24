package types

import (
	"fmt"
	"slices"

	"quill/internal/source"
)

// VariantKind captures the declared shape of a union variant.
type VariantKind uint8

const (
	// VariantUnit has no payload: `A`.
	VariantUnit VariantKind = iota
	// VariantTuple has positional fields named Item0, Item1, ...
	VariantTuple
	// VariantClass has named fields.
	VariantClass
)

// Variant describes a single alternative of a union.
type Variant struct {
	Name   string
	Kind   VariantKind
	Fields []Field
	// Private variants are only visible inside the declaring module.
	Private bool
	// Hidden variants are never offered to users in exhaustiveness reports.
	Hidden bool
}

// UnionInfo stores metadata for a union type.
type UnionInfo struct {
	Name   string
	Module string
	Decl   source.Span
	// Open unions may grow new variants; other modules must keep a catch-all arm.
	Open     bool
	Variants []Variant
}

// TupleFieldName returns the positional field name used for tuple variants.
func TupleFieldName(i int) string {
	return fmt.Sprintf("Item%d", i)
}

// TupleFields builds the positional field list for a tuple variant.
func TupleFields(items []TypeID) []Field {
	fields := make([]Field, len(items))
	for i, ty := range items {
		fields[i] = Field{Name: TupleFieldName(i), Type: ty}
	}
	return fields
}

// RegisterUnion allocates a nominal union type slot and returns its TypeID.
func (in *Interner) RegisterUnion(name, module string, open bool, decl source.Span) TypeID {
	slot := appendSlot(&in.unions, UnionInfo{Name: name, Module: module, Open: open, Decl: decl}, "union")
	id := in.internRaw(Type{Kind: KindUnion, Payload: slot})
	in.bindName(name, id)
	return id
}

// SetUnionVariants stores the resolved variants for the union type.
func (in *Interner) SetUnionVariants(typeID TypeID, variants []Variant) {
	info := in.unionInfo(typeID)
	if info == nil {
		return
	}
	cloned := slices.Clone(variants)
	for i := range cloned {
		cloned[i].Fields = slices.Clone(cloned[i].Fields)
	}
	info.Variants = cloned
}

// UnionInfo returns metadata for the provided union TypeID.
func (in *Interner) UnionInfo(typeID TypeID) (*UnionInfo, bool) {
	info := in.unionInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// VariantIndex returns the ordinal of the named variant or -1.
func (u *UnionInfo) VariantIndex(name string) int {
	for i, v := range u.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// FieldIndex returns the declaration index of the named field or -1.
func (v *Variant) FieldIndex(name string) int {
	return fieldIndex(v.Fields, name)
}

func (in *Interner) unionInfo(typeID TypeID) *UnionInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindUnion {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.unions) {
		return nil
	}
	return &in.unions[tt.Payload]
}
