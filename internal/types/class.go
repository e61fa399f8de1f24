package types

import (
	"slices"

	"quill/internal/source"
)

// Field describes a single named field of a class or class-like variant.
type Field struct {
	Name    string
	Type    TypeID
	Private bool
}

// ClassInfo stores metadata for a class type.
type ClassInfo struct {
	Name   string
	Module string
	Decl   source.Span
	Fields []Field
}

// RegisterClass allocates a nominal class type slot and returns its TypeID.
func (in *Interner) RegisterClass(name, module string, decl source.Span) TypeID {
	slot := appendSlot(&in.classes, ClassInfo{Name: name, Module: module, Decl: decl}, "class")
	id := in.internRaw(Type{Kind: KindClass, Payload: slot})
	in.bindName(name, id)
	return id
}

// SetClassFields stores the resolved field descriptors for the class type.
func (in *Interner) SetClassFields(typeID TypeID, fields []Field) {
	info := in.classInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
}

// ClassInfo returns metadata for the provided class TypeID.
func (in *Interner) ClassInfo(typeID TypeID) (*ClassInfo, bool) {
	info := in.classInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// FieldIndex returns the declaration index of the named field.
func (c *ClassInfo) FieldIndex(name string) int {
	return fieldIndex(c.Fields, name)
}

func (in *Interner) classInfo(typeID TypeID) *ClassInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindClass {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.classes) {
		return nil
	}
	return &in.classes[tt.Payload]
}

func fieldIndex(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
