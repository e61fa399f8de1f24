package mir

import (
	"quill/internal/types"
)

type Module struct {
	Name  string
	Funcs []*Func
	// Data lists the lowered layout of every class and union, in declaration order.
	Data []DataType
}

// DataType is the backend view of a class or union. A class has exactly one
// variant named ClassVariant and no discriminant.
type DataType struct {
	Name         string
	Type         types.TypeID
	Discriminant types.TypeID
	Variants     []DataVariant
}

// IsUnion reports whether values carry a discriminant.
func (d *DataType) IsUnion() bool {
	return d.Discriminant != types.NoTypeID
}

type DataVariant struct {
	Name    string
	Ordinal uint32
	Fields  []DataField
}

type DataField struct {
	Name string
	Type types.TypeID
}

// Func finds a lowered function by name.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}

// DataFor returns the layout of a declared type.
func (m *Module) DataFor(ty types.TypeID) *DataType {
	for i := range m.Data {
		if m.Data[i].Type == ty {
			return &m.Data[i]
		}
	}
	return nil
}
