package mir

import (
	"quill/internal/source"
	"quill/internal/types"
)

type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Params []LocalID
	Result types.TypeID

	Locals []Local
	Blocks []Block
	Entry  BlockID
}

// Temps returns the synthetic temporaries in allocation order.
func (f *Func) Temps() []LocalID {
	var out []LocalID
	for i := range f.Locals {
		if f.Locals[i].Flags&LocalFlagTemp != 0 {
			out = append(out, LocalID(i)) //nolint:gosec // bounded by len(f.Locals)
		}
	}
	return out
}

// LocalByName finds the first local carrying name.
func (f *Func) LocalByName(name string) (LocalID, bool) {
	for i := range f.Locals {
		if f.Locals[i].Name == name {
			return LocalID(i), true //nolint:gosec // bounded by len(f.Locals)
		}
	}
	return NoLocalID, false
}
