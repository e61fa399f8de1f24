package mir

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/types"
)

type FuncID int32
type BlockID int32
type LocalID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

// Reserved names of the lowered data layout. Backends rely on them verbatim.
const (
	DiscriminantField = "_variantIdentifier"
	ClassVariant      = "_classVariant"
	TempPrefix        = "_local"
)

// TempName returns the name of the n-th synthetic temporary of a function.
func TempName(n uint32) string {
	return fmt.Sprintf("%s%d", TempPrefix, n)
}

type LocalFlags uint8

const (
	LocalFlagTemp LocalFlags = 1 << iota
	LocalFlagParam
	LocalFlagBinding
)

type Local struct {
	Sym   ast.SymbolID
	Type  types.TypeID
	Flags LocalFlags
	Name  string
	Span  source.Span
}

// Place names a storage location. Field projections are explicit
// FieldAccess/FieldAssign instructions, so a place is always a whole local.
type Place struct {
	Local LocalID
}

func (p Place) IsValid() bool {
	return p.Local != NoLocalID
}

// FieldRef addresses one field of a lowered data value. Variant is the
// union variant name, ClassVariant for classes, and empty for the
// discriminant itself.
type FieldRef struct {
	Variant string
	Name    string
	Index   int
}

// Discriminant returns the reference to a union's hidden tag field.
func Discriminant() FieldRef {
	return FieldRef{Name: DiscriminantField, Index: -1}
}

func (r FieldRef) IsDiscriminant() bool {
	return r.Variant == "" && r.Name == DiscriminantField
}

func (r FieldRef) String() string {
	if r.Variant == "" {
		return r.Name
	}
	return r.Variant + "." + r.Name
}
