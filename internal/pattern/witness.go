package pattern

import (
	"strings"

	"quill/internal/types"
)

// Witness is a value no arm matches. It is only used for reporting.
type Witness struct {
	Ctor   Constructor
	Fields []Witness
	Type   types.TypeID
}

// HasMarker reports whether w or a sub-witness stands for values that
// cannot be listed (an open union or hidden variants).
func (w Witness) HasMarker() bool {
	if w.Ctor.IsMarker() {
		return true
	}
	for _, f := range w.Fields {
		if f.HasMarker() {
			return true
		}
	}
	return false
}

// Render prints w in surface syntax, e.g. `Shape::Circle(_)`.
func (w Witness) Render(in *types.Interner) string {
	var b strings.Builder
	w.render(in, &b)
	return b.String()
}

func (w Witness) render(in *types.Interner, b *strings.Builder) {
	switch w.Ctor.Kind {
	case CtorBool:
		if w.Ctor.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case CtorLiteral:
		b.WriteString(w.Ctor.Lit.String())
	case CtorVariant:
		info, ok := in.UnionInfo(w.Type)
		if !ok || w.Ctor.Index >= len(info.Variants) {
			b.WriteString("_")
			return
		}
		v := &info.Variants[w.Ctor.Index]
		b.WriteString(info.Name)
		b.WriteString("::")
		b.WriteString(v.Name)
		switch v.Kind {
		case types.VariantTuple:
			w.renderTuple(in, b)
		case types.VariantClass:
			w.renderNamed(in, b, v.Fields)
		}
	case CtorClass:
		info, ok := in.ClassInfo(w.Type)
		if !ok {
			b.WriteString(types.Label(in, w.Type))
			return
		}
		b.WriteString(info.Name)
		w.renderNamed(in, b, info.Fields)
	case CtorNever:
		b.WriteString("!")
	default:
		b.WriteString("_")
	}
}

func (w Witness) renderTuple(in *types.Interner, b *strings.Builder) {
	b.WriteByte('(')
	for i, f := range w.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		f.render(in, b)
	}
	b.WriteByte(')')
}

func (w Witness) renderNamed(in *types.Interner, b *strings.Builder, decl []types.Field) {
	if len(w.Fields) == 0 {
		b.WriteString(" {}")
		return
	}
	b.WriteString(" {")
	written := 0
	skipped := false
	for i, f := range w.Fields {
		if f.Ctor.Kind == CtorPrivateUninhabited || i >= len(decl) {
			skipped = true
			continue
		}
		if written > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		b.WriteString(decl[i].Name)
		b.WriteString(": ")
		f.render(in, b)
		written++
	}
	if skipped {
		if written > 0 {
			b.WriteByte(',')
		}
		b.WriteString(" ..")
	}
	b.WriteString(" }")
}
