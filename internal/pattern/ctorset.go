package pattern

import "slices"

// SetKind tags ConstructorSet.
type SetKind uint8

const (
	// SetClass has the single Class constructor.
	SetClass SetKind = iota
	SetVariants
	SetBool
	// SetUnlistable covers numbers, strings, generic placeholders and functions.
	SetUnlistable
	// SetNoConstructors is the set of an uninhabited type.
	SetNoConstructors
)

// Visibility classifies one variant from the point of view of the current module.
type Visibility uint8

const (
	Visible Visibility = iota
	// VisHidden variants may not be named here.
	VisHidden
	// VisEmpty variants have jointly uninhabited fields.
	VisEmpty
)

// ConstructorSet is the full set of constructors of one type.
type ConstructorSet struct {
	Kind SetKind
	// Empty marks an uninhabited class.
	Empty    bool
	Variants []Visibility
	// NonExhaustive marks an open union seen from outside its module.
	NonExhaustive bool
}

// SplitSet partitions a type's constructors against the ones seen in a column.
type SplitSet struct {
	Present      []Constructor
	Missing      []Constructor
	MissingEmpty []Constructor
}

// Split compares the set with the constructors heading a column. Wildcards
// are ignored; a present constructor appears once.
func (s ConstructorSet) Split(seen []Constructor) SplitSet {
	var out SplitSet
	var nonWild []Constructor
	for _, c := range seen {
		if c.Kind != CtorWildcard {
			nonWild = append(nonWild, c)
		}
	}

	switch s.Kind {
	case SetClass:
		switch {
		case len(nonWild) > 0:
			out.Present = append(out.Present, Class)
		case s.Empty:
			out.MissingEmpty = append(out.MissingEmpty, Class)
		default:
			out.Missing = append(out.Missing, Class)
		}

	case SetVariants:
		seenIdx := make([]bool, len(s.Variants))
		for _, c := range nonWild {
			if c.Kind == CtorVariant && c.Index >= 0 && c.Index < len(seenIdx) {
				seenIdx[c.Index] = true
			}
		}
		skippedHidden := false
		for i, vis := range s.Variants {
			ctor := Variant(i)
			if seenIdx[i] {
				out.Present = append(out.Present, ctor)
				continue
			}
			switch vis {
			case Visible:
				out.Missing = append(out.Missing, ctor)
			case VisHidden:
				skippedHidden = true
			case VisEmpty:
				out.MissingEmpty = append(out.MissingEmpty, ctor)
			}
		}
		if skippedHidden {
			out.Missing = append(out.Missing, Hidden)
		}
		if s.NonExhaustive {
			out.Missing = append(out.Missing, NonExhaustive)
		}

	case SetBool:
		seenFalse, seenTrue := false, false
		for _, c := range nonWild {
			if c.Kind != CtorBool {
				continue
			}
			if c.Bool {
				seenTrue = true
			} else {
				seenFalse = true
			}
		}
		if seenFalse {
			out.Present = append(out.Present, Bool(false))
		} else {
			out.Missing = append(out.Missing, Bool(false))
		}
		if seenTrue {
			out.Present = append(out.Present, Bool(true))
		} else {
			out.Missing = append(out.Missing, Bool(true))
		}

	case SetUnlistable:
		for _, c := range nonWild {
			if !slices.Contains(out.Present, c) {
				out.Present = append(out.Present, c)
			}
		}
		out.Missing = append(out.Missing, NonExhaustive)

	case SetNoConstructors:
		out.MissingEmpty = append(out.MissingEmpty, Never)
	}
	return out
}

// AllEmpty reports whether every constructor of the set is uninhabited.
func (s ConstructorSet) AllEmpty() bool {
	switch s.Kind {
	case SetNoConstructors:
		return true
	case SetClass:
		return s.Empty
	case SetVariants:
		if s.NonExhaustive {
			return false
		}
		for _, v := range s.Variants {
			if v != VisEmpty {
				return false
			}
		}
		return true
	default:
		return false
	}
}
