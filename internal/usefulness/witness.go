package usefulness

import (
	"fmt"
	"slices"

	"quill/internal/pattern"
)

// witnessStack is one partial counter-example; index 0 is the first column.
type witnessStack []pattern.Witness

// witnessMatrix collects counter-examples for one matrix.
type witnessMatrix []witnessStack

func unitWitness() witnessMatrix {
	return witnessMatrix{witnessStack{}}
}

func (w witnessMatrix) pushPattern(p pattern.Witness) witnessMatrix {
	out := make(witnessMatrix, len(w))
	for i, stack := range w {
		out[i] = append(witnessStack{p}, stack...)
	}
	return out
}

// applyConstructor turns witnesses of a specialized matrix into witnesses
// of its parent: either fold the leading fields into ctor, or for Missing,
// prepend every missing constructor in turn.
func (u *ucx) applyConstructor(w witnessMatrix, place PlaceInfo, missing []pattern.Constructor, ctor pattern.Constructor) (witnessMatrix, error) {
	if len(w) == 0 {
		return w, nil
	}
	if ctor.Kind == pattern.CtorMissing {
		var out witnessMatrix
		for _, mc := range missing {
			p, err := u.cx.WildFromCtor(mc, place.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, w.pushPattern(p)...)
		}
		return out, nil
	}
	arity, err := u.cx.Arity(ctor, place.Type)
	if err != nil {
		return nil, err
	}
	if ctor.Kind == pattern.CtorPrivateUninhabited {
		arity = 0
	}
	for i, stack := range w {
		if len(stack) < arity {
			return nil, fmt.Errorf("%w: witness has %d columns, constructor needs %d", ErrInternal, len(stack), arity)
		}
		folded := pattern.Witness{Ctor: ctor, Type: place.Type}
		if arity > 0 {
			folded.Fields = slices.Clone(stack[:arity])
		}
		w[i] = append(witnessStack{folded}, stack[arity:]...)
	}
	return w, nil
}

func (w witnessMatrix) singleColumn() ([]pattern.Witness, error) {
	out := make([]pattern.Witness, 0, len(w))
	for _, stack := range w {
		if len(stack) != 1 {
			return nil, fmt.Errorf("%w: top-level witness has %d columns", ErrInternal, len(stack))
		}
		out = append(out, stack[0])
	}
	return out, nil
}
