package usefulness

import (
	"fmt"

	"quill/internal/pattern"
	"quill/internal/types"
)

// Validity says whether the matched place is known to hold a valid value.
type Validity uint8

const (
	// ValidOnly places cannot hold uninhabited values, so arms for empty
	// constructors may be omitted and are reported unreachable.
	ValidOnly Validity = iota
	// MaybeInvalid places must still be matched for empty constructors,
	// except at the scrutinee of a type with no constructors at all.
	MaybeInvalid
)

func (v Validity) String() string {
	if v == ValidOnly {
		return "valid"
	}
	return "maybe-invalid"
}

// PlaceInfo describes one column of the matrix.
type PlaceInfo struct {
	Type types.TypeID
	// PrivateUninhabited columns are skipped without looking at their patterns.
	PrivateUninhabited bool
	Validity           Validity
	IsScrutinee        bool
}

// matrixRow is one arm's remaining patterns. NoPatID stands for a wildcard
// introduced by specialization.
type matrixRow struct {
	pats []pattern.PatID
	// relevant is false when the row only survives through wildcards into an
	// irrelevant constructor; such rows cannot change the result.
	relevant   bool
	parentRow  int
	underGuard bool
	useful     bool
	// intersects holds earlier rows that match at least one common value.
	intersects rowSet
}

// Matrix is the working state of one recursion step.
type Matrix struct {
	rows   []matrixRow
	places []PlaceInfo
	// wildcardRowIsRelevant is false once we specialized with a constructor
	// that cannot contribute witnesses.
	wildcardRowIsRelevant bool
}

func newMatrix(arms []Arm, scrutTy types.TypeID, validity Validity) *Matrix {
	m := &Matrix{
		rows:                  make([]matrixRow, 0, len(arms)),
		places:                []PlaceInfo{{Type: scrutTy, Validity: validity, IsScrutinee: true}},
		wildcardRowIsRelevant: true,
	}
	for i, arm := range arms {
		m.push(matrixRow{
			pats:       []pattern.PatID{arm.Pat},
			relevant:   true,
			parentRow:  i,
			underGuard: arm.HasGuard,
		})
	}
	return m
}

func (m *Matrix) push(row matrixRow) {
	row.intersects = nil
	m.rows = append(m.rows, row)
}

func (m *Matrix) columnCount() int {
	return len(m.places)
}

func (m *Matrix) checkShape() error {
	for i := range m.rows {
		if len(m.rows[i].pats) != len(m.places) {
			return fmt.Errorf("%w: row %d has %d patterns for %d columns", ErrInternal, i, len(m.rows[i].pats), len(m.places))
		}
	}
	return nil
}
