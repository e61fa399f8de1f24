package ast

import "strings"

// TypeExpr is a written type: a name or `fn(A, B) -> R`.
type TypeExpr struct {
	Name   string
	Fn     bool
	Params []*TypeExpr
	Result *TypeExpr
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "?"
	}
	if !t.Fn {
		return t.Name
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + t.Result.String()
}
