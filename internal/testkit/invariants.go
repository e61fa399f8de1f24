package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed body:
// 1) the body span is non-empty and within file content bounds
// 2) every nested expression and pattern span lies inside the body span
// 3) arm spans cover their pattern and body
func CheckSpanInvariants(body *ast.Expr, sf *source.File) error {
	if body == nil || sf == nil {
		return fmt.Errorf("nil body or file")
	}
	root := body.Span
	if root.End <= root.Start {
		return fmt.Errorf("body span is empty: %v", root)
	}
	if root.File != sf.ID {
		return fmt.Errorf("body span points to different file id: got=%d want=%d", root.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if root.End > lenContent {
		return fmt.Errorf("body span end beyond content: %d > %d", root.End, lenContent)
	}

	inside := func(sp source.Span, what string) error {
		if sp.File != root.File {
			return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, root.File)
		}
		if sp.Start < root.Start || sp.End > root.End {
			return fmt.Errorf("%s span %v is outside body span %v", what, sp, root)
		}
		return nil
	}

	var firstErr error
	ast.Inspect(body, func(e *ast.Expr) bool {
		if firstErr != nil {
			return false
		}
		if firstErr = inside(e.Span, e.Kind.String()); firstErr != nil {
			return false
		}
		pats := make([]*ast.Pattern, 0, len(e.Arms)+1)
		if e.Pat != nil {
			pats = append(pats, e.Pat)
		}
		for _, arm := range e.Arms {
			if arm.Span.Start > arm.Pattern.Span.Start || arm.Span.End < arm.Body.Span.End {
				firstErr = fmt.Errorf("arm span %v does not cover pattern %v and body %v", arm.Span, arm.Pattern.Span, arm.Body.Span)
				return false
			}
			pats = append(pats, arm.Pattern)
		}
		for _, p := range pats {
			ast.WalkPattern(p, func(sub *ast.Pattern) {
				if firstErr == nil {
					firstErr = inside(sub.Span, "pattern")
				}
			})
		}
		return firstErr == nil
	})
	return firstErr
}
