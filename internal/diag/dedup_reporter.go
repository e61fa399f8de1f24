package diag

import "quill/internal/source"

type reportKey struct {
	code Code
	span source.Span
}

// DedupReporter forwards the first diagnostic reported for each code and
// primary span and drops the rest.
type DedupReporter struct {
	next Reporter
	seen map[reportKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[reportKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil || r.next == nil {
		return
	}
	key := reportKey{code: code, span: primary}
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.next.Report(code, sev, primary, msg, notes, fixes)
}
