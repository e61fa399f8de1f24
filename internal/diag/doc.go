// Package diag defines the diagnostic model shared by the loader, the
// parser, name resolution and match checking.
//
// A Diagnostic carries a Severity, a numeric Code with a stable string form
// (see codes.go), a short Message, the primary source.Span and optional
// Notes and Fixes. Notes point at related places ("covered by this arm");
// each must add context rather than repeat the message. Fixes are plain
// text edits; the CLI only prints them.
//
// Phases emit through a Reporter, usually via ReportError / ReportWarning
// and the chained ReportBuilder. BagReporter collects into a Bag, which
// sorts and deduplicates for deterministic output. Rendering lives in
// internal/diagfmt.
package diag
