package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret, add, del *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Faint),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		add:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret, p.add, p.del} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders bag for humans. Items are printed in bag order, so callers
// sort first. Each diagnostic is
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the quoted source with a caret line under the primary span,
// then notes and fixes when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, p)
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "\n%s %d more diagnostics not shown\n", p.note.Sprint("..."), n)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	loc, ok := location(fs, d.Primary, opts.PathMode)
	if !ok {
		fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
		return
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", loc, p.severity(d.Severity).Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
	quote(w, fs, d.Primary, opts, p)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nloc, ok := location(fs, n.Span, opts.PathMode)
			if !ok {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), nloc, n.Msg)
		}
	}

	if opts.ShowFixes {
		for i, fix := range d.Fixes {
			fmt.Fprintf(w, "  %s %s\n", p.note.Sprintf("fix #%d:", i+1), fix.Title)
			for _, edit := range fix.Edits {
				eloc, _ := location(fs, edit.Span, opts.PathMode)
				fmt.Fprintf(w, "    edit %s apply=%s\n", eloc, strconv.Quote(edit.NewText))
				if !opts.ShowPreview {
					continue
				}
				preview, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				fmt.Fprintln(w, "    preview:")
				for _, line := range preview.before {
					fmt.Fprintf(w, "      %s\n", p.del.Sprint("- "+line))
				}
				for _, line := range preview.after {
					fmt.Fprintf(w, "      %s\n", p.add.Sprint("+ "+line))
				}
			}
		}
	}
}

// quote prints up to opts.Context lines above the span start, the start line
// itself and a caret line. Multi-line spans are underlined to the end of the
// first line.
func quote(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, p palette) {
	file := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	first := start.Line
	if opts.Context > 0 {
		first = start.Line - min(start.Line-1, uint32(opts.Context))
	}
	gutterWidth := len(strconv.FormatUint(uint64(start.Line), 10))

	for ln := first; ln <= start.Line; ln++ {
		text := file.GetLine(ln)
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "...")
		}
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, ln), text)
	}

	line := file.GetLine(start.Line)
	col := min(int(start.Col-1), len(line))
	pad := caretPadding(line[:col])
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = runewidth.StringWidth(line[col:min(int(end.Col-1), len(line))])
	} else if end.Line > start.Line {
		width = max(1, runewidth.StringWidth(line[col:]))
	}
	marks := "^" + strings.Repeat("~", max(width, 1)-1)
	fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), pad, p.caret.Sprint(marks))
}

// caretPadding keeps tabs so the caret lines up with the quoted text.
func caretPadding(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) (string, bool) {
	if int(sp.File) >= fs.Len() {
		return "", false
	}
	f := fs.Get(sp.File)
	if int(sp.Start) > len(f.Content) {
		return "", false
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, f, mode), start.Line, start.Col), true
}

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	default:
		return f.FormatPath(mode.String(), "")
	}
}
