package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/project"
)

type reportOptions struct {
	format    string
	color     bool
	pathMode  diagfmt.PathMode
	withNotes bool
	suggest   bool
}

// fileReportJSON is one entry of `quill check --format json`.
type fileReportJSON struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
	diagfmt.DiagnosticsOutput
}

// printDiagnostics renders every file's diagnostics to out.
func printDiagnostics(out io.Writer, res *driver.Result, opts reportOptions) error {
	switch opts.format {
	case project.FormatJSON:
		reports := make([]fileReportJSON, 0, len(res.Files))
		for i := range res.Files {
			f := &res.Files[i]
			r := fileReportJSON{
				File: f.Path,
				DiagnosticsOutput: diagfmt.BuildDiagnosticsOutput(f.Bag, f.Files, diagfmt.JSONOpts{
					IncludePositions: true,
					PathMode:         opts.pathMode,
					IncludeNotes:     opts.withNotes,
					IncludeFixes:     opts.suggest,
				}),
			}
			if f.Err != nil {
				r.Error = f.Err.Error()
			}
			reports = append(reports, r)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case project.FormatShort:
		for i := range res.Files {
			f := &res.Files[i]
			if _, err := io.WriteString(out, diag.FormatShortDiagnostics(f.Bag.Items(), f.Files, opts.withNotes)); err != nil {
				return err
			}
		}
		return nil
	case project.FormatPretty, "":
		for i := range res.Files {
			f := &res.Files[i]
			diagfmt.Pretty(out, f.Bag, f.Files, diagfmt.PrettyOpts{
				Color:     opts.color,
				Context:   1,
				PathMode:  opts.pathMode,
				ShowNotes: true,
				ShowFixes: opts.suggest,
			})
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json|short)", opts.format)
	}
}

// printInternalErrors lists failures that are not diagnostics.
func printInternalErrors(out io.Writer, res *driver.Result) {
	for i := range res.Files {
		if err := res.Files[i].Err; err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// printSummary writes the closing line of a check run.
func printSummary(out io.Writer, res *driver.Result) {
	var errs, warns, dropped, cached int
	for i := range res.Files {
		f := &res.Files[i]
		errs += f.Bag.Count(diag.SevError)
		warns += f.Bag.Count(diag.SevWarning)
		dropped += f.Bag.Dropped()
		if f.Cached {
			cached++
		}
	}
	fmt.Fprintf(out, "checked %d %s: %d %s, %d %s",
		len(res.Files), plural(len(res.Files), "file"),
		errs, plural(errs, "error"),
		warns, plural(warns, "warning"))
	if cached > 0 {
		fmt.Fprintf(out, " (%d cached)", cached)
	}
	if dropped > 0 {
		fmt.Fprintf(out, ", %d not shown", dropped)
	}
	fmt.Fprintln(out)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func useColor(s *settings, out io.Writer) bool {
	f, _ := out.(*os.File)
	return diagfmt.UseColor(s.color, f)
}
