package main

import (
	"fmt"
	"io"

	"quill/internal/driver"
)

// printTimings writes the phase table of every file.
func printTimings(out io.Writer, res *driver.Result) {
	if out == nil || res == nil {
		return
	}
	for i := range res.Files {
		f := &res.Files[i]
		label := f.Path
		if f.Cached {
			label += " (cached)"
		}
		if _, err := fmt.Fprintf(out, "%s\n%s", label, f.Timing.String()); err != nil {
			panic(err)
		}
	}
}
