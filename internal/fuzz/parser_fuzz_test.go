package fuzztests

import (
	"context"
	"testing"
	"time"

	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/parser"
	"quill/internal/source"
	"quill/internal/token"
)

// parseTimeout is the maximum time allowed for parsing a single input.
const parseTimeout = 5 * time.Second

func FuzzLexerTokens(f *testing.F) {
	addBodySeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz#f", input))

		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(64)}})
		limit := 2*len(input) + 16
		for i := 0; ; i++ {
			if lx.Next().Kind == token.EOF {
				return
			}
			if i > limit {
				t.Fatalf("lexer produced more than %d tokens for %d bytes", limit, len(input))
			}
		}
	})
}

func FuzzParseBodyNoHang(f *testing.F) {
	addBodySeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("fuzz#f", input))
			bag := diag.NewBag(128)
			e, ok := parser.ParseBody(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
			if ok && e == nil {
				t.Errorf("ParseBody reported success without an expression")
			}
			if !ok && !bag.HasErrors() {
				t.Errorf("ParseBody failed without a diagnostic")
			}
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
