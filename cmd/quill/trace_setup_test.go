package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"quill/internal/trace"
)

func TestSetupTracingFormat(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
		wantErr  bool
	}{
		{format: "ndjson", wantJSON: true},
		{format: "text"},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd := &cobra.Command{Use: "quill"}
			registerGlobalFlags(cmd)
			cmd.SetContext(context.Background())
			cmd.SetErr(io.Discard)

			out := filepath.Join(t.TempDir(), "trace.log")
			flags := cmd.PersistentFlags()
			for name, value := range map[string]string{"trace": out, "trace-format": tt.format, "quiet": "true"} {
				if err := flags.Set(name, value); err != nil {
					t.Fatalf("set %s: %v", name, err)
				}
			}

			stop, err := setupTracing(cmd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for an unknown format")
				}
				return
			}
			if err != nil {
				t.Fatalf("setupTracing: %v", err)
			}
			trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "run", 0).End("")
			stop()

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			first, _, _ := bytes.Cut(data, []byte("\n"))
			if len(first) == 0 {
				t.Fatalf("no trace events written")
			}
			if got := json.Valid(first); got != tt.wantJSON {
				t.Errorf("json.Valid(%q) = %v, want %v", first, got, tt.wantJSON)
			}
		})
	}
}

func TestSetupTracingRingDumpsOnExit(t *testing.T) {
	cmd := &cobra.Command{Use: "quill"}
	registerGlobalFlags(cmd)
	cmd.SetContext(context.Background())
	cmd.SetErr(io.Discard)

	out := filepath.Join(t.TempDir(), "trace.ndjson")
	flags := cmd.PersistentFlags()
	for name, value := range map[string]string{"trace": out, "trace-mode": "ring", "trace-ring-size": "2", "quiet": "true"} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	stop, err := setupTracing(cmd)
	if err != nil {
		t.Fatalf("setupTracing: %v", err)
	}
	tr := trace.FromContext(cmd.Context())
	for _, name := range []string{"a", "b", "c"} {
		trace.Begin(tr, trace.ScopePass, name, 0).End("")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("ring mode must not write before exit, stat err = %v", err)
	}
	stop()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected the last 2 events, got %d:\n%s", len(lines), data)
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %q is not json", line)
		}
	}
}
