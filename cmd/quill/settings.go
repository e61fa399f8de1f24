package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/project"
)

// settings are the manifest values with command-line overrides applied.
type settings struct {
	config   project.Config
	root     string
	format   string
	color    diagfmt.ColorMode
	quiet    bool
	timings  bool
	maxDiags int
	jobs     int
	ui       uiMode
	noCache  bool
}

// loadSettings finds quill.toml from the working directory upwards and
// overlays the global flags. Without a manifest the defaults apply.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	s := &settings{config: project.DefaultConfig(""), root: wd}
	manifest, ok, err := project.LoadManifest(wd)
	if err != nil {
		return nil, err
	}
	if ok {
		s.config = manifest.Config
		s.root = manifest.Root
	}
	s.format = s.config.Output.Format

	flags := cmd.Root().PersistentFlags()
	colorStr, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	if s.color, err = readColorMode(colorStr); err != nil {
		return nil, err
	}
	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiags, err = flags.GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if s.noCache, err = flags.GetBool("no-cache"); err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiStr); err != nil {
		return nil, err
	}
	return s, nil
}

func readColorMode(value string) (diagfmt.ColorMode, error) {
	switch mode := diagfmt.ColorMode(strings.TrimSpace(strings.ToLower(value))); mode {
	case diagfmt.ColorAuto, diagfmt.ColorAlways, diagfmt.ColorNever:
		return mode, nil
	case "":
		return diagfmt.ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// request builds a driver request for paths.
func (s *settings) request(paths []string, errOut io.Writer) driver.Request {
	req := driver.Request{
		Paths:          paths,
		Options:        driver.OptionsFromConfig(s.config),
		Jobs:           s.jobs,
		MaxDiagnostics: s.maxDiags,
		BaseDir:        s.root,
	}
	if !s.noCache {
		cache, err := driver.OpenDiskCache("quill")
		if err != nil {
			if !s.quiet {
				fmt.Fprintf(errOut, "warning: cache disabled: %v\n", err)
			}
		} else {
			req.Cache = cache
		}
	}
	return req
}
