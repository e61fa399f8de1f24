package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/fix"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <path>...",
	Short: "Check match expressions in unit files",
	Long: `Check resolves every unit file (or every .toml/.yaml unit under a directory),
reports non-exhaustive matches, redundant arms and unreachable patterns, and
exits with status 1 when any error is found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|json|short); defaults to [output].format")
	checkCmd.Flags().Bool("with-notes", false, "include notes in json and short output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths")
	checkCmd.Flags().Bool("fix", false, "apply suggested fixes to the unit files")
	checkCmd.Flags().String("fix-id", "", "apply only the fix with this id")
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	opts, err := readReportOptions(cmd, s)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	req := s.request(args, errOut)
	res, runErr := runDriver(cmd.Context(), s, "checking", req)
	if res == nil {
		return runErr
	}

	if err := printDiagnostics(out, res, opts); err != nil {
		return err
	}
	printInternalErrors(errOut, res)
	if s.timings {
		printTimings(errOut, res)
	}
	if !s.quiet && opts.format != "json" {
		printSummary(errOut, res)
	}
	if err := applyFixes(cmd, res); err != nil {
		return err
	}
	if res.HasErrors() || runErr != nil {
		return errReported
	}
	return nil
}

func readReportOptions(cmd *cobra.Command, s *settings) (reportOptions, error) {
	opts := reportOptions{format: s.format, color: useColor(s, cmd.OutOrStdout())}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "" {
		opts.format = format
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return opts, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if fullPath {
		opts.pathMode = diagfmt.PathModeAbsolute
	}
	return opts, nil
}

// applyFixes writes the suggested edits when --fix or --fix-id is set.
func applyFixes(cmd *cobra.Command, res *driver.Result) error {
	all, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	id, err := cmd.Flags().GetString("fix-id")
	if err != nil {
		return fmt.Errorf("failed to get fix-id flag: %w", err)
	}
	if !all && id == "" {
		return nil
	}
	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll}
	if id != "" {
		opts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: id}
	}

	out := cmd.ErrOrStderr()
	applied := 0
	for i := range res.Files {
		f := &res.Files[i]
		r, err := fix.Apply(f.Files, f.Bag.Items(), opts)
		if err != nil && !errors.Is(err, fix.ErrNoFixes) {
			return err
		}
		if id != "" && len(r.Applied) == 0 {
			continue
		}
		for _, a := range r.Applied {
			fmt.Fprintf(out, "fixed %s: %s\n", a.ID, a.Title)
		}
		for _, sk := range r.Skipped {
			fmt.Fprintf(out, "skipped %s: %s\n", sk.ID, sk.Reason)
		}
		applied += len(r.Applied)
	}
	if applied == 0 && id != "" {
		return fmt.Errorf("fix %q not applied", id)
	}
	return nil
}
