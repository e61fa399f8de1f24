package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/project"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] <file>",
	Short: "Dump the IR of a unit file",
	Long: `Lower checks one unit file and, when it has no errors, prints the IR of
its functions. Diagnostics go to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runLower,
}

func init() {
	lowerCmd.Flags().String("func", "", "dump only this function")
	lowerCmd.Flags().Bool("simplify", false, "fold trivial jumps and drop unreachable blocks")
	lowerCmd.Flags().StringP("output", "o", "", "write the IR to a file instead of stdout")
}

func runLower(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory; lower takes one unit file", args[0])
	}
	fn, err := cmd.Flags().GetString("func")
	if err != nil {
		return fmt.Errorf("failed to get func flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if cmd.Flags().Changed("simplify") {
		if s.config.Lower.SimplifyCFG, err = cmd.Flags().GetBool("simplify"); err != nil {
			return fmt.Errorf("failed to get simplify flag: %w", err)
		}
	}

	errOut := cmd.ErrOrStderr()
	req := s.request(args, errOut)
	req.Lower = true
	req.Func = fn
	res, runErr := runDriver(cmd.Context(), s, "lowering", req)
	if res == nil {
		return runErr
	}

	if err := printDiagnostics(errOut, res, reportOptions{format: project.FormatPretty, color: useColor(s, errOut), pathMode: diagfmt.PathModeAuto}); err != nil {
		return err
	}
	printInternalErrors(errOut, res)
	if s.timings {
		printTimings(errOut, res)
	}
	if res.HasErrors() || runErr != nil {
		return errReported
	}
	return writeIR(cmd.OutOrStdout(), output, res.Files[0].IR)
}

func writeIR(stdout io.Writer, path, ir string) error {
	if path == "" {
		_, err := io.WriteString(stdout, ir)
		return err
	}
	return os.WriteFile(path, []byte(ir), 0o600)
}
