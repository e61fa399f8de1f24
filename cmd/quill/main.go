package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quill/internal/version"
)

// errReported makes the process exit with status 1 once problems have
// already been printed.
var errReported = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:           "quill",
	Short:         "Pattern-match checker and decision-tree lowering",
	Long:          `quill checks match expressions for exhaustiveness and redundancy and lowers them to a control-flow IR`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startSession(cmd)
	},
}

var cleanups []func()

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	registerGlobalFlags(rootCmd)

	err := rootCmd.Execute()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		}
		os.Exit(1)
	}
}

// registerGlobalFlags declares the flags shared by every command.
func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show per-file timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics kept per file")
	flags.Int("jobs", 0, "max parallel workers (0=auto)")
	flags.String("ui", "auto", "progress view (auto|on|off)")
	flags.Bool("no-cache", false, "disable the on-disk result cache")

	flags.String("trace", "", "write trace events to a file (\"-\" for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a runtime execution trace to this file")
}

// startSession enables tracing and profiling for the running command. Their
// cleanups run after the command returns, including on failure.
func startSession(cmd *cobra.Command) error {
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, stopTrace)
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, stopProf)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
