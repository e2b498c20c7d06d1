package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crossgen/internal/prof"
	"crossgen/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "crossgen",
	Short: "Ahead-of-time compilation scope and fixup planner",
	Long: `crossgen decides what an ahead-of-time compilation may assume about the
modules it compiles and emits the method fixups the runtime loader resolves.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown(cmd)
	},
}

// main registers subcommands and persistent flags and runs the root command.
// Any error exits with status 1.
func main() {
	// версия для автоматического флага --version
	rootCmd.Version = version.Plain()

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fixupsCmd)
	rootCmd.AddCommand(versionCmd)

	// глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel units (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().String("progress", "auto", "show pass progress on stderr (auto|on|off)")
	rootCmd.PersistentFlags().String("trace", "", "trace output path (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "heartbeat interval (0 = off)")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to this path")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to this path")
	rootCmd.PersistentFlags().String("exectrace", "", "write a runtime execution trace to this path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupRoot(cmd *cobra.Command, args []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}
	applyColorMode(mode)
	if err := setupProfiles(cmd); err != nil {
		return err
	}
	return setupTracing(cmd)
}

var stopProfiles = func() error { return nil }

func setupProfiles(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var p prof.Profiles
	var err error
	if p.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return err
	}
	if p.Mem, err = flags.GetString("memprofile"); err != nil {
		return err
	}
	if p.Trace, err = flags.GetString("exectrace"); err != nil {
		return err
	}
	if !p.Enabled() {
		return nil
	}
	stop, err := prof.Start(p)
	if err != nil {
		return fmt.Errorf("profiling: %w", err)
	}
	stopProfiles = stop
	return nil
}

// teardown stops profiling and closes the tracer. Commands call it on
// their way out because PersistentPostRun is skipped on error; repeated
// calls are no-ops.
func teardown(cmd *cobra.Command) {
	if err := stopProfiles(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
	}
	stopProfiles = func() error { return nil }
	teardownTracing(cmd)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
