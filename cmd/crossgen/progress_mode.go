package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func readProgressMode(value string) (progressMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on":
		return progressOn, nil
	case "off":
		return progressOff, nil
	default:
		return "", fmt.Errorf("invalid --progress value %q (expected auto|on|off)", value)
	}
}

// shouldShowProgress decides whether the pass display takes over stderr.
// In auto mode it stays off when stderr is not a terminal, output is quiet
// or the trace stream already writes to stderr.
func shouldShowProgress(mode progressMode, quiet bool, traceOut string, stderrTTY bool) bool {
	switch mode {
	case progressOn:
		return true
	case progressOff:
		return false
	default:
		return stderrTTY && !quiet && traceOut != "-"
	}
}

func progressEnabled(cmd *cobra.Command) (bool, error) {
	flags := cmd.Root().PersistentFlags()
	value, err := flags.GetString("progress")
	if err != nil {
		return false, fmt.Errorf("failed to get progress flag: %w", err)
	}
	mode, err := readProgressMode(value)
	if err != nil {
		return false, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return false, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	traceOut, err := flags.GetString("trace")
	if err != nil {
		return false, fmt.Errorf("failed to get trace flag: %w", err)
	}
	return shouldShowProgress(mode, quiet, traceOut, isTerminal(os.Stderr)), nil
}
