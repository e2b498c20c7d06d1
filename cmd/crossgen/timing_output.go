package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossgen/internal/observ"
)

// printTimings writes the phase summary to stderr when --timings is set.
func printTimings(cmd *cobra.Command, timer *observ.Timer) error {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !show || timer == nil {
		return nil
	}
	_, err = fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	return err
}
