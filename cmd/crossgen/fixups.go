package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crossgen/internal/driver"
)

var fixupsCmd = &cobra.Command{
	Use:   "fixups [manifest]",
	Short: "Collect and emit the method fixup signatures of a compilation",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFixups,
}

func init() {
	fixupsCmd.Flags().String("emit", "", "write the signatures as a fixup image to this path")
	fixupsCmd.Flags().Bool("hex", true, "print signature bytes")
}

func runFixups(cmd *cobra.Command, args []string) error {
	defer teardown(cmd)

	emitPath, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}
	showHex, err := cmd.Flags().GetBool("hex")
	if err != nil {
		return fmt.Errorf("failed to get hex flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	withProgress, err := progressEnabled(cmd)
	if err != nil {
		return err
	}

	s, timer, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	var set *driver.FixupSet
	if withProgress {
		set, err = runWithProgress("fixups: "+s.Universe.Name, driver.FixupPasses, func(sink driver.ProgressSink) (*driver.FixupSet, error) {
			return s.WithProgress(sink).Fixups(cmd.Context())
		})
	} else {
		set, err = s.Fixups(cmd.Context())
	}
	if err != nil {
		return err
	}

	if !quiet {
		t := &table{
			title:   fmt.Sprintf("fixups: %s (%d signatures, modules %s)", s.Universe.Name, len(set.Entries), strings.Join(set.Modules, ", ")),
			headers: []string{"symbol", "sites"},
		}
		if showHex {
			t.headers = append(t.headers, "bytes")
		}
		for _, e := range set.Entries {
			row := []string{e.Symbol, formatSites(e.Sites)}
			if showHex {
				row = append(row, hexBytes(e.Data))
			}
			t.add(row...)
		}
		if err := t.render(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if emitPath != "" {
		done := timer.Track("image")
		if err := driver.WriteImage(emitPath, s.Image(set)); err != nil {
			done("failed")
			return fmt.Errorf("write %s: %w", emitPath, err)
		}
		done(emitPath)
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", emitPath)
		}
	}

	if err := printTimings(cmd, timer); err != nil {
		return err
	}
	return reportAborted(cmd, set.Aborted)
}

func formatSites(sites []int) string {
	parts := make([]string, len(sites))
	for i, s := range sites {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ",")
}

// hexBytes renders "13 01 40" style byte dumps.
func hexBytes(data []byte) string {
	enc := hex.EncodeToString(data)
	var sb strings.Builder
	for i := 0; i < len(enc); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(enc[i : i+2]))
	}
	return sb.String()
}
