package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossgen/internal/driver"
	"crossgen/internal/observ"
	"crossgen/internal/project"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [manifest]",
	Short: "Report what the compilation contains, versions with and may inline",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("width", 60, "truncate table cells to this display width (0 = off)")
}

// openSession resolves the manifest argument and loads it with the root
// flags applied.
func openSession(cmd *cobra.Command, args []string) (*driver.Session, *observ.Timer, error) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := project.ResolveManifestPath(arg)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs < 0 {
		return nil, nil, fmt.Errorf("--jobs must not be negative")
	}
	timer := observ.NewTimer()
	s, err := driver.Load(cmd.Context(), path, driver.Options{Jobs: jobs, Timer: timer})
	if err != nil {
		return nil, nil, err
	}
	return s, timer, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	defer teardown(cmd)

	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	withProgress, err := progressEnabled(cmd)
	if err != nil {
		return err
	}
	s, timer, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	var res *driver.Analysis
	if withProgress {
		res, err = runWithProgress("analyze: "+s.Universe.Name, driver.AnalyzePasses, func(sink driver.ProgressSink) (*driver.Analysis, error) {
			return s.WithProgress(sink).Analyze(cmd.Context())
		})
	} else {
		res, err = s.Analyze(cmd.Context())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	typeTable := &table{
		title:   fmt.Sprintf("scope: %s (%s, %s)", s.Universe.Name, s.Universe.Mode, s.Universe.Digest.Short()),
		headers: []string{"type", "module", "contains", "versions", "layout"},
		limit:   width,
	}
	for _, v := range res.Types {
		typeTable.add(v.Label, valueOr(v.Module, "-"), verdict(v.Contains), verdict(v.Versions), verdict(v.Layout))
	}
	methods := &table{
		title:   "method bodies",
		headers: []string{"method", "compiled", "versions"},
		limit:   width,
	}
	for _, v := range res.Methods {
		methods.add(v.Label, verdict(v.Contains), verdict(v.Versions))
	}
	inlines := &table{
		title:   "inlining",
		headers: []string{"call", "caller", "callee", "inline"},
		limit:   width,
	}
	for _, v := range res.Inlines {
		inlines.add(fmt.Sprint(v.Call), v.Caller, v.Callee, verdict(v.CanInline))
	}
	for i, t := range []*table{typeTable, methods, inlines} {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := t.render(out); err != nil {
			return err
		}
	}

	if err := printTimings(cmd, timer); err != nil {
		return err
	}
	return reportAborted(cmd, res.Aborted)
}

// reportAborted prints aborted units, dumps the trace ring and fails the
// command when any unit aborted.
func reportAborted(cmd *cobra.Command, aborted []*driver.UnitError) error {
	if len(aborted) == 0 {
		return nil
	}
	for _, ue := range aborted {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", noColor.Sprint("aborted:"), ue)
	}
	dumpRing(cmd)
	return fmt.Errorf("%d unit(s) aborted: %w", len(aborted), driver.ErrUnitAborted)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
