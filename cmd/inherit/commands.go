package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"inherit/internal/analysis"
	"inherit/internal/git"
	"inherit/internal/manifest"
	"inherit/internal/registry"
	"inherit/internal/report"
	"inherit/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkManifests []string
	checkPolicy    string
	checkSummary   string
	checkFormat    string
	checkSince     string
	checkArchive   bool

	graphManifests []string
	graphScope     string

	extractOut string

	historyScope string
	historyLimit int
)

func init() {
	checkCmd.Flags().StringSliceVarP(&checkManifests, "manifest", "m", nil, "YAML manifest file or directory (repeatable)")
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Report policy for every scope: fail-fast, warn or silent")
	checkCmd.Flags().StringVar(&checkSummary, "summary", "", "Summary verbosity: debug, info, warn, error or none")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format: text or json")
	checkCmd.Flags().StringVar(&checkSince, "since", "", "Only report scopes affected by changes since this git ref")
	checkCmd.Flags().BoolVar(&checkArchive, "archive", false, "Archive the reports in the run database")

	graphCmd.Flags().StringSliceVarP(&graphManifests, "manifest", "m", nil, "YAML manifest file or directory (repeatable)")
	graphCmd.Flags().StringVarP(&graphScope, "scope", "s", "", "Scope to draw; optional when there is only one")

	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "manifests", "Directory to write the manifests to")

	historyCmd.Flags().StringVarP(&historyScope, "scope", "s", "", "Only list runs of this scope")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
}

// checkSettings merges the configuration with the command-line overrides.
// --policy replaces the configured default and every per-scope override.
func checkSettings() (report.Settings, error) {
	settings, err := cfg.ReportSettings()
	if err != nil {
		return settings, err
	}
	if checkPolicy != "" {
		p, err := report.ParsePolicy(checkPolicy)
		if err != nil {
			return settings, err
		}
		settings.Default = p
		settings.Scopes = nil
	}
	if checkSummary != "" {
		v, err := report.ParseVerbosity(checkSummary)
		if err != nil {
			return settings, err
		}
		settings.Summary = v
	}
	return settings, nil
}

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Verify that every concrete type implements the methods it inherits",
	Long: `Extracts the annotated Go packages under each path (default: project.root)
and any --manifest inputs, checks every scope in dependency order and renders
each report under its policy. The exit status is non-zero when a fail-fast
scope has missing methods.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if checkFormat != "text" && checkFormat != "json" {
			return fmt.Errorf("unknown format %q", checkFormat)
		}

		sources := args
		if len(sources) == 0 && len(checkManifests) == 0 {
			sources = []string{cfg.Project.Root}
		}
		files, err := loadManifests(sources, checkManifests)
		if err != nil {
			return err
		}

		settings, err := checkSettings()
		if err != nil {
			return err
		}

		// Unaffected scopes are still checked, since importers depend on
		// them, but render silently.
		var affected map[string]bool
		if checkSince != "" {
			root, err := git.RepoRoot(ctx, ".")
			if err != nil {
				return err
			}
			changes, err := git.GetChangedFiles(ctx, root, checkSince)
			if err != nil {
				return err
			}
			impact := analysis.NewAnalyzer(files, root).AnalyzeImpact(changes)
			affected = make(map[string]bool)
			for _, scope := range impact.Scopes() {
				affected[scope] = true
			}
			for _, f := range files {
				if !affected[f.Scope] {
					settings = settings.WithScope(f.Scope, report.PolicySilent)
				}
			}
			logger.Info("impact analysis",
				zap.Int("changed_files", len(changes)),
				zap.Strings("direct", impact.DirectlyAffected),
				zap.Strings("indirect", impact.IndirectlyAffected))
		}

		reg := registry.New(registry.WithLogger(logger), registry.WithSettings(settings))
		if err := manifest.ApplyAll(reg, files); err != nil {
			return err
		}
		reports, checkErr := reg.CheckAll(ctx)

		var shown []*report.Report
		for _, rep := range reports {
			if affected == nil || affected[rep.Scope] {
				shown = append(shown, rep)
			}
		}

		if err := printReports(shown); err != nil {
			return err
		}

		if checkArchive {
			store, err := initStore()
			if err != nil {
				return err
			}
			defer store.Close()
			for _, rep := range shown {
				id, err := store.SaveRun(ctx, rep)
				if err != nil {
					return fmt.Errorf("failed to archive %s: %w", rep.Scope, err)
				}
				logger.Debug("archived run", zap.String("scope", rep.Scope), zap.String("id", id))
			}
		}
		return checkErr
	},
}

func printReports(reports []*report.Report) error {
	if checkFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, rep := range reports {
		fmt.Print(rep.Text())
	}
	return nil
}

var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Print a mermaid class diagram of a scope's hierarchy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := args
		if len(sources) == 0 && len(graphManifests) == 0 {
			sources = []string{cfg.Project.Root}
		}
		files, err := loadManifests(sources, graphManifests)
		if err != nil {
			return err
		}

		scope := graphScope
		if scope == "" {
			if len(files) != 1 {
				return fmt.Errorf("found %d scopes; choose one with --scope", len(files))
			}
			scope = files[0].Scope
		}

		reg := registry.New(registry.WithLogger(logger), registry.WithSettings(report.Settings{
			Default: report.PolicySilent,
			Summary: report.VerbosityNone,
		}))
		if err := manifest.ApplyAll(reg, files); err != nil {
			return err
		}
		if _, err := reg.CheckAll(cmd.Context()); err != nil {
			return err
		}

		g, ok := reg.Graph(scope)
		if !ok {
			return fmt.Errorf("unknown scope %s", scope)
		}
		rep, _ := reg.LastReport(scope)
		fmt.Print(report.HierarchyDiagram(g, rep))
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Write the manifests of the annotated Go packages under path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}
		idx, err := newIndexer()
		if err != nil {
			return err
		}
		files, err := idx.BuildManifests(root)
		if err != nil {
			return err
		}
		if err := idx.SaveManifests(files, extractOut); err != nil {
			return err
		}
		for _, f := range files {
			fmt.Println(filepath.Join(extractOut, f.Scope+".yaml"))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived check runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), historyScope, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			if historyScope != "" {
				return fmt.Errorf("%w for scope %s", storage.ErrNoRuns, historyScope)
			}
			return storage.ErrNoRuns
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tGENERATED\tSCOPE\tPOLICY\tCHECKED\tMISSING")
		for _, run := range runs {
			rep := run.Report
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", run.ID, rep.GeneratedAt, rep.Scope, rep.Policy, rep.Checked, len(rep.Missing))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, run := range runs {
			for _, m := range run.Report.Missing {
				fmt.Printf("%s  %s\n", run.ID[:8], m.String())
			}
		}
		return nil
	},
}
