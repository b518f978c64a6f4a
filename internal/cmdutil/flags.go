// Package cmdutil provides shared command utilities: flag groups, workspace
// and plan loading, and error printing.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/config"
)

// WorkspaceFlags holds the persistent flags that locate the workspace.
type WorkspaceFlags struct {
	Workspace     string
	NativeCatalog string
	ClassSuffix   string
}

// AddTo registers the workspace flags as persistent flags of cmd.
func (f *WorkspaceFlags) AddTo(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.Workspace, "workspace", "w", "",
		"DNA workspace root (env: BPMIGRATE_WORKSPACE)")
	cmd.PersistentFlags().StringVar(&f.NativeCatalog, "native-catalog", "",
		"Native class catalog file (env: BPMIGRATE_NATIVE_CATALOG, default: <workspace>/native.yaml)")
	cmd.PersistentFlags().StringVar(&f.ClassSuffix, "class-suffix", "",
		"Generated class suffix of Blueprint assets (default: _C)")
}

// Apply copies the flag values into dst.
func (f *WorkspaceFlags) Apply(dst *config.Flags) {
	dst.Workspace = f.Workspace
	dst.NativeCatalog = f.NativeCatalog
	dst.ClassSuffix = f.ClassSuffix
}

// RunFlags holds the flags of commands that execute plans (run).
type RunFlags struct {
	Snapshot            string
	Output              string
	ReportFile          string
	ContinueOnFailure   bool
	FixDependentsOnSkip bool
	DryRun              bool
}

// AddTo registers the run flags on cmd.
func (f *RunFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Snapshot, "snapshot", "",
		"Snapshot captured before migration (env: BPMIGRATE_SNAPSHOT)")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "",
		"Report format: text, json, yaml (default: text)")
	cmd.Flags().StringVar(&f.ReportFile, "report-file", "",
		"Also write the report to this file")
	cmd.Flags().BoolVar(&f.ContinueOnFailure, "continue-on-failure", false,
		"Keep running plans after a precheck failure")
	cmd.Flags().BoolVar(&f.FixDependentsOnSkip, "fix-dependents-on-skip", true,
		"Refresh dependents of targets that are already migrated")
	cmd.Flags().BoolVar(&f.DryRun, "dry-run", false,
		"Run every phase but save nothing")
}

// ConfigFlags converts the values for the resolver. Boolean flags count only
// when given explicitly.
func (f *RunFlags) ConfigFlags(cmd *cobra.Command) config.Flags {
	out := config.Flags{
		Snapshot:     f.Snapshot,
		ReportFormat: f.Output,
		ReportFile:   f.ReportFile,
	}
	if cmd.Flags().Changed("continue-on-failure") {
		v := f.ContinueOnFailure
		out.ContinueOnFailure = &v
	}
	if cmd.Flags().Changed("fix-dependents-on-skip") {
		v := f.FixDependentsOnSkip
		out.FixDependentsOnSkip = &v
	}
	return out
}
