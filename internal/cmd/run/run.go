// Package run provides the run command, which executes migration plans.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/orchestrator"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

// NewRunCmd creates the run command.
func NewRunCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	var rf cmdutil.RunFlags

	c := &cobra.Command{
		Use:   "run <plan-file>...",
		Short: "Run migration plans against a workspace",
		Long: `Run migration plans against a workspace.

Plans run in file order. Each target is checked, cleaned, reparented,
compiled, verified against the snapshot and saved. Dependents listed by
the plan are then refreshed. A precheck failure stops the batch unless
--continue-on-failure is set.

The report lists every plan, including plans that never ran.`,
		Example: `  # Run one plan file with a snapshot captured earlier
  bpmigrate run plans.yaml --workspace ./Content --snapshot snap.yaml

  # Preview without saving, report as JSON
  bpmigrate run plans.yaml --dry-run -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runRun(c, args, g, &rf)
		},
	}

	rf.AddTo(c)
	return c
}

func runRun(c *cobra.Command, args []string, g *cmdtypes.GlobalConfig, rf *cmdutil.RunFlags) error {
	errOut := c.ErrOrStderr()

	rc, err := g.Resolve(rf.ConfigFlags(c))
	if err != nil {
		return cmdutil.Fail(errOut, "invalid configuration", err)
	}

	plans, err := cmdutil.LoadPlans(args)
	if err != nil {
		return cmdutil.Fail(errOut, "loading plans", err)
	}

	var snap *snapshot.Snapshot
	if rc.Snapshot.Value != "" {
		snap, err = snapshot.Load(rc.Snapshot.Value)
		if err != nil {
			return cmdutil.Fail(errOut, "loading snapshot", err)
		}
		output.Debug("snapshot loaded", "path", rc.Snapshot.Value, "digest", snap.Digest())
	} else {
		output.Warn("no snapshot given; property verification is skipped")
	}

	ws, err := cmdutil.OpenWorkspace(c.Context(), rc, rf.DryRun)
	if err != nil {
		return cmdutil.Fail(errOut, "opening workspace", err)
	}

	orch := orchestrator.New(ws, orchestrator.Options{
		ContinueOnFailure:   rc.ContinueOnFailure.Value,
		FixDependentsOnSkip: rc.FixDependentsOnSkip.Value,
		DryRun:              rf.DryRun,
		ClassSuffix:         rc.ClassSuffix.Value,
		Logger:              output.Logger(),
	})
	rep := orch.Run(plans, snap)

	format := rc.ReportFormat.Value
	color := format == output.FormatText && output.IsTTY()
	if err := rep.Write(c.OutOrStdout(), format, color); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if format != output.FormatText {
		for _, e := range rep.Entries {
			status := string(e.Status)
			if e.NotRun {
				status = "NOT_RUN"
			}
			fmt.Fprintln(errOut, output.FormatPlanLine(string(e.Target), status))
		}
	}

	if rc.ReportFile.Value != "" {
		if err := rep.Save(rc.ReportFile.Value, output.FormatForFile(rc.ReportFile.Value, format)); err != nil {
			return cmdutil.Fail(errOut, "saving report", err)
		}
		output.Info("report saved", "path", rc.ReportFile.Value)
	}

	if code := rep.ExitCode(); code != cmdtypes.ExitSuccess {
		return &cmdtypes.ExitError{
			Err:  fmt.Errorf("%d of %d plans did not complete", rep.Totals.Failed+rep.Totals.NotRun, rep.Totals.Plans),
			Code: code,
		}
	}
	return nil
}
