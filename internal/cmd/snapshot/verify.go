package snapshot

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/config"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

type verifyOptions struct {
	snapshot string
}

// NewVerifyCmd creates the snapshot verify command.
func NewVerifyCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	opts := &verifyOptions{}

	c := &cobra.Command{
		Use:   "verify <plan-file>...",
		Short: "Compare current defaults with a snapshot",
		Long: `Compare the current class defaults of the snapshot's assets with the
captured values. Property copies in the plans redirect a captured name to
the native property that now holds it; deleted variables that are not
copied are not checked.

Exits with code 7 when any value drifted.`,
		Example: `  bpmigrate snapshot verify plans.yaml --snapshot snap.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runVerify(c, args, g, opts)
		},
	}

	c.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file (env: BPMIGRATE_SNAPSHOT)")
	return c
}

func runVerify(c *cobra.Command, args []string, g *cmdtypes.GlobalConfig, opts *verifyOptions) error {
	errOut := c.ErrOrStderr()
	out := c.OutOrStdout()

	rc, err := g.Resolve(config.Flags{Snapshot: opts.snapshot})
	if err != nil {
		return cmdutil.Fail(errOut, "invalid configuration", err)
	}
	if rc.Snapshot.Value == "" {
		return cmdutil.Fail(errOut, "no snapshot",
			oerrors.NewValidationError("no snapshot file given", "--snapshot", "snapshot",
				"Pass --snapshot, set BPMIGRATE_SNAPSHOT, or set snapshot in the config file"))
	}

	plans, err := cmdutil.LoadPlans(args)
	if err != nil {
		return cmdutil.Fail(errOut, "loading plans", err)
	}
	snap, err := snapshot.Load(rc.Snapshot.Value)
	if err != nil {
		return cmdutil.Fail(errOut, "loading snapshot", err)
	}

	ws, err := cmdutil.OpenWorkspace(c.Context(), rc, true)
	if err != nil {
		return cmdutil.Fail(errOut, "opening workspace", err)
	}

	mismatches := snapshot.Compare(ws, snap, snapshot.AliasesForPlans(plans),
		snapshot.WithLogger(output.Logger().WithPrefix("snapshot")))
	if len(mismatches) == 0 {
		fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf(
			"%d properties match snapshot %s", snap.PropertyCount(), snap.Digest())))
		return nil
	}

	for _, m := range mismatches {
		fmt.Fprintln(out, output.FormatCross(m.String()))
	}
	drift, err := snapshot.RenderDrift(mismatches, output.IsTTY())
	if err != nil {
		output.Debug("rendering drift failed", "error", err)
	} else if drift != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, drift)
	}

	return &cmdtypes.ExitError{
		Err:  oerrors.Wrapf(oerrors.ErrVerificationMismatch, "%d properties drifted from snapshot", len(mismatches)),
		Code: cmdtypes.ExitSnapshotDrift,
	}
}
