package snapshot

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/config"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

type captureOptions struct {
	out           string
	allProperties bool
}

// NewCaptureCmd creates the snapshot capture command.
func NewCaptureCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	opts := &captureOptions{}

	c := &cobra.Command{
		Use:   "capture <plan-file>...",
		Short: "Capture the defaults of plan targets",
		Long: `Capture the parent class and class defaults of every plan target.

By default only the sources of each plan's property copies are captured;
a plan without copies captures every editable property. Use
--all-properties to capture everything for every target.`,
		Example: `  bpmigrate snapshot capture plans.yaml --out snap.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runCapture(c, args, g, opts)
		},
	}

	c.Flags().StringVar(&opts.out, "out", "", "Snapshot file to write")
	c.Flags().BoolVar(&opts.allProperties, "all-properties", false, "Capture every editable property of each target")
	_ = c.MarkFlagRequired("out")
	return c
}

func runCapture(c *cobra.Command, args []string, g *cmdtypes.GlobalConfig, opts *captureOptions) error {
	errOut := c.ErrOrStderr()

	rc, err := g.Resolve(config.Flags{})
	if err != nil {
		return cmdutil.Fail(errOut, "invalid configuration", err)
	}

	plans, err := cmdutil.LoadPlans(args)
	if err != nil {
		return cmdutil.Fail(errOut, "loading plans", err)
	}

	// Capture never saves assets.
	ws, err := cmdutil.OpenWorkspace(c.Context(), rc, true)
	if err != nil {
		return cmdutil.Fail(errOut, "opening workspace", err)
	}

	snap := snapshot.Capture(ws, snapshot.TargetsForPlans(plans, opts.allProperties),
		snapshot.WithLogger(output.Logger().WithPrefix("snapshot")))
	for _, w := range snap.Warnings {
		output.Warn(w)
	}

	outPath, err := config.ExpandPath(opts.out)
	if err != nil {
		return fmt.Errorf("expanding snapshot path: %w", err)
	}
	if err := snap.Save(outPath); err != nil {
		return cmdutil.Fail(errOut, "saving snapshot", err)
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf(
		"captured %d assets, %d properties to %s (%s)",
		len(snap.Assets), snap.PropertyCount(), outPath, snap.Digest())))
	return nil
}
