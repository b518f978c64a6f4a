// Package snapshot provides the snapshot command group: capture before a
// migration, verify afterwards.
package snapshot

import (
	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
)

// NewSnapshotCmd creates the snapshot command group.
func NewSnapshotCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and verify Blueprint defaults",
		Long: `Capture Blueprint class defaults before a migration and verify them
afterwards. A snapshot is a YAML document keyed by asset path.`,
	}

	c.AddCommand(
		NewCaptureCmd(g),
		NewVerifyCmd(g),
	)
	return c
}
