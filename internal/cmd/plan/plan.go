// Package plan provides the plan command group.
package plan

import (
	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
)

// NewPlanCmd creates the plan command group.
func NewPlanCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "plan",
		Short: "Migration plan operations",
		Long:  `Commands for checking migration plan documents.`,
	}

	c.AddCommand(NewVetCmd(g))
	return c
}
