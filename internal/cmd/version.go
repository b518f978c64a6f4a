package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for bpmigrate, including the CUE SDK used for plan schemas.`,
		RunE: func(c *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(c.OutOrStdout(), info.String())
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	return c
}
