package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/config"
	"github.com/slfconversion/bpmigrate/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Validate the bpmigrate configuration file against the internal schema.

The command validates the configuration file at ~/.bpmigrate/config.yaml by default.
Use --config flag to specify a different location.`,
		RunE: func(c *cobra.Command, _ []string) error {
			return runVet(c, g)
		},
	}
}

func runVet(c *cobra.Command, g *cmdtypes.GlobalConfig) error {
	path := g.ConfigPath.Value

	validator, err := config.NewValidator()
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}
	if err := validator.ValidateFile(path); err != nil {
		return cmdutil.Fail(c.ErrOrStderr(), "config validation failed", err)
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Config file is valid: "+path))
	return nil
}
