// Package cmd provides the root command and wires the command groups.
package cmd

import (
	"github.com/spf13/cobra"

	configcmd "github.com/slfconversion/bpmigrate/internal/cmd/config"
	plancmd "github.com/slfconversion/bpmigrate/internal/cmd/plan"
	runcmd "github.com/slfconversion/bpmigrate/internal/cmd/run"
	snapshotcmd "github.com/slfconversion/bpmigrate/internal/cmd/snapshot"
	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/config"
	"github.com/slfconversion/bpmigrate/internal/output"
)

type rootFlags struct {
	config     string
	verbose    bool
	timestamps bool
	workspace  cmdutil.WorkspaceFlags
}

// NewRootCmd creates the root command. The GlobalConfig shared with the
// sub-commands is filled in PersistentPreRunE.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	g := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "bpmigrate",
		Short: "Blueprint migration engine",
		Long: `bpmigrate moves Blueprint assets onto native parent classes.

Each plan names a target Blueprint, the native class it is reparented
onto, the members the native class now owns, and the dependents whose
references must be refreshed afterwards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return initializeGlobals(c, flags, g)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "Path to config file (env: BPMIGRATE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.timestamps, "timestamps", true, "Show timestamps in log output")
	flags.workspace.AddTo(rootCmd)

	rootCmd.AddCommand(
		runcmd.NewRunCmd(g),
		plancmd.NewPlanCmd(g),
		snapshotcmd.NewSnapshotCmd(g),
		configcmd.NewConfigCmd(g),
		NewVersionCmd(),
	)

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(c *cobra.Command, flags *rootFlags, g *cmdtypes.GlobalConfig) error {
	configPath, err := config.ResolveConfigPath(flags.config)
	if err != nil {
		return err
	}
	expanded, err := config.ExpandPath(configPath.Value)
	if err != nil {
		return err
	}
	configPath.Value = expanded

	cfg, err := config.NewLoader().Load(configPath.Value)
	if err != nil {
		// Don't fail here; config vet reports the problem and the other
		// commands run on defaults.
		output.Debug("config load error", "error", err)
		cfg = &config.Config{}
	}

	// Timestamps: flag (if explicitly set) > config > default (nil = true)
	logCfg := output.LogConfig{Verbose: flags.verbose}
	if c.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(flags.timestamps)
	} else if cfg.Log.Timestamps != nil {
		logCfg.Timestamps = cfg.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	g.Config = cfg
	g.ConfigPath = configPath
	g.Verbose = flags.verbose
	g.Flags = config.Flags{}
	flags.workspace.Apply(&g.Flags)

	if flags.verbose {
		output.Debug("initializing CLI",
			"config", configPath.Value,
			"configSource", configPath.Source,
			"workspace", flags.workspace.Workspace,
		)
	}
	return nil
}
