// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and its sub-packages.
package cmdtypes

import (
	"github.com/slfconversion/bpmigrate/internal/config"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// Config is the loaded config file, empty when none exists.
	Config *config.Config

	// ConfigPath is the resolved --config path.
	ConfigPath config.Resolved[string]

	// Flags holds the persistent flag values (workspace, catalog, suffix).
	Flags config.Flags

	Verbose bool
}

// Resolve resolves the effective configuration, layering command flags over
// the persistent ones.
func (g *GlobalConfig) Resolve(cmdFlags config.Flags) (*config.ResolvedConfig, error) {
	merged := g.Flags
	if cmdFlags.Snapshot != "" {
		merged.Snapshot = cmdFlags.Snapshot
	}
	if cmdFlags.ReportFormat != "" {
		merged.ReportFormat = cmdFlags.ReportFormat
	}
	if cmdFlags.ReportFile != "" {
		merged.ReportFile = cmdFlags.ReportFile
	}
	if cmdFlags.ContinueOnFailure != nil {
		merged.ContinueOnFailure = cmdFlags.ContinueOnFailure
	}
	if cmdFlags.FixDependentsOnSkip != nil {
		merged.FixDependentsOnSkip = cmdFlags.FixDependentsOnSkip
	}

	resolved, err := config.ResolveAll(g.ConfigPath, merged, g.Config)
	if err != nil {
		return nil, err
	}
	if g.Verbose {
		config.LogResolvedValues(resolved.Values())
	}
	return resolved, nil
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess             = oerrors.ExitSuccess
	ExitGeneralError        = oerrors.ExitGeneralError
	ExitValidationError     = oerrors.ExitValidationError
	ExitNotFound            = oerrors.ExitNotFound
	ExitMigrationIncomplete = oerrors.ExitMigrationIncomplete
	ExitSnapshotDrift       = oerrors.ExitSnapshotDrift
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError
