// Package config provides configuration loading and management.
package config

// ReportConfig contains report output settings.
type ReportConfig struct {
	// Format is the report format: text, json or yaml.
	// Default: text
	Format string `json:"format,omitempty" mapstructure:"format"`

	// File, when set, also writes the report to this path.
	File string `json:"file,omitempty" mapstructure:"file"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the bpmigrate configuration.
// Loaded from ~/.bpmigrate/config.yaml, validated against embedded CUE schema.
type Config struct {
	// Workspace is the DNA workspace root.
	// Env: BPMIGRATE_WORKSPACE, Default: current directory
	Workspace string `json:"workspace,omitempty" mapstructure:"workspace"`

	// NativeCatalog is the native class catalog file.
	// Env: BPMIGRATE_NATIVE_CATALOG, Default: <workspace>/native.yaml
	NativeCatalog string `json:"nativeCatalog,omitempty" mapstructure:"nativeCatalog"`

	// Snapshot is the default snapshot file.
	// Env: BPMIGRATE_SNAPSHOT
	Snapshot string `json:"snapshot,omitempty" mapstructure:"snapshot"`

	// ClassSuffix is the generated class suffix of Blueprint assets.
	// Default: _C
	ClassSuffix string `json:"classSuffix,omitempty" mapstructure:"classSuffix"`

	// ContinueOnFailure keeps a batch running after a precheck failure.
	ContinueOnFailure *bool `json:"continueOnFailure,omitempty" mapstructure:"continueOnFailure"`

	// FixDependentsOnSkip refreshes dependents of already-migrated targets.
	FixDependentsOnSkip *bool `json:"fixDependentsOnSkip,omitempty" mapstructure:"fixDependentsOnSkip"`

	// Report contains report output settings.
	Report ReportConfig `json:"report,omitempty" mapstructure:"report"`

	// Log contains logging-related settings.
	Log LogConfig `json:"log,omitempty" mapstructure:"log"`
}

// Built-in defaults.
const (
	DefaultWorkspace           = "."
	DefaultClassSuffix         = "_C"
	DefaultReportFormat        = "text"
	DefaultContinueOnFailure   = false
	DefaultFixDependentsOnSkip = true
)

// DefaultConfigTemplate is written by `bpmigrate config init`.
const DefaultConfigTemplate = `# bpmigrate configuration
#
# Values here are overridden by BPMIGRATE_* environment variables and by
# command-line flags.

# DNA workspace root.
workspace: .

# Native class catalog. Defaults to <workspace>/native.yaml.
# nativeCatalog: ./native.yaml

# Snapshot used by 'bpmigrate run' when --snapshot is not given.
# snapshot: ./snapshot.yaml

classSuffix: _C
continueOnFailure: false
fixDependentsOnSkip: true

report:
  format: text
  # file: ./reports/last-run.txt

log:
  timestamps: true
`
