package config

import (
	"fmt"
	"os"
	"strconv"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// Resolved is one configuration value and its provenance.
type Resolved[T any] struct {
	Value  T
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]T
}

// candidate is one source's value; nil when the source did not set it.
type candidate[T any] struct {
	source ConfigSource
	value  *T
}

// resolve applies precedence in the order candidates are given, falling
// back to def.
func resolve[T any](def T, candidates ...candidate[T]) Resolved[T] {
	r := Resolved[T]{Value: def, Source: SourceDefault, Shadowed: map[ConfigSource]T{}}
	found := false
	for _, c := range candidates {
		if c.value == nil {
			continue
		}
		if found {
			r.Shadowed[c.source] = *c.value
			continue
		}
		r.Value, r.Source, found = *c.value, c.source, true
	}
	return r
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func envString(key string) *string {
	return nonEmpty(os.Getenv(key))
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) BPMIGRATE_CONFIG env, (3) ~/.bpmigrate/config.yaml
func ResolveConfigPath(flagValue string) (Resolved[string], error) {
	paths, err := DefaultPaths()
	if err != nil {
		return Resolved[string]{}, err
	}
	return resolve(paths.ConfigFile,
		candidate[string]{SourceFlag, nonEmpty(flagValue)},
		candidate[string]{SourceEnv, envString(EnvConfig)},
	), nil
}

// Flags carries the command-line values. Empty strings and nil pointers
// mean the flag was not given.
type Flags struct {
	Workspace           string
	NativeCatalog       string
	Snapshot            string
	ReportFormat        string
	ReportFile          string
	ClassSuffix         string
	ContinueOnFailure   *bool
	FixDependentsOnSkip *bool
}

// ResolvedConfig is the effective configuration of one invocation.
type ResolvedConfig struct {
	ConfigPath          Resolved[string]
	Workspace           Resolved[string]
	NativeCatalog       Resolved[string]
	Snapshot            Resolved[string]
	ReportFormat        Resolved[output.OutputFormat]
	ReportFile          Resolved[string]
	ClassSuffix         Resolved[string]
	ContinueOnFailure   Resolved[bool]
	FixDependentsOnSkip Resolved[bool]
}

// ResolveAll resolves every value using flag > env > config > default.
// cfg may be nil.
func ResolveAll(configPath Resolved[string], flags Flags, cfg *Config) (*ResolvedConfig, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &ResolvedConfig{
		ConfigPath: configPath,
		Workspace: resolve(DefaultWorkspace,
			candidate[string]{SourceFlag, nonEmpty(flags.Workspace)},
			candidate[string]{SourceEnv, envString(EnvWorkspace)},
			candidate[string]{SourceConfig, nonEmpty(cfg.Workspace)},
		),
		NativeCatalog: resolve("",
			candidate[string]{SourceFlag, nonEmpty(flags.NativeCatalog)},
			candidate[string]{SourceEnv, envString(EnvNativeCatalog)},
			candidate[string]{SourceConfig, nonEmpty(cfg.NativeCatalog)},
		),
		Snapshot: resolve("",
			candidate[string]{SourceFlag, nonEmpty(flags.Snapshot)},
			candidate[string]{SourceEnv, envString(EnvSnapshot)},
			candidate[string]{SourceConfig, nonEmpty(cfg.Snapshot)},
		),
		ReportFile: resolve("",
			candidate[string]{SourceFlag, nonEmpty(flags.ReportFile)},
			candidate[string]{SourceConfig, nonEmpty(cfg.Report.File)},
		),
		ClassSuffix: resolve(DefaultClassSuffix,
			candidate[string]{SourceFlag, nonEmpty(flags.ClassSuffix)},
			candidate[string]{SourceConfig, nonEmpty(cfg.ClassSuffix)},
		),
		ContinueOnFailure: resolve(DefaultContinueOnFailure,
			candidate[bool]{SourceFlag, flags.ContinueOnFailure},
			candidate[bool]{SourceConfig, cfg.ContinueOnFailure},
		),
		FixDependentsOnSkip: resolve(DefaultFixDependentsOnSkip,
			candidate[bool]{SourceFlag, flags.FixDependentsOnSkip},
			candidate[bool]{SourceConfig, cfg.FixDependentsOnSkip},
		),
	}

	format := resolve(DefaultReportFormat,
		candidate[string]{SourceFlag, nonEmpty(flags.ReportFormat)},
		candidate[string]{SourceConfig, nonEmpty(cfg.Report.Format)},
	)
	parsed, ok := output.ParseOutputFormat(format.Value)
	r.ReportFormat = Resolved[output.OutputFormat]{
		Value:    parsed,
		Source:   format.Source,
		Shadowed: map[ConfigSource]output.OutputFormat{},
	}
	for src, v := range format.Shadowed {
		r.ReportFormat.Shadowed[src], _ = output.ParseOutputFormat(v)
	}
	if !ok {
		location := "--output"
		if format.Source == SourceConfig {
			location = configPath.Value
		}
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid report format %q", format.Value),
			location, "report.format",
			fmt.Sprintf("Valid formats: %v", output.ValidFormats()))
	}

	for _, p := range []*Resolved[string]{&r.Workspace, &r.NativeCatalog, &r.Snapshot, &r.ReportFile} {
		expanded, err := ExpandPath(p.Value)
		if err != nil {
			return nil, fmt.Errorf("expanding path %q: %w", p.Value, err)
		}
		p.Value = expanded
	}

	return r, nil
}

// ResolvedValue is the loggable form of one resolved value.
type ResolvedValue struct {
	Key      string
	Value    string
	Source   ConfigSource
	Shadowed map[ConfigSource]string
}

func loggable[T any](key string, r Resolved[T], format func(T) string) ResolvedValue {
	v := ResolvedValue{Key: key, Value: format(r.Value), Source: r.Source, Shadowed: map[ConfigSource]string{}}
	for src, s := range r.Shadowed {
		v.Shadowed[src] = format(s)
	}
	return v
}

func str(s string) string { return s }

// Values lists every resolved value for logging.
func (r *ResolvedConfig) Values() []ResolvedValue {
	return []ResolvedValue{
		loggable("config", r.ConfigPath, str),
		loggable("workspace", r.Workspace, str),
		loggable("nativeCatalog", r.NativeCatalog, str),
		loggable("snapshot", r.Snapshot, str),
		loggable("report.format", r.ReportFormat, output.OutputFormat.String),
		loggable("report.file", r.ReportFile, str),
		loggable("classSuffix", r.ClassSuffix, str),
		loggable("continueOnFailure", r.ContinueOnFailure, strconv.FormatBool),
		loggable("fixDependentsOnSkip", r.FixDependentsOnSkip, strconv.FormatBool),
	}
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
