package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/output"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfig, EnvWorkspace, EnvNativeCatalog, EnvSnapshot} {
		t.Setenv(k, "")
	}
}

func configPath() Resolved[string] {
	return Resolved[string]{Value: "/cfg/config.yaml", Source: SourceDefault}
}

func TestResolveAll_Defaults(t *testing.T) {
	clearEnv(t)

	r, err := ResolveAll(configPath(), Flags{}, nil)
	require.NoError(t, err)

	assert.Equal(t, ".", r.Workspace.Value)
	assert.Equal(t, SourceDefault, r.Workspace.Source)
	assert.Empty(t, r.NativeCatalog.Value)
	assert.Equal(t, "_C", r.ClassSuffix.Value)
	assert.Equal(t, output.FormatText, r.ReportFormat.Value)
	assert.False(t, r.ContinueOnFailure.Value)
	assert.True(t, r.FixDependentsOnSkip.Value)
}

func TestResolveAll_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkspace, "/env/ws")
	t.Setenv(EnvSnapshot, "/env/snap.yaml")

	no := false
	cfg := &Config{
		Workspace:           "/cfg/ws",
		Snapshot:            "/cfg/snap.yaml",
		NativeCatalog:       "/cfg/native.yaml",
		ClassSuffix:         "_CFG",
		FixDependentsOnSkip: &no,
		Report:              ReportConfig{Format: "yaml"},
	}
	yes := true
	flags := Flags{Workspace: "/flag/ws", ReportFormat: "json", ContinueOnFailure: &yes}

	r, err := ResolveAll(configPath(), flags, cfg)
	require.NoError(t, err)

	assert.Equal(t, "/flag/ws", r.Workspace.Value)
	assert.Equal(t, SourceFlag, r.Workspace.Source)
	assert.Equal(t, "/env/ws", r.Workspace.Shadowed[SourceEnv])
	assert.Equal(t, "/cfg/ws", r.Workspace.Shadowed[SourceConfig])

	assert.Equal(t, "/env/snap.yaml", r.Snapshot.Value)
	assert.Equal(t, SourceEnv, r.Snapshot.Source)
	assert.Equal(t, "/cfg/snap.yaml", r.Snapshot.Shadowed[SourceConfig])
	assert.NotContains(t, r.Snapshot.Shadowed, SourceFlag)

	assert.Equal(t, "/cfg/native.yaml", r.NativeCatalog.Value)
	assert.Equal(t, SourceConfig, r.NativeCatalog.Source)
	assert.Empty(t, r.NativeCatalog.Shadowed)

	assert.Equal(t, "_CFG", r.ClassSuffix.Value)
	assert.Equal(t, output.FormatJSON, r.ReportFormat.Value)
	assert.Equal(t, output.FormatYAML, r.ReportFormat.Shadowed[SourceConfig])
	assert.True(t, r.ContinueOnFailure.Value)
	assert.False(t, r.FixDependentsOnSkip.Value)
	assert.Equal(t, SourceConfig, r.FixDependentsOnSkip.Source)
}

func TestResolveAll_InvalidFormat(t *testing.T) {
	clearEnv(t)

	_, err := ResolveAll(configPath(), Flags{}, &Config{Report: ReportConfig{Format: "html"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	var de *oerrors.DetailError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "/cfg/config.yaml", de.Location)
}

func TestResolveConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/tester")

	r, err := ResolveConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.bpmigrate/config.yaml", r.Value)
	assert.Equal(t, SourceDefault, r.Source)

	t.Setenv(EnvConfig, "/env/config.yaml")
	r, err = ResolveConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, "/env/config.yaml", r.Value)
	assert.Equal(t, SourceEnv, r.Source)

	r, err = ResolveConfigPath("/flag/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/flag/config.yaml", r.Value)
	assert.Equal(t, SourceFlag, r.Source)
	assert.Equal(t, "/env/config.yaml", r.Shadowed[SourceEnv])
}

func TestResolvedConfig_Values(t *testing.T) {
	clearEnv(t)
	r, err := ResolveAll(configPath(), Flags{ClassSuffix: "_X"}, &Config{ClassSuffix: "_Y"})
	require.NoError(t, err)

	values := r.Values()
	byKey := map[string]ResolvedValue{}
	for _, v := range values {
		byKey[v.Key] = v
	}
	assert.Len(t, values, 9)
	assert.Equal(t, "_X", byKey["classSuffix"].Value)
	assert.Equal(t, "_Y", byKey["classSuffix"].Shadowed[SourceConfig])
	assert.Equal(t, "true", byKey["fixDependentsOnSkip"].Value)
	assert.Equal(t, "text", byKey["report.format"].Value)

	LogResolvedValues(values)
}
