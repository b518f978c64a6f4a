package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

const planSetYAML = `plans:
  - target: /Game/Stats/AC_StatManager
    new_parent: /Script/SLFConversion.StatManagerComponent
    delete_functions: [AdjustStat, GetStat]
    delete_variables: [Stats]
    clear_event_graph: true
    property_copies:
      - from: Stats
        to: Stats
    pin_rewrites:
      /Game/Enums/E_ValueType.E_ValueType:
        NewEnumerator2: MaxValue
        NewEnumerator0: CurrentValue
    dependents:
      - /Game/UI/W_StatEntry
  - target: /Game/Combat/AC_Combat
    new_parent: /Script/SLFConversion.CombatComponent
`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader()
	require.NoError(t, err)
	return l
}

func TestLoader_ParseYAML(t *testing.T) {
	plans, err := newLoader(t).Parse([]byte(planSetYAML), "plans.yaml")
	require.NoError(t, err)
	require.Len(t, plans, 2)

	first := plans[0]
	assert.Equal(t, "AC_StatManager", first.Name())
	assert.Equal(t, "plans.yaml#plans[0]", first.Source())
	assert.Equal(t, []string{"AdjustStat", "GetStat"}, first.DeleteFunctions())
	assert.True(t, first.ClearEventGraph())

	rw := first.PinRewrites()
	require.Len(t, rw, 1)
	assert.Equal(t, []LiteralRule{
		{Old: "NewEnumerator0", New: "CurrentValue"},
		{Old: "NewEnumerator2", New: "MaxValue"},
	}, rw[0].Rules)

	assert.Equal(t, "AC_Combat", plans[1].Name())
	assert.Empty(t, plans[1].DeleteFunctions())
}

func TestLoader_ParseSinglePlan(t *testing.T) {
	doc := `{"target": "/Game/A/BP_A", "new_parent": "/Script/M.CppA"}`
	plans, err := newLoader(t).Parse([]byte(doc), "one.json")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "one.json", plans[0].Source())
}

func TestLoader_ParseCUE(t *testing.T) {
	doc := `
plans: [{
	target:     "/Game/A/BP_A"
	new_parent: "/Script/M.CppA"
	delete_variables: ["Speed"]
}]
`
	plans, err := newLoader(t).Parse([]byte(doc), "plans.cue")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"Speed"}, plans[0].DeleteVariables())
}

func TestLoader_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing new_parent", "plans:\n  - target: /Game/A/BP_A\n"},
		{"script target", "plans:\n  - target: /Script/M.A\n    new_parent: /Script/M.B\n"},
		{"unknown field", "plans:\n  - target: /Game/A/BP_A\n    new_parent: /Script/M.B\n    bogus: 1\n"},
		{"wrong type", "plans:\n  - target: /Game/A/BP_A\n    new_parent: /Script/M.B\n    clear_event_graph: yes-please\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(t).Parse([]byte(tt.doc), "bad.yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, oerrors.ErrValidation))

			var detail *oerrors.DetailError
			require.True(t, errors.As(err, &detail))
			assert.Equal(t, "bad.yaml", detail.Location)
		})
	}
}

func TestLoader_SemanticErrors(t *testing.T) {
	doc := "plans:\n  - target: /Game/A/BP_A\n    new_parent: /Script/M.B\n    delete_functions: [X]\n    delete_variables: [X]\n"
	_, err := newLoader(t).Parse([]byte(doc), "overlap.yaml")

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "overlap.yaml#plans[0]", verrs.Source)
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte(planSetYAML), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`{"target": "/Game/Z/BP_Z", "new_parent": "/Script/M.Z"}`), 0o644))

	plans, err := newLoader(t).LoadFiles(a, b)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "BP_Z", plans[2].Name())

	_, err = newLoader(t).LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
}

func TestPlan_Document(t *testing.T) {
	plans, err := newLoader(t).Parse([]byte(planSetYAML), "plans.yaml")
	require.NoError(t, err)

	doc := plans[0].Document()
	assert.Equal(t, "/Game/Stats/AC_StatManager", doc["target"])
	assert.Equal(t, map[string]map[string]string{
		"/Game/Enums/E_ValueType.E_ValueType": {"NewEnumerator0": "CurrentValue", "NewEnumerator2": "MaxValue"},
	}, doc["pin_rewrites"])
	assert.NotContains(t, plans[1].Document(), "delete_functions")
}
