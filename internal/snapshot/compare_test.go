package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/testutil"
)

func TestCompare_UnchangedStateHasNoMismatches(t *testing.T) {
	w := testutil.FooWorkspace(t)
	snap := Capture(w, []Target{{Path: testutil.FooPath}, {Path: testutil.FooLegacyPath}, {Path: testutil.UserPath}})

	assert.Empty(t, Compare(w, snap, nil))
}

func TestCompare_DetectsDrift(t *testing.T) {
	w := testutil.FooWorkspace(t)
	snap := Capture(w, []Target{{Path: testutil.FooPath}})

	bp := testutil.MustLoad(t, w, testutil.FooPath)
	require.NoError(t, w.WriteCDOProperty(bp, "Speed", core.Primitive(10)))
	_, err := w.RemoveVariable(bp, "Label")
	require.NoError(t, err)

	mismatches := Compare(w, snap, nil)
	require.Len(t, mismatches, 2)

	assert.Equal(t, "Label", mismatches[0].Property)
	assert.Equal(t, "property missing", mismatches[0].Reason)
	assert.Nil(t, mismatches[0].Actual)

	assert.Equal(t, "Speed", mismatches[1].Property)
	require.NotNil(t, mismatches[1].Actual)
	assert.Contains(t, mismatches[1].String(), "expected 600")
}

func TestCompare_Aliases(t *testing.T) {
	w := testutil.FooWorkspace(t)
	snap := Capture(w, []Target{{Path: testutil.FooPath}})

	// Rename by hand: the value now lives under Mode, Label is dropped.
	bp := testutil.MustLoad(t, w, testutil.FooPath)
	w.Document(testutil.FooPath).Defaults["Mode"] = core.Primitive(600)
	_, err := w.RemoveVariable(bp, "Label")
	require.NoError(t, err)

	aliases := Aliases{testutil.FooPath: {"Speed": "Mode", "Label": ""}}
	assert.Empty(t, Compare(w, snap, aliases))
}

func TestCompare_MissingAsset(t *testing.T) {
	w := testutil.FooWorkspace(t)
	snap := New()
	snap.Assets["/Game/X/Gone"] = &Asset{Properties: map[string]core.Value{}}

	mismatches := Compare(w, snap, nil)
	require.Len(t, mismatches, 1)
	assert.Contains(t, mismatches[0].Reason, "not loadable")
}

func TestAliasesForPlans(t *testing.T) {
	p := plan.MustNew(plan.Spec{
		Target:          testutil.FooPath,
		NewParent:       testutil.CppFoo,
		DeleteVariables: []string{"Speed", "Label"},
		PropertyCopies:  []plan.PropertyCopy{{From: "Speed", To: "MaxSpeed"}},
	})

	aliases := AliasesForPlans([]*plan.Plan{p})
	assert.Equal(t, map[string]string{"Speed": "MaxSpeed", "Label": ""}, aliases[testutil.FooPath])
}

func TestRenderDrift(t *testing.T) {
	actual := core.Primitive(10)
	mismatches := []Mismatch{
		{Asset: testutil.FooPath, Property: "Speed", Expected: core.Primitive(600), Actual: &actual, Reason: "value differs"},
		{Asset: testutil.FooPath, Property: "Label", Expected: core.Primitive("foo"), Reason: "property missing"},
	}

	out, err := RenderDrift(mismatches, false)
	require.NoError(t, err)
	assert.Contains(t, out, "Speed")
	assert.Contains(t, out, "Label")

	out, err = RenderDrift(nil, false)
	require.NoError(t, err)
	assert.Empty(t, out)
}
