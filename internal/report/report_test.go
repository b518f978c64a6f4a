package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/engine"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/fixer"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/testutil"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedReport() *Report {
	return New(WithRunID("run-1"), WithClock(func() time.Time { return fixedTime }))
}

func completeEntry() *Entry {
	res := &engine.Result{
		Plan:      "BP_Foo",
		Target:    testutil.FooPath,
		NewParent: testutil.CppFoo,
		Status:    core.StatusComplete,
		Pre:       engine.State{Parent: testutil.FooLegacyPath},
		Post:      engine.State{Parent: testutil.CppFoo},
		Counts: engine.Counts{
			FunctionsRemoved:       1,
			VariablesRemoved:       1,
			DispatchersRemoved:     1,
			EventGraphNodesCleared: 2,
			PinsRewritten:          1,
			UnknownLiterals:        1,
			PropertiesCopied:       1,
		},
		UnknownLiterals: []string{"Helper/SetY.Type=NewEnumerator5"},
	}
	deps := &fixer.Result{Plan: "BP_Foo", Dependents: []*fixer.DependentResult{
		{Asset: testutil.UserPath, Status: fixer.StatusFixed, CallSitesRewritten: 1, BindingsFixed: 1,
			PinsRewritten: 3, NodesTouched: 5, UnknownLiterals: []string{"EventGraph/SetD.Type=NewEnumerator2"}},
		{Asset: "/Game/UI/Gone", Status: fixer.StatusSkippedMissing, Issues: []core.Issue{
			{Kind: oerrors.KindAssetMissing, Phase: core.PhaseDependents, Asset: "/Game/UI/Gone", Message: "asset missing"},
		}},
	}}
	return &Entry{Result: res, Dependents: deps}
}

func TestNew_GeneratesRunID(t *testing.T) {
	a, b := New(), New()
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestFinish_Totals(t *testing.T) {
	r := fixedReport()
	r.Add(completeEntry())
	r.Add(&Entry{Plan: "BP_Bar", Target: "/Game/X/BP_Bar", Result: &engine.Result{
		Plan: "BP_Bar", Target: "/Game/X/BP_Bar", Status: core.StatusPrecheckFailed, StoppedAt: core.PhasePrecheck,
		Issues: []core.Issue{{Kind: oerrors.KindNativeClassMissing, Phase: core.PhasePrecheck, Message: "no class"}},
	}})
	r.Add(&Entry{Plan: "BP_Baz", Target: "/Game/X/BP_Baz", Status: core.StatusPending, NotRun: true})
	r.Finish()

	assert.Equal(t, "BP_Foo", r.Entries[0].Plan)
	assert.Equal(t, core.StatusComplete, r.Entries[0].Status)
	assert.Equal(t, fixedTime, r.FinishedAt)

	tot := r.Totals
	assert.Equal(t, 3, tot.Plans)
	assert.Equal(t, 1, tot.Complete)
	assert.Equal(t, 1, tot.Failed)
	assert.Equal(t, 1, tot.NotRun)
	assert.Equal(t, 2, tot.EventGraphNodesCleared)
	assert.Equal(t, 1, tot.DependentsProcessed)
	assert.Equal(t, 5, tot.DependentNodesTouched)
	assert.Equal(t, 3, tot.DependentPinsRewritten)
	assert.Equal(t, 2, tot.UnknownLiterals)
	assert.Equal(t, 2, tot.Issues)

	kinds := map[string]int{}
	for _, a := range r.Anomalies {
		kinds[a.Kind]++
	}
	assert.Equal(t, 2, kinds[AnomalyUnknownLiteral])
	assert.Equal(t, 1, kinds[AnomalySkippedDependent])
	assert.Equal(t, 1, kinds[AnomalyNotRun])
	assert.Equal(t, 1, kinds[oerrors.KindNativeClassMissing])
	assert.Equal(t, 1, kinds[oerrors.KindAssetMissing])
}

func TestExitCode(t *testing.T) {
	r := fixedReport()
	r.Add(completeEntry())
	r.Add(&Entry{Result: &engine.Result{Plan: "BP_Done", Status: core.StatusSkippedIdempotent}})
	r.Finish()
	assert.True(t, r.Success())
	assert.Equal(t, oerrors.ExitSuccess, r.ExitCode())

	r.Add(&Entry{Plan: "BP_Late", Status: core.StatusPending, NotRun: true})
	assert.False(t, r.Success())
	assert.Equal(t, oerrors.ExitMigrationIncomplete, r.ExitCode())
}

func TestWriteText_ListsEveryCount(t *testing.T) {
	r := fixedReport()
	r.SnapshotDigest = "sha256:abc"
	r.Warn("target %s appears twice", "/Game/X/BP_Foo")
	r.Add(completeEntry())
	r.Add(&Entry{Plan: "BP_Baz", Target: "/Game/X/BP_Baz", Status: core.StatusPending, NotRun: true})
	r.Finish()

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf, false))
	out := buf.String()

	for _, want := range []string{
		"run-1",
		"snapshot: sha256:abc",
		"warning: target /Game/X/BP_Foo appears twice",
		"functions removed: 1",
		"variables removed: 1",
		"dispatchers removed: 1",
		"event graph nodes cleared: 2",
		"pins rewritten: 1 (unknown literals 1)",
		"dependents processed: 1",
		"nodes touched in dependents: 5",
		"verification mismatches: 0",
		"PENDING (not run)",
		"PLAN",
		"anomalies (",
		"EventGraph/SetD.Type=NewEnumerator2",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "plain output carries no escape codes")
}

func TestWriteJSON(t *testing.T) {
	r := fixedReport()
	r.Add(completeEntry())
	r.Finish()

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, output.FormatJSON, false))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["runId"])
	totals := doc["totals"].(map[string]any)
	assert.EqualValues(t, 1, totals["complete"])
	entries := doc["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "COMPLETE", entries[0].(map[string]any)["status"])
}

func TestSaveYAML(t *testing.T) {
	r := fixedReport()
	r.Add(completeEntry())
	r.Finish()

	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "reports", "run.yaml")
	require.NoError(t, r.Save(path, output.FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(testutil.ReadFile(t, path)), &doc))
	assert.Equal(t, "run-1", doc["runId"])
	assert.Contains(t, doc, "anomalies")
}
