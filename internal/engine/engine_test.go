package engine

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/host/dna"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
	"github.com/slfconversion/bpmigrate/internal/testutil"
)

func quietEngine(w *dna.Workspace, opts ...Option) *Engine {
	return New(w, append([]Option{WithLogger(output.Discard())}, opts...)...)
}

func speed(t *testing.T, w *dna.Workspace) core.Value {
	t.Helper()
	v, ok := w.Document(testutil.FooPath).Defaults["Speed"]
	require.True(t, ok, "Speed default missing")
	return v
}

func assertPrimitive(t *testing.T, want any, got core.Value) {
	t.Helper()
	eq, reason := core.Primitive(want).Equal(got)
	assert.True(t, eq, "%s (got %s)", reason, got)
}

func TestRun_FreshMigration(t *testing.T) {
	w := testutil.FooWorkspace(t)
	p := plan.MustNew(plan.Spec{
		Target:          testutil.FooPath,
		NewParent:       testutil.CppFoo,
		DeleteFunctions: []string{"Tick"},
		DeleteVariables: []string{"Speed"},
		PropertyCopies:  []plan.PropertyCopy{{From: "Speed", To: "Speed"}},
	})
	snap := snapshot.New()
	snap.Assets[testutil.FooPath] = &snapshot.Asset{
		ParentClass: testutil.FooLegacyPath,
		Properties:  map[string]core.Value{"Speed": core.Primitive(600)},
	}

	res := quietEngine(w).Run(p, snap)

	assert.Equal(t, core.StatusComplete, res.Status, "issues: %v", res.Issues)
	assert.Empty(t, res.StoppedAt)
	assert.Equal(t, testutil.FooLegacyPath, res.Pre.Parent)
	assert.Equal(t, testutil.CppFoo, res.Post.Parent)
	assert.Equal(t, 1, res.FunctionsRemoved)
	assert.Equal(t, 1, res.VariablesRemoved)
	assert.Equal(t, 1, res.PropertiesCopied)

	doc := w.Document(testutil.FooPath)
	assert.Equal(t, testutil.CppFoo, doc.Parent)
	bp := testutil.MustLoad(t, w, testutil.FooPath)
	assert.NotContains(t, w.ListVariables(bp), "Speed")
	assertPrimitive(t, 600, speed(t, w))
}

func TestRun_FullPlanWithoutSnapshot(t *testing.T) {
	w := testutil.FooWorkspace(t)
	res := quietEngine(w).Run(testutil.FooPlan(t), nil)

	require.Equal(t, core.StatusComplete, res.Status, "issues: %v", res.Issues)
	assert.Equal(t, 3, res.MembersRemoved())
	assert.Equal(t, 2, res.EventGraphNodesCleared)
	assert.Zero(t, res.Post.EventGraphNodes)
	assertPrimitive(t, 600, speed(t, w))
}

func TestRun_IdempotentRerun(t *testing.T) {
	w := testutil.FooWorkspace(t)
	e := quietEngine(w)
	p := testutil.FooPlan(t)

	first := e.Run(p, nil)
	require.Equal(t, core.StatusComplete, first.Status)
	afterFirst := map[string]core.Value{}
	for k, v := range w.Document(testutil.FooPath).Defaults {
		afterFirst[k] = v
	}

	second := e.Run(p, nil)
	assert.Equal(t, core.StatusSkippedIdempotent, second.Status)
	assert.Zero(t, second.MembersRemoved())
	assert.Zero(t, second.EventGraphNodesCleared)
	assert.Zero(t, second.PinsRewritten)
	assert.Equal(t, afterFirst, w.Document(testutil.FooPath).Defaults)
	assertPrimitive(t, 600, speed(t, w))
}

func TestRun_MissingNativeModule(t *testing.T) {
	w := testutil.FooWorkspace(t)
	before := *w.Document(testutil.FooPath)
	p := plan.MustNew(plan.Spec{
		Target:          testutil.FooPath,
		NewParent:       "/Script/Unknown.Foo",
		DeleteVariables: []string{"Speed"},
	})

	res := quietEngine(w).Run(p, nil)

	assert.Equal(t, core.StatusPrecheckFailed, res.Status)
	assert.Equal(t, core.PhasePrecheck, res.StoppedAt)
	assert.True(t, res.HasIssue(oerrors.KindNativeClassMissing))
	after := w.Document(testutil.FooPath)
	assert.Equal(t, before.Variables, after.Variables)
	assert.Equal(t, before.Parent, after.Parent)
	assert.Equal(t, res.Pre, res.Post)
}

func TestRun_MissingTarget(t *testing.T) {
	w := testutil.FooWorkspace(t)
	p := plan.MustNew(plan.Spec{Target: "/Game/X/Gone", NewParent: testutil.CppFoo})

	res := quietEngine(w).Run(p, nil)
	assert.Equal(t, core.StatusPrecheckFailed, res.Status)
	assert.True(t, res.HasIssue(oerrors.KindAssetMissing))
}

func TestRun_AbsentMemberIsNotAnError(t *testing.T) {
	w := testutil.FooWorkspace(t)
	p := plan.MustNew(plan.Spec{
		Target:          testutil.FooLegacyPath,
		NewParent:       testutil.CppFoo,
		DeleteFunctions: []string{"DoesNotExist"},
	})

	res := quietEngine(w).Run(p, nil)
	assert.Equal(t, core.StatusComplete, res.Status)
	assert.Zero(t, res.FunctionsRemoved)
	assert.Empty(t, res.Issues)
}

func TestRun_ReparentRejected(t *testing.T) {
	w := testutil.FooWorkspace(t)
	// Speed shadows CppFoo.Speed and is not deleted.
	p := plan.MustNew(plan.Spec{
		Target:         testutil.FooPath,
		NewParent:      testutil.CppFoo,
		PropertyCopies: []plan.PropertyCopy{{From: "Label", To: "Mode"}},
	})

	res := quietEngine(w).Run(p, nil)
	assert.Equal(t, core.StatusVerificationFailed, res.Status)
	assert.Equal(t, core.PhaseReparent, res.StoppedAt)
	assert.True(t, res.HasIssue(oerrors.KindReparentRejected))
	assert.Zero(t, res.PropertiesCopied)
	assert.Equal(t, testutil.FooLegacyPath, w.Document(testutil.FooPath).Parent)
}

func TestRun_MemberRemovalRefused(t *testing.T) {
	w := testutil.FooWorkspace(t)
	// Tick still reads Speed.
	p := plan.MustNew(plan.Spec{
		Target:          testutil.FooPath,
		NewParent:       testutil.CppFoo,
		DeleteVariables: []string{"Speed"},
	})

	res := quietEngine(w).Run(p, nil)
	assert.True(t, res.HasIssue(oerrors.KindMemberRemovalRefused))
	assert.True(t, res.HasIssue(oerrors.KindReparentRejected))
	assert.Equal(t, core.StatusVerificationFailed, res.Status)
}

func TestRun_DeferredReparent(t *testing.T) {
	doc := &dna.Document{Path: "/Game/X/BP_Deferred", Parent: testutil.CppBase, DeferredReparent: true}
	w := testutil.FooWorkspace(t, doc)
	p := plan.MustNew(plan.Spec{Target: "/Game/X/BP_Deferred", NewParent: testutil.CppFoo})

	res := quietEngine(w).Run(p, nil)
	assert.Equal(t, core.StatusComplete, res.Status, "issues: %v", res.Issues)
	assert.Equal(t, testutil.CppFoo, res.Post.Parent)
}

func TestRun_TypeMismatchDoesNotAbort(t *testing.T) {
	w := testutil.FooWorkspace(t)
	spec := testutil.FooSpec()
	spec.PropertyCopies = []plan.PropertyCopy{{From: "Label", To: "Speed"}, {From: "Speed", To: "Mode"}}
	p := plan.MustNew(spec)

	res := quietEngine(w).Run(p, nil)

	assert.True(t, res.HasIssue(oerrors.KindTypeMismatch))
	assert.Equal(t, core.StatusVerificationFailed, res.Status)
	assert.Equal(t, core.PhaseVerify, res.StoppedAt)
	assert.Equal(t, testutil.CppFoo, w.Document(testutil.FooPath).Parent, "later phases still ran")
}

func TestRun_SaveFailure(t *testing.T) {
	doc := &dna.Document{Path: "/Game/X/BP_Locked", Parent: testutil.CppBase, ReadOnly: true}
	w := testutil.FooWorkspace(t, doc)
	p := plan.MustNew(plan.Spec{Target: "/Game/X/BP_Locked", NewParent: testutil.CppFoo})

	res := quietEngine(w).Run(p, nil)
	assert.True(t, res.SaveFailed)
	assert.True(t, res.HasIssue(oerrors.KindSaveFailure))
	assert.Equal(t, core.StatusVerificationFailed, res.Status)
	assert.Equal(t, core.PhaseCompileSave, res.StoppedAt)

	w2 := testutil.FooWorkspace(t, &dna.Document{Path: "/Game/X/BP_Locked", Parent: testutil.CppBase, ReadOnly: true})
	res = quietEngine(w2, WithDryRun(true)).Run(p, nil)
	assert.Equal(t, core.StatusComplete, res.Status, "dry run does not save")
}

func TestRun_PinRewritesInTarget(t *testing.T) {
	doc := testutil.FooDoc()
	doc.Graphs = append(doc.Graphs, &dna.GraphDoc{Name: "Helper", Kind: "function", Nodes: []*dna.NodeDoc{
		testutil.EnumNode("SetX", "NewEnumerator0"),
		testutil.EnumNode("SetY", "NewEnumerator5"),
	}})
	w, err := dna.New(testutil.Catalog(), []*dna.Document{doc, testutil.FooLegacyDoc()})
	require.NoError(t, err)

	res := quietEngine(w).Run(testutil.FooPlan(t), nil)
	require.Equal(t, core.StatusComplete, res.Status, "issues: %v", res.Issues)
	assert.Equal(t, 1, res.PinsRewritten)
	assert.Equal(t, 1, res.Counts.UnknownLiterals)
	assert.Equal(t, []string{"Helper/SetY.Type=NewEnumerator5"}, res.UnknownLiterals)

	bp := testutil.MustLoad(t, w, testutil.FooPath)
	assert.Equal(t, map[string]string{"SetX": "CurrentValue", "SetY": "NewEnumerator5"},
		testutil.PinDefaults(t, w, bp, "Type"))
}

func TestRun_AlreadyReparentedSkipsStructuralCleanup(t *testing.T) {
	doc := &dna.Document{
		Path:      "/Game/X/BP_Half",
		Parent:    testutil.CppFoo,
		Variables: []dna.Variable{{Name: "Extra"}},
		Defaults:  map[string]core.Value{"Speed": core.Primitive(5)},
	}
	w := testutil.FooWorkspace(t, doc)
	p := plan.MustNew(plan.Spec{Target: "/Game/X/BP_Half", NewParent: testutil.CppFoo, DeleteVariables: []string{"Extra"}})

	res := quietEngine(w).Run(p, nil)
	assert.Zero(t, res.VariablesRemoved)
	assert.Equal(t, core.StatusVerificationFailed, res.Status)
	assert.True(t, res.HasIssue(oerrors.KindVerificationMismatch))
}

func TestRun_LogsWithPlanPrefix(t *testing.T) {
	var buf bytes.Buffer
	w := testutil.FooWorkspace(t)
	e := New(w, WithLogger(log.New(&buf)))

	e.Run(testutil.FooPlan(t), nil)
	assert.Contains(t, buf.String(), "BP_Foo")
	assert.Contains(t, buf.String(), "starting migration")
}
