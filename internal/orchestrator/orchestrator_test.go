package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/fixer"
	"github.com/slfconversion/bpmigrate/internal/host/dna"
	"github.com/slfconversion/bpmigrate/internal/identity"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/report"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
	"github.com/slfconversion/bpmigrate/internal/testutil"
)

func quiet(w *dna.Workspace, opts Options) *Orchestrator {
	opts.Logger = output.Discard()
	return New(w, opts)
}

func brokenPlan() *plan.Plan {
	return plan.MustNew(plan.Spec{Target: testutil.FooLegacyPath, NewParent: "/Script/Unknown.Foo"})
}

func legacyPlan() *plan.Plan {
	return plan.MustNew(plan.Spec{Target: testutil.FooLegacyPath, NewParent: testutil.CppFoo})
}

func TestRun_MigratesTargetAndDependents(t *testing.T) {
	w := testutil.FooWorkspace(t)
	p := testutil.FooPlan(t)
	snap := snapshot.Capture(w, snapshot.TargetsForPlans([]*plan.Plan{p}, false),
		snapshot.WithLogger(output.Discard()))

	rep := quiet(w, Options{}).Run([]*plan.Plan{p}, snap)

	require.Len(t, rep.Entries, 1)
	e := rep.Entries[0]
	assert.Equal(t, core.StatusComplete, e.Status, "issues: %v", e.Result.Issues)
	assert.Equal(t, identity.PlanID(p), e.PlanID)
	require.NotNil(t, e.Dependents)
	require.Len(t, e.Dependents.Dependents, 1)
	assert.Equal(t, fixer.StatusFixed, e.Dependents.Dependents[0].Status)
	assert.Equal(t, 5, e.DependentNodesTouched())
	assert.Equal(t, snap.Digest(), rep.SnapshotDigest)
	assert.Equal(t, oerrors.ExitSuccess, rep.ExitCode())

	bp := testutil.MustLoad(t, w, testutil.UserPath)
	assert.Equal(t, "NewEnumerator2", testutil.PinDefaults(t, w, bp, "Type")["SetD"])

	var unknown []string
	for _, a := range rep.Anomalies {
		if a.Kind == report.AnomalyUnknownLiteral {
			unknown = append(unknown, a.Message)
		}
	}
	assert.Equal(t, []string{"EventGraph/SetD.Type=NewEnumerator2"}, unknown)
}

func TestRun_StopsOnPrecheckFailure(t *testing.T) {
	w := testutil.FooWorkspace(t)
	plans := []*plan.Plan{brokenPlan(), testutil.FooPlan(t)}

	rep := quiet(w, Options{}).Run(plans, nil)

	require.Len(t, rep.Entries, 2)
	assert.Equal(t, core.StatusPrecheckFailed, rep.Entries[0].Status)
	assert.Nil(t, rep.Entries[0].Dependents)
	assert.True(t, rep.Entries[1].NotRun)
	assert.Equal(t, core.StatusPending, rep.Entries[1].Status)
	assert.Equal(t, 1, rep.Totals.NotRun)
	assert.Equal(t, testutil.FooLegacyPath, w.Document(testutil.FooPath).Parent, "second plan never ran")
	assert.Equal(t, oerrors.ExitMigrationIncomplete, rep.ExitCode())
}

func TestRun_ContinueOnFailure(t *testing.T) {
	w := testutil.FooWorkspace(t)
	plans := []*plan.Plan{brokenPlan(), testutil.FooPlan(t)}

	rep := quiet(w, Options{ContinueOnFailure: true}).Run(plans, nil)

	assert.Equal(t, core.StatusPrecheckFailed, rep.Entries[0].Status)
	assert.Equal(t, core.StatusComplete, rep.Entries[1].Status)
	assert.Zero(t, rep.Totals.NotRun)
	assert.Equal(t, 1, rep.Totals.Failed)
	assert.Equal(t, oerrors.ExitMigrationIncomplete, rep.ExitCode())
}

func TestRun_VerificationFailureDoesNotStopBatch(t *testing.T) {
	w := testutil.FooWorkspace(t)
	rejected := plan.MustNew(plan.Spec{
		Target:         testutil.FooPath,
		NewParent:      testutil.CppFoo,
		PropertyCopies: []plan.PropertyCopy{{From: "Label", To: "Mode"}},
	})

	rep := quiet(w, Options{}).Run([]*plan.Plan{rejected, legacyPlan()}, nil)

	assert.Equal(t, core.StatusVerificationFailed, rep.Entries[0].Status)
	assert.Nil(t, rep.Entries[0].Dependents, "fixer only runs after a complete plan")
	assert.Equal(t, core.StatusComplete, rep.Entries[1].Status)
}

func TestRun_FixDependentsOnSkip(t *testing.T) {
	w := testutil.FooWorkspace(t)
	p := testutil.FooPlan(t)
	o := quiet(w, Options{})
	o.Run([]*plan.Plan{p}, nil)

	rep := o.Run([]*plan.Plan{p}, nil)
	assert.Equal(t, core.StatusSkippedIdempotent, rep.Entries[0].Status)
	assert.Nil(t, rep.Entries[0].Dependents)
	assert.Equal(t, oerrors.ExitSuccess, rep.ExitCode())

	rep = quiet(w, Options{FixDependentsOnSkip: true}).Run([]*plan.Plan{p}, nil)
	require.NotNil(t, rep.Entries[0].Dependents)
	assert.Equal(t, 1, rep.Entries[0].DependentsProcessed())
	assert.Zero(t, rep.Entries[0].DependentNodesTouched())
}

func TestRun_DryRunLeavesNothingSaved(t *testing.T) {
	w := testutil.FooWorkspace(t)
	rep := quiet(w, Options{DryRun: true}).Run([]*plan.Plan{testutil.FooPlan(t)}, nil)
	assert.True(t, rep.DryRun)
	assert.Equal(t, core.StatusComplete, rep.Entries[0].Status)
}

func TestOrderingWarnings(t *testing.T) {
	dependentOfLater := plan.MustNew(plan.Spec{Target: testutil.UserPath, NewParent: testutil.CppBase})

	tests := []struct {
		name  string
		plans []*plan.Plan
		want  []string
	}{
		{
			name:  "independent plans",
			plans: []*plan.Plan{testutil.FooPlan(t), legacyPlan()},
		},
		{
			name:  "duplicate target",
			plans: []*plan.Plan{legacyPlan(), legacyPlan()},
			want:  []string{"target /Game/X/BP_FooLegacy is migrated by plans 1 and 2"},
		},
		{
			name:  "target is a dependent of a later plan",
			plans: []*plan.Plan{dependentOfLater, testutil.FooPlan(t)},
			want: []string{"target /Game/UI/BP_User is a dependent of later plan BP_Foo; " +
				"its references are refreshed after its own migration"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderingWarnings(tt.plans))
		})
	}
}
