// Package report builds the MigrationReport: per-plan outcomes, totals and
// anomalies, rendered as text, JSON or YAML.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/engine"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/fixer"
)

// Entry is the outcome of one plan. Dependents is nil when the fixer did
// not run.
type Entry struct {
	Plan       string         `json:"plan" yaml:"plan"`
	PlanID     string         `json:"planId,omitempty" yaml:"planId,omitempty"`
	Target     core.AssetPath `json:"target" yaml:"target"`
	Status     core.Status    `json:"status" yaml:"status"`
	NotRun     bool           `json:"notRun,omitempty" yaml:"notRun,omitempty"`
	Result     *engine.Result `json:"result" yaml:"result"`
	Dependents *fixer.Result  `json:"dependents,omitempty" yaml:"dependents,omitempty"`
}

// DependentsProcessed is the number of dependents the fixer loaded.
func (e *Entry) DependentsProcessed() int {
	if e.Dependents == nil {
		return 0
	}
	return e.Dependents.Processed()
}

// DependentNodesTouched is the number of distinct nodes rewritten across
// dependents.
func (e *Entry) DependentNodesTouched() int {
	if e.Dependents == nil {
		return 0
	}
	return e.Dependents.NodesTouched()
}

// Totals aggregates every entry.
type Totals struct {
	Plans                  int `json:"plans" yaml:"plans"`
	Complete               int `json:"complete" yaml:"complete"`
	Skipped                int `json:"skipped" yaml:"skipped"`
	Failed                 int `json:"failed" yaml:"failed"`
	NotRun                 int `json:"notRun" yaml:"notRun"`
	FunctionsRemoved       int `json:"functionsRemoved" yaml:"functionsRemoved"`
	VariablesRemoved       int `json:"variablesRemoved" yaml:"variablesRemoved"`
	DispatchersRemoved     int `json:"dispatchersRemoved" yaml:"dispatchersRemoved"`
	EventGraphNodesCleared int `json:"eventGraphNodesCleared" yaml:"eventGraphNodesCleared"`
	PinsRewritten          int `json:"pinsRewritten" yaml:"pinsRewritten"`
	PropertiesCopied       int `json:"propertiesCopied" yaml:"propertiesCopied"`
	DependentsProcessed    int `json:"dependentsProcessed" yaml:"dependentsProcessed"`
	DependentNodesTouched  int `json:"dependentNodesTouched" yaml:"dependentNodesTouched"`
	DependentPinsRewritten int `json:"dependentPinsRewritten" yaml:"dependentPinsRewritten"`
	UnknownLiterals        int `json:"unknownLiterals" yaml:"unknownLiterals"`
	Mismatches             int `json:"mismatches" yaml:"mismatches"`
	Issues                 int `json:"issues" yaml:"issues"`
}

// Anomaly is one entry of the anomalies list.
type Anomaly struct {
	Plan    string         `json:"plan" yaml:"plan"`
	Kind    string         `json:"kind" yaml:"kind"`
	Phase   core.Phase     `json:"phase,omitempty" yaml:"phase,omitempty"`
	Asset   core.AssetPath `json:"asset,omitempty" yaml:"asset,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

// Anomaly kinds that are not error kinds.
const (
	AnomalyUnknownLiteral   = "UnknownLiteral"
	AnomalySkippedDependent = "SkippedDependent"
	AnomalyNotRun           = "NotRun"
)

// Report is the MigrationReport of one orchestrated run.
type Report struct {
	RunID          string    `json:"runId" yaml:"runId"`
	StartedAt      time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt" yaml:"finishedAt"`
	DryRun         bool      `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	SnapshotDigest string    `json:"snapshotDigest,omitempty" yaml:"snapshotDigest,omitempty"`
	Warnings       []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Entries        []*Entry  `json:"entries" yaml:"entries"`
	Totals         Totals    `json:"totals" yaml:"totals"`
	Anomalies      []Anomaly `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`

	now func() time.Time
}

// Option configures a Report.
type Option func(*Report)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Report) { r.now = now }
}

// WithRunID fixes the run identifier.
func WithRunID(id string) Option {
	return func(r *Report) { r.RunID = id }
}

// New starts a report.
func New(opts ...Option) *Report {
	r := &Report{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	r.StartedAt = r.now().UTC()
	return r
}

// Add appends a plan outcome.
func (r *Report) Add(e *Entry) {
	if e.Result != nil {
		e.Status = e.Result.Status
		if e.Plan == "" {
			e.Plan = e.Result.Plan
		}
		if e.Target == "" {
			e.Target = e.Result.Target
		}
	}
	r.Entries = append(r.Entries, e)
}

// Warn records an advisory message.
func (r *Report) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Finish stamps the end time and computes totals and anomalies.
func (r *Report) Finish() {
	if r.now == nil {
		r.now = time.Now
	}
	r.FinishedAt = r.now().UTC()

	var t Totals
	var anomalies []Anomaly
	for _, e := range r.Entries {
		t.Plans++
		switch {
		case e.NotRun:
			t.NotRun++
			anomalies = append(anomalies, Anomaly{Plan: e.Plan, Kind: AnomalyNotRun, Asset: e.Target,
				Message: "not run: an earlier plan failed precheck"})
		case e.Status == core.StatusComplete:
			t.Complete++
		case e.Status == core.StatusSkippedIdempotent:
			t.Skipped++
		default:
			t.Failed++
		}

		if res := e.Result; res != nil {
			t.FunctionsRemoved += res.FunctionsRemoved
			t.VariablesRemoved += res.VariablesRemoved
			t.DispatchersRemoved += res.DispatchersRemoved
			t.EventGraphNodesCleared += res.EventGraphNodesCleared
			t.PinsRewritten += res.PinsRewritten
			t.PropertiesCopied += res.PropertiesCopied
			t.UnknownLiterals += res.Counts.UnknownLiterals
			t.Mismatches += len(res.Mismatches)
			t.Issues += len(res.Issues)
			for _, i := range res.Issues {
				anomalies = append(anomalies, fromIssue(e.Plan, i))
			}
			for _, lit := range res.UnknownLiterals {
				anomalies = append(anomalies, Anomaly{Plan: e.Plan, Kind: AnomalyUnknownLiteral,
					Phase: core.PhaseCleanup, Asset: res.Target, Message: lit})
			}
		}

		if e.Dependents != nil {
			t.DependentsProcessed += e.Dependents.Processed()
			t.DependentNodesTouched += e.Dependents.NodesTouched()
			for _, d := range e.Dependents.Dependents {
				t.DependentPinsRewritten += d.PinsRewritten
				t.UnknownLiterals += len(d.UnknownLiterals)
				t.Issues += len(d.Issues)
				if d.Status == fixer.StatusSkippedMissing {
					anomalies = append(anomalies, Anomaly{Plan: e.Plan, Kind: AnomalySkippedDependent,
						Phase: core.PhaseDependents, Asset: d.Asset, Message: "dependent skipped: not loadable"})
				}
				for _, i := range d.Issues {
					anomalies = append(anomalies, fromIssue(e.Plan, i))
				}
				for _, lit := range d.UnknownLiterals {
					anomalies = append(anomalies, Anomaly{Plan: e.Plan, Kind: AnomalyUnknownLiteral,
						Phase: core.PhaseDependents, Asset: d.Asset, Message: lit})
				}
			}
		}
	}
	r.Totals = t
	r.Anomalies = anomalies
}

func fromIssue(planName string, i core.Issue) Anomaly {
	return Anomaly{Plan: planName, Kind: i.Kind, Phase: i.Phase, Asset: i.Asset, Message: i.Message}
}

// Success reports whether every plan reached COMPLETE or SKIPPED_IDEMPOTENT.
func (r *Report) Success() bool {
	for _, e := range r.Entries {
		if e.NotRun || !e.Status.IsSuccess() {
			return false
		}
	}
	return true
}

// ExitCode is the batch exit status: 0 on success, otherwise
// ExitMigrationIncomplete.
func (r *Report) ExitCode() int {
	if r.Success() {
		return oerrors.ExitSuccess
	}
	return oerrors.ExitMigrationIncomplete
}
