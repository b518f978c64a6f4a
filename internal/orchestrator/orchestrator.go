// Package orchestrator sequences migration plans, runs the dependent fixer
// after each successful plan and assembles the MigrationReport.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/engine"
	"github.com/slfconversion/bpmigrate/internal/extract"
	"github.com/slfconversion/bpmigrate/internal/fixer"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/identity"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/report"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

// Options controls batch behaviour.
type Options struct {
	// ContinueOnFailure keeps running after a plan fails precheck.
	ContinueOnFailure bool

	// FixDependentsOnSkip runs the fixer for plans that were already migrated.
	FixDependentsOnSkip bool

	// DryRun skips every save.
	DryRun bool

	// ClassSuffix is the generated class suffix. Empty means "_C".
	ClassSuffix string

	// Logger receives plan and dependent logs. Nil uses the package logger.
	Logger *log.Logger

	// Extractor overrides the default text extractor.
	Extractor extract.Extractor

	// Clock overrides the report time source.
	Clock func() time.Time
}

// Orchestrator runs batches of plans against one host.
type Orchestrator struct {
	host host.Host
	opts Options
}

// New creates an Orchestrator.
func New(h host.Host, opts Options) *Orchestrator {
	return &Orchestrator{host: h, opts: opts}
}

func (o *Orchestrator) engine() *engine.Engine {
	var opts []engine.Option
	opts = append(opts, engine.WithDryRun(o.opts.DryRun))
	if o.opts.Logger != nil {
		opts = append(opts, engine.WithLogger(o.opts.Logger))
	}
	if o.opts.Extractor != nil {
		opts = append(opts, engine.WithExtractor(o.opts.Extractor))
	}
	return engine.New(o.host, opts...)
}

func (o *Orchestrator) fixer() *fixer.Fixer {
	opts := []fixer.Option{fixer.WithDryRun(o.opts.DryRun)}
	if o.opts.ClassSuffix != "" {
		opts = append(opts, fixer.WithClassSuffix(o.opts.ClassSuffix))
	}
	if o.opts.Logger != nil {
		opts = append(opts, fixer.WithLogger(o.opts.Logger))
	}
	return fixer.New(o.host, opts...)
}

func (o *Orchestrator) logger() *log.Logger {
	if o.opts.Logger != nil {
		return o.opts.Logger
	}
	return output.Logger()
}

// Run executes plans in order against snap, which may be nil. Every plan
// appears in the returned report, including those never started.
func (o *Orchestrator) Run(plans []*plan.Plan, snap *snapshot.Snapshot) *report.Report {
	var ropts []report.Option
	if o.opts.Clock != nil {
		ropts = append(ropts, report.WithClock(o.opts.Clock))
	}
	rep := report.New(ropts...)
	rep.DryRun = o.opts.DryRun
	if snap != nil {
		rep.SnapshotDigest = snap.Digest()
	}
	for _, w := range OrderingWarnings(plans) {
		o.logger().Warn(w)
		rep.Warnings = append(rep.Warnings, w)
	}

	eng := o.engine()
	fix := o.fixer()
	stopped := false
	for _, p := range plans {
		if stopped {
			rep.Add(&report.Entry{PlanID: identity.PlanID(p), Result: engine.PendingResult(p), NotRun: true})
			continue
		}

		res := eng.Run(p, snap)
		entry := &report.Entry{PlanID: identity.PlanID(p), Result: res}
		if o.shouldFix(res.Status) {
			entry.Dependents = fix.Fix(p)
		}
		rep.Add(entry)

		if res.Status == core.StatusPrecheckFailed && !o.opts.ContinueOnFailure {
			o.logger().Error("precheck failed, stopping batch", "plan", p.Name())
			stopped = true
		}
	}

	rep.Finish()
	o.logger().Info("batch finished", "plans", rep.Totals.Plans, "complete", rep.Totals.Complete,
		"skipped", rep.Totals.Skipped, "failed", rep.Totals.Failed, "notRun", rep.Totals.NotRun)
	return rep
}

func (o *Orchestrator) shouldFix(s core.Status) bool {
	switch s {
	case core.StatusComplete:
		return true
	case core.StatusSkippedIdempotent:
		return o.opts.FixDependentsOnSkip
	default:
		return false
	}
}

// OrderingWarnings reports duplicate targets and plans whose target is a
// dependent of a later plan. Cycles are not detected.
func OrderingWarnings(plans []*plan.Plan) []string {
	var warnings []string
	seen := map[core.AssetPath]int{}
	for i, p := range plans {
		if first, ok := seen[p.Target()]; ok {
			warnings = append(warnings, fmt.Sprintf("target %s is migrated by plans %d and %d", p.Target(), first+1, i+1))
			continue
		}
		seen[p.Target()] = i
	}
	for i, p := range plans {
		for _, later := range plans[i+1:] {
			for _, dep := range later.Dependents() {
				if dep == p.Target() {
					warnings = append(warnings, fmt.Sprintf(
						"target %s is a dependent of later plan %s; its references are refreshed after its own migration",
						p.Target(), later.Name()))
				}
			}
		}
	}
	return warnings
}
