// Package engine drives one migration plan through its phases:
// precheck, cleanup, reparent, property copy, compile/save and verify.
//
// Every phase is safe to re-run. Failures are recorded on the Result as
// issues; only a precheck failure stops a plan before cleanup.
package engine

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/extract"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/rewrite"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

// Engine runs plans against one host.
type Engine struct {
	host      host.Host
	extractor extract.Extractor
	dryRun    bool
	logFor    func(name string) *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDryRun skips saving.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// WithLogger routes plan logs to l, prefixed with the plan name.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logFor = func(name string) *log.Logger { return l.WithPrefix(name) }
	}
}

// WithExtractor sets the extractor used to read copy sources the CDO
// cannot reflect.
func WithExtractor(x extract.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// New creates an Engine.
func New(h host.Host, opts ...Option) *Engine {
	e := &Engine{
		host:      h,
		extractor: extract.TextExtractor{},
		logFor:    output.PlanLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the per-plan transient state. The Blueprint handle never
// outlives it.
type run struct {
	*Engine
	plan   *plan.Plan
	snap   *snapshot.Snapshot
	log    *log.Logger
	bp     host.Blueprint
	class  host.Class
	res    *Result
	copied map[string]core.Value
	// residual holds copy sources read before cleanup.
	residual map[string]core.Value
}

// Run executes p. snap may be nil.
func (e *Engine) Run(p *plan.Plan, snap *snapshot.Snapshot) *Result {
	r := &run{
		Engine:   e,
		plan:     p,
		snap:     snap,
		log:      e.logFor(p.Name()),
		res:      newResult(p),
		copied:   map[string]core.Value{},
		residual: map[string]core.Value{},
	}

	r.log.Info("starting migration", "target", p.Target(), "parent", p.NewParent())
	if !r.precheck() {
		return r.res
	}
	r.cleanup()
	if !r.reparent() {
		r.res.Post = r.state()
		return r.res
	}
	r.copyProperties()
	r.compileAndSave()
	r.verify()
	r.res.Post = r.state()

	r.log.Info("migration finished", "status", r.res.Status, "issues", len(r.res.Issues))
	return r.res
}

func (r *run) issue(phase core.Phase, err error) {
	i := core.NewIssue(phase, r.plan.Target(), err)
	r.res.Issues = append(r.res.Issues, i)
	r.log.Warn(i.Message, "kind", i.Kind, "phase", phase)
}

func (r *run) fail(status core.Status, phase core.Phase) {
	r.res.Status = status
	r.res.StoppedAt = phase
}

func (r *run) precheck() bool {
	bp, err := r.host.LoadBlueprint(r.plan.Target())
	if err != nil {
		r.issue(core.PhasePrecheck, err)
		r.fail(core.StatusPrecheckFailed, core.PhasePrecheck)
		return false
	}
	r.bp = bp
	r.res.Pre = r.state()

	class, err := r.host.LoadNativeClass(r.plan.NewParent())
	if err != nil {
		r.issue(core.PhasePrecheck, err)
		r.fail(core.StatusPrecheckFailed, core.PhasePrecheck)
		r.res.Post = r.res.Pre
		return false
	}
	r.class = class

	r.captureSources()

	if r.alreadyMigrated() {
		r.res.Status = core.StatusSkippedIdempotent
		r.res.Post = r.res.Pre
		r.log.Info("already migrated, skipping")
		return false
	}
	return true
}

// captureSources reads every copy source before cleanup can delete it.
func (r *run) captureSources() {
	var export map[string]core.Value
	for _, c := range r.plan.PropertyCopies() {
		v, err := r.host.ReadCDOProperty(r.bp, c.From)
		if err == nil {
			r.residual[c.From] = v
			continue
		}
		if export == nil && r.extractor != nil {
			export = map[string]core.Value{}
			if text, err := r.host.ExportText(r.bp); err == nil {
				export = r.extractor.Extract(text, nil)
			}
		}
		if v, ok := export[c.From]; ok {
			r.residual[c.From] = v
		}
	}
}

func (r *run) alreadyMigrated() bool {
	if !r.host.ParentClass(r.bp).Is(r.plan.NewParent()) {
		return false
	}
	if r.remainingMembers() > 0 {
		return false
	}
	if pending, err := rewrite.PendingPins(r.host, r.bp, r.plan.PinRewrites()); err != nil || pending > 0 {
		return false
	}
	if r.plan.ClearEventGraph() && r.eventGraphNodes() > 0 {
		return false
	}
	return true
}

func (r *run) remainingMembers() int {
	n := countPresent(r.host.ListFunctions(r.bp), r.plan.DeleteFunctions())
	n += countPresent(r.host.ListVariables(r.bp), r.plan.DeleteVariables())
	n += countPresent(r.host.ListEventDispatchers(r.bp), r.plan.DeleteEventDispatchers())
	return n
}

func (r *run) eventGraphNodes() int {
	n := 0
	err := r.host.ForEachNode(r.bp, func(node host.Node) error {
		if r.isUberGraph(node.Graph()) {
			n++
		}
		return nil
	})
	if err != nil {
		r.log.Debug("counting event graph nodes", "err", err)
	}
	return n
}

func (r *run) isUberGraph(name string) bool {
	for _, g := range r.host.Graphs(r.bp) {
		if g.Name == name {
			return g.Kind == host.GraphUber
		}
	}
	return false
}

func (r *run) cleanup() {
	c := &r.res.Counts
	if r.host.ParentClass(r.bp).Is(r.plan.NewParent()) {
		r.log.Debug("already reparented, skipping structural cleanup")
	} else {
		c.FunctionsRemoved = r.remove(r.plan.DeleteFunctions(), "function", r.host.RemoveFunction)
		c.VariablesRemoved = r.remove(r.plan.DeleteVariables(), "variable", r.host.RemoveVariable)
		c.DispatchersRemoved = r.remove(r.plan.DeleteEventDispatchers(), "event dispatcher", r.host.RemoveEventDispatcher)

		if r.plan.ClearEventGraph() {
			for _, g := range r.host.Graphs(r.bp) {
				if g.Kind == host.GraphUber {
					c.EventGraphNodesCleared += r.host.ClearGraphNodes(r.bp, g.Name)
				}
			}
		}
	}

	pins, err := rewrite.Pins(r.host, r.bp, r.plan.PinRewrites())
	if err != nil {
		r.issue(core.PhaseCleanup, err)
	}
	c.PinsRewritten = pins.Rewritten
	c.UnknownLiterals = pins.Unknown
	r.res.UnknownLiterals = pins.UnknownLiterals

	r.res.Status = core.StatusCleaned
	r.log.Debug("cleanup done",
		"functions", c.FunctionsRemoved, "variables", c.VariablesRemoved,
		"dispatchers", c.DispatchersRemoved, "eventGraphNodes", c.EventGraphNodesCleared,
		"pins", c.PinsRewritten)
}

func (r *run) remove(names []string, what string, fn func(host.Blueprint, string) (host.RemoveOutcome, error)) int {
	removed := 0
	for _, name := range names {
		outcome, err := fn(r.bp, name)
		switch {
		case err != nil:
			r.issue(core.PhaseCleanup, err)
		case outcome == host.Removed:
			removed++
		case outcome == host.NotFound:
			r.log.Debug(what+" already absent", "name", name)
		}
	}
	return removed
}

// reparent reports whether the target now has the new parent.
func (r *run) reparent() bool {
	want := r.plan.NewParent()
	if r.host.ParentClass(r.bp).Is(want) {
		r.res.Status = core.StatusReparented
		return true
	}

	outcome, err := r.host.Reparent(r.bp, r.class)
	if errors.Is(err, oerrors.ErrReparentRejected) {
		r.log.Debug("reparent rejected, compiling and retrying", "err", err)
		r.host.Compile(r.bp)
		outcome, err = r.host.Reparent(r.bp, r.class)
	}
	if err != nil {
		r.issue(core.PhaseReparent, err)
		r.fail(core.StatusVerificationFailed, core.PhaseReparent)
		return false
	}

	if outcome == host.ReparentNeedsCompile || !r.host.ParentClass(r.bp).Is(want) {
		r.log.Debug("reparent pending compile", "outcome", outcome)
		r.host.Compile(r.bp)
	}
	if got := r.host.ParentClass(r.bp); !got.Is(want) {
		r.issue(core.PhaseReparent, oerrors.Wrapf(oerrors.ErrReparentRejected,
			"reparenting %s: parent is %s, want %s", r.plan.Target(), got, want))
		r.fail(core.StatusVerificationFailed, core.PhaseReparent)
		return false
	}

	r.res.Status = core.StatusReparented
	r.log.Debug("reparented", "parent", want)
	return true
}

// copyProperties prefers the snapshot value and falls back to the value
// read during precheck.
func (r *run) copyProperties() {
	for _, c := range r.plan.PropertyCopies() {
		v, ok := r.snap.Property(r.plan.Target(), c.From)
		source := "snapshot"
		if !ok {
			v, ok = r.residual[c.From]
			source = "residual"
		}
		if !ok {
			r.issue(core.PhasePropertyCopy, oerrors.Wrapf(oerrors.ErrNotFound,
				"copying %s to %s: no captured value", c.From, c.To))
			continue
		}
		if err := r.host.WriteCDOProperty(r.bp, c.To, v); err != nil {
			r.issue(core.PhasePropertyCopy, fmt.Errorf("copying %s to %s: %w", c.From, c.To, err))
			r.copied[c.To] = v
			continue
		}
		r.copied[c.To] = v
		r.res.Counts.PropertiesCopied++
		r.log.Debug("copied property", "from", c.From, "to", c.To, "value", v.String(), "source", source)
	}
}

func (r *run) compileAndSave() {
	res := r.host.Compile(r.bp)
	r.res.Compile = res
	for _, w := range res.Warnings {
		r.log.Debug("compile warning", "msg", w)
	}
	for _, msg := range res.Errors {
		r.issue(core.PhaseCompileSave, oerrors.Wrap(oerrors.ErrCompileError, msg))
	}

	if r.dryRun {
		r.log.Info("dry run, not saving")
		return
	}
	if err := r.host.SaveBlueprint(r.bp); err != nil {
		r.issue(core.PhaseCompileSave, err)
		r.res.SaveFailed = true
	}
}

func (r *run) verify() {
	failed := false
	mismatch := func(format string, args ...any) {
		failed = true
		r.issue(core.PhaseVerify, oerrors.Wrapf(oerrors.ErrVerificationMismatch, format, args...))
	}

	if got := r.host.ParentClass(r.bp); !got.Is(r.plan.NewParent()) {
		mismatch("parent is %s, want %s", got, r.plan.NewParent())
	}

	survivors := [][2][]string{
		{r.host.ListFunctions(r.bp), r.plan.DeleteFunctions()},
		{r.host.ListVariables(r.bp), r.plan.DeleteVariables()},
		{r.host.ListEventDispatchers(r.bp), r.plan.DeleteEventDispatchers()},
	}
	for _, s := range survivors {
		for _, name := range present(s[0], s[1]) {
			mismatch("member %s survived cleanup", name)
		}
	}

	for _, c := range r.plan.PropertyCopies() {
		expected, ok := r.copied[c.To]
		if !ok {
			continue
		}
		actual, err := r.host.ReadCDOProperty(r.bp, c.To)
		if err != nil {
			mismatch("property %s: %v", c.To, err)
			continue
		}
		if m, diff := snapshot.CompareValue(r.plan.Target(), c.To, expected, actual.Normalize()); diff {
			r.res.Mismatches = append(r.res.Mismatches, m)
			mismatch("property %s: expected %s, got %s (%s)", c.To, expected, actual, m.Reason)
		}
	}

	if pending, err := rewrite.PendingPins(r.host, r.bp, r.plan.PinRewrites()); err == nil && pending > 0 {
		mismatch("%d pins still carry a rewritten enum literal", pending)
	}

	switch {
	case !r.res.Compile.OK() || r.res.SaveFailed:
		r.fail(core.StatusVerificationFailed, core.PhaseCompileSave)
	case failed:
		r.fail(core.StatusVerificationFailed, core.PhaseVerify)
	default:
		r.res.Status = core.StatusComplete
	}
}

// state reads the current parent and member counts.
func (r *run) state() State {
	return State{
		Parent:          r.host.ParentClass(r.bp).String(),
		Functions:       len(r.host.ListFunctions(r.bp)),
		Variables:       len(r.host.ListVariables(r.bp)),
		Dispatchers:     len(r.host.ListEventDispatchers(r.bp)),
		EventGraphNodes: r.eventGraphNodes(),
	}
}

func present(have, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	var out []string
	for _, w := range want {
		if set[w] {
			out = append(out, w)
		}
	}
	return out
}

func countPresent(have, want []string) int {
	return len(present(have, want))
}
