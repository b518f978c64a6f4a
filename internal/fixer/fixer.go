// Package fixer refreshes the Blueprints that depend on a migrated target.
//
// The fixer rewrites class references and pin defaults only. Pin links are
// never edited, and a dependent whose connection set changes anyway is
// reported rather than saved silently.
package fixer

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/rewrite"
)

// Status is the outcome for one dependent.
type Status string

const (
	StatusFixed           Status = "fixed"
	StatusSkippedMissing  Status = "skipped-missing"
	StatusCompileErrors   Status = "compile-errors"
	StatusSaveFailed      Status = "save-failed"
	StatusTopologyChanged Status = "topology-changed"
)

// DependentResult tallies the work done on one dependent.
type DependentResult struct {
	Asset              core.AssetPath     `json:"asset" yaml:"asset"`
	Status             Status             `json:"status" yaml:"status"`
	NodesReconstructed int                `json:"nodesReconstructed" yaml:"nodesReconstructed"`
	CallSitesRewritten int                `json:"callSitesRewritten" yaml:"callSitesRewritten"`
	BindingsFixed      int                `json:"bindingsFixed" yaml:"bindingsFixed"`
	PinsRewritten      int                `json:"pinsRewritten" yaml:"pinsRewritten"`
	UnknownLiterals    []string           `json:"unknownLiterals,omitempty" yaml:"unknownLiterals,omitempty"`
	NodesTouched       int                `json:"nodesTouched" yaml:"nodesTouched"`
	Compile            host.CompileResult `json:"compile" yaml:"compile"`
	Issues             []core.Issue       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Result collects the dependents of one plan, in plan order.
type Result struct {
	Plan       string             `json:"plan" yaml:"plan"`
	Dependents []*DependentResult `json:"dependents" yaml:"dependents"`
}

// Processed is the number of dependents that were loaded.
func (r *Result) Processed() int {
	n := 0
	for _, d := range r.Dependents {
		if d.Status != StatusSkippedMissing {
			n++
		}
	}
	return n
}

// NodesTouched is the sum over dependents.
func (r *Result) NodesTouched() int {
	n := 0
	for _, d := range r.Dependents {
		n += d.NodesTouched
	}
	return n
}

// Issues flattens the dependents' issues.
func (r *Result) Issues() []core.Issue {
	var out []core.Issue
	for _, d := range r.Dependents {
		out = append(out, d.Issues...)
	}
	return out
}

// Fixer applies a migrated plan's reference changes to its dependents.
type Fixer struct {
	host   host.Host
	suffix string
	dryRun bool
	logFor func(path string) *log.Logger
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithClassSuffix sets the generated class suffix, "_C" by default.
func WithClassSuffix(suffix string) Option {
	return func(f *Fixer) { f.suffix = suffix }
}

// WithDryRun skips saving.
func WithDryRun(dryRun bool) Option {
	return func(f *Fixer) { f.dryRun = dryRun }
}

// WithLogger routes dependent logs to l, prefixed with the asset path.
func WithLogger(l *log.Logger) Option {
	return func(f *Fixer) {
		f.logFor = func(path string) *log.Logger { return l.WithPrefix(path) }
	}
}

// New creates a Fixer.
func New(h host.Host, opts ...Option) *Fixer {
	f := &Fixer{
		host:   h,
		suffix: core.DefaultClassSuffix,
		logFor: output.AssetLogger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fix processes every dependent of p in order. A failure on one dependent
// never affects the others or the target.
func (f *Fixer) Fix(p *plan.Plan) *Result {
	res := &Result{Plan: p.Name()}
	oldClass := p.Target().GeneratedClassName(f.suffix)
	for _, dep := range p.Dependents() {
		res.Dependents = append(res.Dependents, f.fixOne(p, dep, oldClass))
	}
	return res
}

func (f *Fixer) fixOne(p *plan.Plan, path core.AssetPath, oldClass string) *DependentResult {
	l := f.logFor(string(path))
	d := &DependentResult{Asset: path, Status: StatusFixed}
	issue := func(err error) {
		i := core.NewIssue(core.PhaseDependents, path, err)
		d.Issues = append(d.Issues, i)
		l.Warn(i.Message, "kind", i.Kind)
	}

	bp, err := f.host.LoadBlueprint(path)
	if err != nil {
		issue(err)
		d.Status = StatusSkippedMissing
		return d
	}

	before, err := host.Edges(f.host, bp)
	if err != nil {
		issue(err)
	}

	d.NodesReconstructed = f.host.ReconstructNodes(bp)
	calls, err := rewrite.CallSites(f.host, bp, p.Target(), oldClass, p.NewParent())
	if err != nil {
		issue(err)
	}
	d.CallSitesRewritten = calls.Rewritten

	pins, err := rewrite.Pins(f.host, bp, p.PinRewrites())
	if err != nil {
		issue(err)
	}
	d.PinsRewritten = pins.Rewritten
	d.UnknownLiterals = pins.UnknownLiterals

	binds, err := rewrite.DelegateBindings(f.host, bp, p.Target(), oldClass, p.NewParent())
	if err != nil {
		issue(err)
	}
	d.BindingsFixed = binds.Rewritten

	d.NodesTouched = len(distinct(calls.Nodes, pins.Nodes, binds.Nodes))

	after, err := host.Edges(f.host, bp)
	if err != nil {
		issue(err)
	}
	if missing := host.MissingEdges(before, after); len(missing) > 0 {
		d.Status = StatusTopologyChanged
		for _, e := range missing {
			issue(oerrors.Wrapf(oerrors.ErrVerificationMismatch, "connection %s %s.%s -> %s.%s lost",
				e.Graph, e.From.Node, e.From.Pin, e.To.Node, e.To.Pin))
		}
	}
	if added := host.AddedEdges(before, after); len(added) > 0 {
		d.Status = StatusTopologyChanged
		issue(oerrors.Wrapf(oerrors.ErrVerificationMismatch, "%d connections added", len(added)))
	}

	d.Compile = f.host.Compile(bp)
	for _, msg := range d.Compile.Errors {
		issue(oerrors.Wrap(oerrors.ErrCompileError, msg))
	}
	if !d.Compile.OK() && d.Status == StatusFixed {
		d.Status = StatusCompileErrors
	}

	if !f.dryRun {
		if err := f.host.SaveBlueprint(bp); err != nil {
			issue(err)
			if d.Status == StatusFixed {
				d.Status = StatusSaveFailed
			}
		}
	}

	l.Info("dependent processed", "status", d.Status,
		"callSites", d.CallSitesRewritten, "bindings", d.BindingsFixed,
		"pins", d.PinsRewritten, "nodesTouched", d.NodesTouched)
	return d
}

func distinct(keys ...[]string) []string {
	set := map[string]struct{}{}
	for _, ks := range keys {
		for _, k := range ks {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
