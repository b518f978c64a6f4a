// Package plan provides the declarative migration plan model.
//
// A Plan is immutable once built by New. Accessors return copies, so the
// engine can never mutate what a caller supplied.
package plan

import (
	"github.com/slfconversion/bpmigrate/internal/core"
)

// PropertyCopy transcribes a Blueprint member default onto a native property.
type PropertyCopy struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// LiteralRule renames one enum literal.
type LiteralRule struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// PinRewrite renames literals of one enum on pin defaults.
type PinRewrite struct {
	Enum  string        `json:"enum" yaml:"enum"`
	Rules []LiteralRule `json:"rules" yaml:"rules"`
}

// Lookup returns the replacement for old.
func (r PinRewrite) Lookup(old string) (string, bool) {
	for _, rule := range r.Rules {
		if rule.Old == old {
			return rule.New, true
		}
	}
	return "", false
}

// IsTarget reports whether value is one of the rewritten-to literals.
func (r PinRewrite) IsTarget(value string) bool {
	for _, rule := range r.Rules {
		if rule.New == value {
			return true
		}
	}
	return false
}

// Spec is the unvalidated input to New, as written in code or decoded from
// a plan document.
type Spec struct {
	Target                 string
	NewParent              string
	DeleteFunctions        []string
	DeleteVariables        []string
	DeleteEventDispatchers []string
	ClearEventGraph        bool
	PropertyCopies         []PropertyCopy
	PinRewrites            []PinRewrite
	Dependents             []string

	// Source is the document the spec came from, for diagnostics.
	Source string
}

// Plan is a validated, immutable migration plan for one Blueprint.
type Plan struct {
	target            core.AssetPath
	newParent         core.NativeClassRef
	deleteFunctions   []string
	deleteVariables   []string
	deleteDispatchers []string
	clearEventGraph   bool
	propertyCopies    []PropertyCopy
	pinRewrites       []PinRewrite
	dependents        []core.AssetPath
	source            string
}

// New validates spec and builds a Plan. Every problem found is returned in
// one ValidationErrors value.
func New(spec Spec) (*Plan, error) {
	target, newParent, dependents, errs := validate(spec)
	if errs != nil {
		errs.Source = spec.Source
		return nil, errs
	}

	return &Plan{
		target:            target,
		newParent:         newParent,
		deleteFunctions:   cloneStrings(spec.DeleteFunctions),
		deleteVariables:   cloneStrings(spec.DeleteVariables),
		deleteDispatchers: cloneStrings(spec.DeleteEventDispatchers),
		clearEventGraph:   spec.ClearEventGraph,
		propertyCopies:    append([]PropertyCopy(nil), spec.PropertyCopies...),
		pinRewrites:       clonePinRewrites(spec.PinRewrites),
		dependents:        dependents,
		source:            spec.Source,
	}, nil
}

// MustNew is New for plans written as literals; it panics on invalid input.
func MustNew(spec Spec) *Plan {
	p, err := New(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// Name is the stable key used in reports and logs: the target's last
// path segment.
func (p *Plan) Name() string {
	return p.target.Name()
}

// Target is the Blueprint being migrated.
func (p *Plan) Target() core.AssetPath {
	return p.target
}

// NewParent is the native class the target is reparented onto.
func (p *Plan) NewParent() core.NativeClassRef {
	return p.newParent
}

func (p *Plan) DeleteFunctions() []string {
	return cloneStrings(p.deleteFunctions)
}

func (p *Plan) DeleteVariables() []string {
	return cloneStrings(p.deleteVariables)
}

func (p *Plan) DeleteEventDispatchers() []string {
	return cloneStrings(p.deleteDispatchers)
}

func (p *Plan) ClearEventGraph() bool {
	return p.clearEventGraph
}

func (p *Plan) PropertyCopies() []PropertyCopy {
	return append([]PropertyCopy(nil), p.propertyCopies...)
}

// PinRewrites returns a deep copy of the enum literal rewrites.
func (p *Plan) PinRewrites() []PinRewrite {
	return clonePinRewrites(p.pinRewrites)
}

// Dependents are the assets whose references are fixed after the target.
func (p *Plan) Dependents() []core.AssetPath {
	return append([]core.AssetPath(nil), p.dependents...)
}

func (p *Plan) Source() string {
	return p.source
}

// DeletedMemberCount is the number of members the plan asks to remove.
func (p *Plan) DeletedMemberCount() int {
	return len(p.deleteFunctions) + len(p.deleteVariables) + len(p.deleteDispatchers)
}

// AliasMap maps Blueprint member names to the native property that takes
// over their value, from PropertyCopies.
func (p *Plan) AliasMap() map[string]string {
	aliases := make(map[string]string, len(p.propertyCopies))
	for _, c := range p.propertyCopies {
		aliases[c.From] = c.To
	}
	return aliases
}

// Spec returns the plan as a Spec, for re-serialisation.
func (p *Plan) Spec() Spec {
	deps := make([]string, len(p.dependents))
	for i, d := range p.dependents {
		deps[i] = string(d)
	}
	return Spec{
		Target:                 string(p.target),
		NewParent:              string(p.newParent),
		DeleteFunctions:        p.DeleteFunctions(),
		DeleteVariables:        p.DeleteVariables(),
		DeleteEventDispatchers: p.DeleteEventDispatchers(),
		ClearEventGraph:        p.clearEventGraph,
		PropertyCopies:         p.PropertyCopies(),
		PinRewrites:            p.PinRewrites(),
		Dependents:             deps,
		Source:                 p.source,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func clonePinRewrites(in []PinRewrite) []PinRewrite {
	if in == nil {
		return nil
	}
	out := make([]PinRewrite, len(in))
	for i, r := range in {
		out[i] = PinRewrite{Enum: r.Enum, Rules: append([]LiteralRule(nil), r.Rules...)}
	}
	return out
}
