package plan

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"sigs.k8s.io/yaml"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

//go:embed schema.cue
var schemaCUE []byte

// document is the decoded shape of one plan entry.
type document struct {
	Target                 string                       `json:"target"`
	NewParent              string                       `json:"new_parent"`
	DeleteFunctions        []string                     `json:"delete_functions,omitempty"`
	DeleteVariables        []string                     `json:"delete_variables,omitempty"`
	DeleteEventDispatchers []string                     `json:"delete_event_dispatchers,omitempty"`
	ClearEventGraph        bool                         `json:"clear_event_graph,omitempty"`
	PropertyCopies         []PropertyCopy               `json:"property_copies,omitempty"`
	PinRewrites            map[string]map[string]string `json:"pin_rewrites,omitempty"`
	Dependents             []string                     `json:"dependents,omitempty"`
}

type documentSet struct {
	Plans []document `json:"plans"`
}

// Loader reads plan documents (YAML, JSON or CUE) and checks them against
// the embedded #PlanSet schema before building Plans.
type Loader struct {
	ctx     *cue.Context
	planSet cue.Value
	plan    cue.Value
}

// NewLoader compiles the embedded schema.
func NewLoader() (*Loader, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling plan schema: %w", schema.Err())
	}
	return &Loader{
		ctx:     ctx,
		planSet: schema.LookupPath(cue.ParsePath("#PlanSet")),
		plan:    schema.LookupPath(cue.ParsePath("#Plan")),
	}, nil
}

// LoadFiles loads every file in order and concatenates their plans,
// preserving file order then document order.
func (l *Loader) LoadFiles(paths ...string) ([]*Plan, error) {
	var all []*Plan
	for _, p := range paths {
		plans, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, plans...)
	}
	return all, nil
}

// LoadFile loads one plan document.
func (l *Loader) LoadFile(path string) ([]*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError(fmt.Sprintf("plan file %s does not exist", path), path, "")
		}
		return nil, fmt.Errorf("reading plan file %s: %w", path, err)
	}
	return l.Parse(data, path)
}

// Parse decodes a plan document. name selects the format by extension and
// labels diagnostics. A document is either a "plans:" list or a single plan.
func (l *Loader) Parse(data []byte, name string) ([]*Plan, error) {
	var src []byte
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		src = data
	default:
		// JSON is valid CUE; YAML is converted first.
		j, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, oerrors.NewValidationError(fmt.Sprintf("parsing YAML: %v", err), name, "", "")
		}
		src = j
	}

	v := l.ctx.CompileBytes(src, cue.Filename(name))
	if v.Err() != nil {
		return nil, schemaError(name, v.Err())
	}

	single := v.LookupPath(cue.ParsePath("target")).Exists()
	schema := l.planSet
	if single {
		schema = l.plan
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, schemaError(name, err)
	}

	var docs []document
	if single {
		var d document
		if err := unified.Decode(&d); err != nil {
			return nil, schemaError(name, err)
		}
		docs = []document{d}
	} else {
		var set documentSet
		if err := unified.Decode(&set); err != nil {
			return nil, schemaError(name, err)
		}
		docs = set.Plans
	}

	plans := make([]*Plan, 0, len(docs))
	for i, d := range docs {
		spec := d.spec()
		spec.Source = name
		if !single {
			spec.Source = fmt.Sprintf("%s#plans[%d]", name, i)
		}
		p, err := New(spec)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// spec converts the document form. pin_rewrites maps are ordered by enum
// path and old literal so rewrites run deterministically.
func (d document) spec() Spec {
	var rewrites []PinRewrite
	enums := make([]string, 0, len(d.PinRewrites))
	for e := range d.PinRewrites {
		enums = append(enums, e)
	}
	sort.Strings(enums)
	for _, e := range enums {
		olds := make([]string, 0, len(d.PinRewrites[e]))
		for o := range d.PinRewrites[e] {
			olds = append(olds, o)
		}
		sort.Strings(olds)
		rw := PinRewrite{Enum: e}
		for _, o := range olds {
			rw.Rules = append(rw.Rules, LiteralRule{Old: o, New: d.PinRewrites[e][o]})
		}
		rewrites = append(rewrites, rw)
	}

	return Spec{
		Target:                 d.Target,
		NewParent:              d.NewParent,
		DeleteFunctions:        d.DeleteFunctions,
		DeleteVariables:        d.DeleteVariables,
		DeleteEventDispatchers: d.DeleteEventDispatchers,
		ClearEventGraph:        d.ClearEventGraph,
		PropertyCopies:         d.PropertyCopies,
		PinRewrites:            rewrites,
		Dependents:             d.Dependents,
	}
}

// Document returns the plan in its document form, for plan vet output.
func (p *Plan) Document() map[string]any {
	out := map[string]any{
		"target":     string(p.target),
		"new_parent": string(p.newParent),
	}
	if len(p.deleteFunctions) > 0 {
		out["delete_functions"] = p.DeleteFunctions()
	}
	if len(p.deleteVariables) > 0 {
		out["delete_variables"] = p.DeleteVariables()
	}
	if len(p.deleteDispatchers) > 0 {
		out["delete_event_dispatchers"] = p.DeleteEventDispatchers()
	}
	if p.clearEventGraph {
		out["clear_event_graph"] = true
	}
	if len(p.propertyCopies) > 0 {
		out["property_copies"] = p.PropertyCopies()
	}
	if len(p.pinRewrites) > 0 {
		rw := map[string]map[string]string{}
		for _, r := range p.pinRewrites {
			rules := map[string]string{}
			for _, rule := range r.Rules {
				rules[rule.Old] = rule.New
			}
			rw[r.Enum] = rules
		}
		out["pin_rewrites"] = rw
	}
	if len(p.dependents) > 0 {
		out["dependents"] = p.Spec().Dependents
	}
	return out
}

func schemaError(name string, err error) error {
	msg := strings.TrimSpace(cueerrors.Details(err, nil))
	return &oerrors.DetailError{
		Type:     "plan document invalid",
		Message:  msg,
		Location: name,
		Hint:     "A plan document has a plans list; each plan needs target (/Game/...) and new_parent (/Script/Module.Class).",
		Cause:    oerrors.ErrValidation,
	}
}
