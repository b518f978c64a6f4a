// Package snapshot captures Blueprint defaults before migration and checks
// them afterwards. It never mutates assets.
package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/extract"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// FormatVersion identifies the snapshot document layout.
const FormatVersion = "bpmigrate.snapshot/v1"

// Asset is the captured state of one Blueprint.
type Asset struct {
	ParentClass string                `json:"parentClass" yaml:"parentClass"`
	Properties  map[string]core.Value `json:"properties" yaml:"properties"`
}

// Snapshot maps asset paths to their captured state.
type Snapshot struct {
	Version    string                    `json:"version" yaml:"version"`
	CapturedAt time.Time                 `json:"capturedAt,omitempty" yaml:"capturedAt,omitempty"`
	Assets     map[core.AssetPath]*Asset `json:"assets" yaml:"assets"`
	Warnings   []string                  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{Version: FormatVersion, Assets: map[core.AssetPath]*Asset{}}
}

// Asset returns the captured state of path.
func (s *Snapshot) Asset(path core.AssetPath) (*Asset, bool) {
	if s == nil {
		return nil, false
	}
	a, ok := s.Assets[path]
	return a, ok
}

// Property returns one captured value.
func (s *Snapshot) Property(path core.AssetPath, name string) (core.Value, bool) {
	a, ok := s.Asset(path)
	if !ok {
		return core.Value{}, false
	}
	v, ok := a.Properties[name]
	return v, ok
}

// Paths returns the captured asset paths in sorted order.
func (s *Snapshot) Paths() []core.AssetPath {
	paths := make([]core.AssetPath, 0, len(s.Assets))
	for p := range s.Assets {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// PropertyCount is the total number of captured properties.
func (s *Snapshot) PropertyCount() int {
	n := 0
	for _, a := range s.Assets {
		n += len(a.Properties)
	}
	return n
}

// Target names an asset to capture. An empty Properties list captures every
// editable CDO property.
type Target struct {
	Path       core.AssetPath
	Properties []string
}

// TargetsForPlans builds capture targets from plan targets and the sources
// of their property copies. With all set, or for a plan without copies,
// every property is captured.
func TargetsForPlans(plans []*plan.Plan, all bool) []Target {
	var targets []Target
	for _, p := range plans {
		t := Target{Path: p.Target()}
		if !all {
			for _, c := range p.PropertyCopies() {
				t.Properties = append(t.Properties, c.From)
			}
		}
		targets = append(targets, t)
	}
	return targets
}

type options struct {
	extractor extract.Extractor
	log       *log.Logger
	now       func() time.Time
}

// Option configures Capture and Compare.
type Option func(*options)

// WithExtractor sets the fallback extractor used for properties the CDO
// cannot read.
func WithExtractor(e extract.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) *options {
	o := &options{
		extractor: extract.TextExtractor{},
		log:       output.Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Capture reads the targets' parents and defaults. Targets naming the same
// asset are merged. A missing asset or property becomes a warning on the
// snapshot.
func Capture(h host.Host, targets []Target, opts ...Option) *Snapshot {
	o := newOptions(opts)
	snap := New()
	snap.CapturedAt = o.now().UTC().Truncate(time.Second)

	for _, t := range mergeTargets(targets) {
		bp, err := h.LoadBlueprint(t.Path)
		if err != nil {
			o.log.Warn("skipping asset", "asset", t.Path, "err", err)
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: %v", t.Path, err))
			continue
		}

		asset := &Asset{
			ParentClass: h.ParentClass(bp).String(),
			Properties:  map[string]core.Value{},
		}
		names := t.Properties
		if len(names) == 0 {
			names = h.ListCDOProperties(bp)
		}

		fb := &fallback{h: h, bp: bp, ex: o.extractor}
		for _, name := range names {
			v, err := readProperty(h, bp, name, fb)
			if err != nil {
				snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: property %s: %v", t.Path, name, err))
				continue
			}
			asset.Properties[name] = v.Normalize()
		}
		if len(t.Properties) == 0 {
			// Export text can carry properties reflection does not list.
			for name, v := range fb.all() {
				if _, ok := asset.Properties[name]; !ok {
					asset.Properties[name] = v.Normalize()
				}
			}
		}

		o.log.Debug("captured asset", "asset", t.Path, "parent", asset.ParentClass, "properties", len(asset.Properties))
		snap.Assets[t.Path] = asset
	}
	return snap
}

func mergeTargets(targets []Target) []Target {
	var order []core.AssetPath
	merged := map[core.AssetPath]*Target{}
	for _, t := range targets {
		m, ok := merged[t.Path]
		if !ok {
			cp := Target{Path: t.Path, Properties: append([]string(nil), t.Properties...)}
			merged[t.Path] = &cp
			order = append(order, t.Path)
			continue
		}
		if len(m.Properties) == 0 || len(t.Properties) == 0 {
			m.Properties = nil
			continue
		}
		for _, p := range t.Properties {
			if !contains(m.Properties, p) {
				m.Properties = append(m.Properties, p)
			}
		}
	}
	out := make([]Target, 0, len(order))
	for _, p := range order {
		out = append(out, *merged[p])
	}
	return out
}

// fallback lazily extracts values from the asset's export text.
type fallback struct {
	h      host.Host
	bp     host.Blueprint
	ex     extract.Extractor
	loaded bool
	values map[string]core.Value
}

func (f *fallback) all() map[string]core.Value {
	if !f.loaded {
		f.loaded = true
		if f.ex == nil {
			return nil
		}
		text, err := f.h.ExportText(f.bp)
		if err != nil {
			return nil
		}
		f.values = f.ex.Extract(text, nil)
	}
	return f.values
}

func (f *fallback) get(name string) (core.Value, bool) {
	v, ok := f.all()[name]
	return v, ok
}

func readProperty(h host.Host, bp host.Blueprint, name string, fb *fallback) (core.Value, error) {
	v, err := h.ReadCDOProperty(bp, name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, oerrors.ErrNotFound) {
		return core.Value{}, err
	}
	if v, ok := fb.get(name); ok {
		return v, nil
	}
	return core.Value{}, err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
