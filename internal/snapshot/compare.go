package snapshot

import (
	"fmt"
	"sort"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// Mismatch is one captured property whose current value differs.
type Mismatch struct {
	Asset    core.AssetPath `json:"asset" yaml:"asset"`
	Property string         `json:"property" yaml:"property"`
	Expected core.Value     `json:"expected" yaml:"expected"`
	Actual   *core.Value    `json:"actual,omitempty" yaml:"actual,omitempty"`
	Reason   string         `json:"reason" yaml:"reason"`
}

func (m Mismatch) String() string {
	actual := "<missing>"
	if m.Actual != nil {
		actual = m.Actual.String()
	}
	return fmt.Sprintf("%s %s: expected %s, got %s (%s)", m.Asset, m.Property, m.Expected, actual, m.Reason)
}

// Aliases maps, per asset, a captured property name to the name it is
// verified under after migration. An empty alias marks a property the
// migration drops on purpose; it is not verified.
type Aliases map[core.AssetPath]map[string]string

// AliasesForPlans builds aliases from each plan's property copies. Deleted
// variables that are not copied map to "".
func AliasesForPlans(plans []*plan.Plan) Aliases {
	out := Aliases{}
	for _, p := range plans {
		m := out[p.Target()]
		if m == nil {
			m = map[string]string{}
			out[p.Target()] = m
		}
		for _, v := range p.DeleteVariables() {
			m[v] = ""
		}
		for from, to := range p.AliasMap() {
			m[from] = to
		}
	}
	return out
}

// CompareValue applies the type-aware comparison to one property.
func CompareValue(asset core.AssetPath, property string, expected, actual core.Value) (Mismatch, bool) {
	eq, reason := expected.Equal(actual)
	if eq {
		return Mismatch{}, false
	}
	a := actual
	return Mismatch{Asset: asset, Property: property, Expected: expected, Actual: &a, Reason: reason}, true
}

// Compare checks every captured property against the current editor state.
// Results are ordered by asset then property.
func Compare(h host.Host, snap *Snapshot, aliases Aliases, opts ...Option) []Mismatch {
	o := newOptions(opts)
	var out []Mismatch
	for _, path := range snap.Paths() {
		bp, err := h.LoadBlueprint(path)
		if err != nil {
			o.log.Warn("cannot verify asset", "asset", path, "err", err)
			out = append(out, Mismatch{Asset: path, Reason: fmt.Sprintf("asset not loadable: %v", err)})
			continue
		}
		out = append(out, compareAsset(h, bp, snap.Assets[path], aliases[path], o)...)
	}
	return out
}

func compareAsset(h host.Host, bp host.Blueprint, asset *Asset, aliases map[string]string, o *options) []Mismatch {
	if asset == nil {
		return nil
	}
	names := make([]string, 0, len(asset.Properties))
	for n := range asset.Properties {
		names = append(names, n)
	}
	sort.Strings(names)

	fb := &fallback{h: h, bp: bp, ex: o.extractor}
	var out []Mismatch
	for _, name := range names {
		target := name
		if alias, ok := aliases[name]; ok {
			if alias == "" {
				continue
			}
			target = alias
		}
		expected := asset.Properties[name]
		actual, err := readProperty(h, bp, target, fb)
		if err != nil {
			out = append(out, Mismatch{
				Asset:    bp.Path(),
				Property: target,
				Expected: expected,
				Reason:   "property missing",
			})
			continue
		}
		if m, ok := CompareValue(bp.Path(), target, expected, actual.Normalize()); ok {
			out = append(out, m)
		}
	}
	return out
}
