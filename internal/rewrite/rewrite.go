// Package rewrite edits pin defaults and class reference slots in place.
// It never touches pin links.
package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// NodeKey identifies a node across graphs.
func NodeKey(n host.Node) string {
	return n.Graph() + "/" + n.ID()
}

// PinResult tallies one pin rewrite pass.
type PinResult struct {
	Rewritten int
	Unknown   int

	// UnknownLiterals are "graph/node.pin=literal" entries, sorted.
	UnknownLiterals []string

	// Nodes are the keys of nodes with at least one rewritten pin.
	Nodes []string
}

// Add merges another pass into r.
func (r *PinResult) Add(o PinResult) {
	r.Rewritten += o.Rewritten
	r.Unknown += o.Unknown
	r.UnknownLiterals = append(r.UnknownLiterals, o.UnknownLiterals...)
	r.Nodes = append(r.Nodes, o.Nodes...)
}

// ruleFor returns the rewrite whose enum matches the pin type.
func ruleFor(rules []plan.PinRewrite, pin host.Pin) (plan.PinRewrite, bool) {
	if pin.Type.Object == "" {
		return plan.PinRewrite{}, false
	}
	for _, r := range rules {
		if core.SameEnum(r.Enum, pin.Type.Object) {
			return r, true
		}
	}
	return plan.PinRewrite{}, false
}

// Pins rewrites every pin default whose declared type is a rewritten enum
// and whose value is an old literal. Values that are neither an old nor a
// new literal are left alone and counted as unknown.
func Pins(h host.Host, bp host.Blueprint, rules []plan.PinRewrite) (PinResult, error) {
	var res PinResult
	if len(rules) == 0 {
		return res, nil
	}
	err := h.ForEachNode(bp, func(n host.Node) error {
		touched := false
		for _, pin := range n.Pins() {
			rule, ok := ruleFor(rules, pin)
			if !ok || pin.Default == "" {
				continue
			}
			if next, ok := rule.Lookup(pin.Default); ok {
				if err := n.SetPinDefault(pin.Name, next); err != nil {
					return fmt.Errorf("rewriting %s.%s: %w", NodeKey(n), pin.Name, err)
				}
				res.Rewritten++
				touched = true
				continue
			}
			if !rule.IsTarget(pin.Default) {
				res.Unknown++
				res.UnknownLiterals = append(res.UnknownLiterals,
					fmt.Sprintf("%s.%s=%s", NodeKey(n), pin.Name, pin.Default))
			}
		}
		if touched {
			res.Nodes = append(res.Nodes, NodeKey(n))
		}
		return nil
	})
	sort.Strings(res.UnknownLiterals)
	return res, err
}

// PendingPins counts pins that still carry an old literal.
func PendingPins(h host.Host, bp host.Blueprint, rules []plan.PinRewrite) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	count := 0
	err := h.ForEachNode(bp, func(n host.Node) error {
		for _, pin := range n.Pins() {
			if rule, ok := ruleFor(rules, pin); ok {
				if _, old := rule.Lookup(pin.Default); old {
					count++
				}
			}
		}
		return nil
	})
	return count, err
}

// RefResult tallies one class reference pass.
type RefResult struct {
	Rewritten int
	Nodes     []string
}

// MatchesClass reports whether a class reference slot names className, the
// generated class of target. A bare class name matches on the name alone;
// a slot carrying a package path must also name target's package.
func MatchesClass(slot string, target core.AssetPath, className string) bool {
	if slot == "" {
		return false
	}
	ref := core.UnquoteRef(slot)
	if core.ObjectName(ref) != className {
		return false
	}
	if pkg, ok := packagePath(ref); ok {
		return pkg == string(target)
	}
	return true
}

// packagePath returns the package of an object path such as
// "/Game/X/BP_Foo.BP_Foo_C". Unqualified names have none.
func packagePath(ref string) (string, bool) {
	slash := strings.LastIndex(ref, "/")
	if slash < 0 {
		return "", false
	}
	if dot := strings.IndexAny(ref[slash:], ".:"); dot >= 0 {
		return ref[:slash+dot], true
	}
	return ref, true
}

// CallSites rewrites function call nodes owned by oldClass, the generated
// class of target, to newClass.
func CallSites(h host.Host, bp host.Blueprint, target core.AssetPath, oldClass string, newClass core.NativeClassRef) (RefResult, error) {
	return classRefs(h, bp, target, oldClass, newClass, func(kind string) bool {
		return kind == host.NodeCallFunction
	})
}

// DelegateBindings rewrites dispatcher binding nodes owned by oldClass to
// newClass.
func DelegateBindings(h host.Host, bp host.Blueprint, target core.AssetPath, oldClass string, newClass core.NativeClassRef) (RefResult, error) {
	return classRefs(h, bp, target, oldClass, newClass, host.IsDelegateNode)
}

func classRefs(h host.Host, bp host.Blueprint, target core.AssetPath, oldClass string, newClass core.NativeClassRef, kind func(string) bool) (RefResult, error) {
	var res RefResult
	err := h.ForEachNode(bp, func(n host.Node) error {
		if !kind(n.Kind()) {
			return nil
		}
		slot, ok := n.MemberParent()
		if !ok || !MatchesClass(slot, target, oldClass) {
			return nil
		}
		if err := n.SetMemberParent(string(newClass)); err != nil {
			return fmt.Errorf("rewriting class reference of %s: %w", NodeKey(n), err)
		}
		res.Rewritten++
		res.Nodes = append(res.Nodes, NodeKey(n))
		return nil
	})
	return res, err
}
