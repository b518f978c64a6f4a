package host

import "sort"

// Node kinds the engine and fixer recognise. Hosts may report others.
const (
	NodeCallFunction   = "CallFunction"
	NodeVariableGet    = "VariableGet"
	NodeVariableSet    = "VariableSet"
	NodeEvent          = "Event"
	NodeCustomEvent    = "CustomEvent"
	NodeAddDelegate    = "AddDelegate"
	NodeRemoveDelegate = "RemoveDelegate"
	NodeClearDelegate  = "ClearDelegate"
	NodeCallDelegate   = "CallDelegate"
	NodeAssignDelegate = "AssignDelegate"
	NodeCreateDelegate = "CreateDelegate"
)

// IsDelegateNode reports whether kind binds or calls an event dispatcher.
func IsDelegateNode(kind string) bool {
	switch kind {
	case NodeAddDelegate, NodeRemoveDelegate, NodeClearDelegate,
		NodeCallDelegate, NodeAssignDelegate, NodeCreateDelegate:
		return true
	}
	return false
}

// PinDirection is the side of a node a pin sits on.
type PinDirection string

const (
	PinInput  PinDirection = "input"
	PinOutput PinDirection = "output"
)

// PinType is the declared type of a pin. Object holds the enum, struct or
// class object path for byte, struct and object categories.
type PinType struct {
	Category string `json:"category" yaml:"category"`
	Object   string `json:"object,omitempty" yaml:"object,omitempty"`
}

// PinRef addresses a pin on another node of the same graph.
type PinRef struct {
	Node string `json:"node" yaml:"node"`
	Pin  string `json:"pin" yaml:"pin"`
}

// Pin is a read-only view of a node pin.
type Pin struct {
	Name      string       `json:"name" yaml:"name"`
	Direction PinDirection `json:"direction" yaml:"direction"`
	Type      PinType      `json:"type" yaml:"type"`
	Default   string       `json:"default,omitempty" yaml:"default,omitempty"`
	LinkedTo  []PinRef     `json:"linkedTo,omitempty" yaml:"linkedTo,omitempty"`
}

// Node is the visitor's view of a graph node. Writes go straight to the
// editor model; nothing exposes pin links for mutation.
type Node interface {
	Graph() string
	Kind() string
	ID() string

	// MemberName is the function, variable or delegate the node refers to.
	MemberName() string

	Pins() []Pin
	PinDefault(pin string) (string, bool)
	SetPinDefault(pin, value string) error

	// MemberParent returns the class reference slot; ok is false when the
	// node kind has none.
	MemberParent() (ref string, ok bool)
	SetMemberParent(ref string) error
}

// Edge is one pin-to-pin connection, normalised so that From sorts first.
type Edge struct {
	Graph string
	From  PinRef
	To    PinRef
}

// Edges collects every connection of bp as a set.
func Edges(h Host, bp Blueprint) (map[Edge]struct{}, error) {
	edges := make(map[Edge]struct{})
	err := h.ForEachNode(bp, func(n Node) error {
		for _, p := range n.Pins() {
			from := PinRef{Node: n.ID(), Pin: p.Name}
			for _, to := range p.LinkedTo {
				a, b := from, to
				if less(b, a) {
					a, b = b, a
				}
				edges[Edge{Graph: n.Graph(), From: a, To: b}] = struct{}{}
			}
		}
		return nil
	})
	return edges, err
}

// MissingEdges returns the edges of before that are absent from after,
// sorted for stable reporting.
func MissingEdges(before, after map[Edge]struct{}) []Edge {
	var missing []Edge
	for e := range before {
		if _, ok := after[e]; !ok {
			missing = append(missing, e)
		}
	}
	sortEdges(missing)
	return missing
}

// AddedEdges returns the edges of after that were not present in before.
func AddedEdges(before, after map[Edge]struct{}) []Edge {
	return MissingEdges(after, before)
}

func less(a, b PinRef) bool {
	if a.Node != b.Node {
		return a.Node < b.Node
	}
	return a.Pin < b.Pin
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Graph != edges[j].Graph {
			return edges[i].Graph < edges[j].Graph
		}
		if edges[i].From != edges[j].From {
			return less(edges[i].From, edges[j].From)
		}
		return less(edges[i].To, edges[j].To)
	})
}
