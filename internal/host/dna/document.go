// Package dna implements host.Host over exported "Blueprint DNA" documents:
// one YAML or JSON file per Blueprint plus a catalog of native classes.
//
// The model keeps the editor rules the migration depends on: reparenting is
// refused while a Blueprint variable shadows a native property, a variable
// still used by a function graph cannot be removed, and compile reports
// nodes whose class or member no longer resolves.
package dna

import (
	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
)

// KindBlueprint is the document kind of a Blueprint asset.
const KindBlueprint = "Blueprint"

// Document is the on-disk form of one asset.
type Document struct {
	Path   string `json:"path" yaml:"path"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Parent string `json:"parent" yaml:"parent"`

	// DeferredReparent makes Reparent report ReparentNeedsCompile; the new
	// parent becomes visible on the next compile.
	DeferredReparent bool `json:"deferredReparent,omitempty" yaml:"deferredReparent,omitempty"`

	// ReadOnly makes every save fail, like a file locked by source control.
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`

	Variables   []Variable            `json:"variables,omitempty" yaml:"variables,omitempty"`
	Dispatchers []string              `json:"dispatchers,omitempty" yaml:"dispatchers,omitempty"`
	Graphs      []*GraphDoc           `json:"graphs,omitempty" yaml:"graphs,omitempty"`
	Defaults    map[string]core.Value `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// ExportText overrides the generated export text.
	ExportText string `json:"exportText,omitempty" yaml:"exportText,omitempty"`
}

// Variable is a Blueprint member variable.
type Variable struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// GraphDoc is one graph and its nodes.
type GraphDoc struct {
	Name  string         `json:"name" yaml:"name"`
	Kind  host.GraphKind `json:"kind" yaml:"kind"`
	Nodes []*NodeDoc     `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// NodeDoc is one graph node.
type NodeDoc struct {
	ID     string `json:"id" yaml:"id"`
	Kind   string `json:"kind" yaml:"kind"`
	Member string `json:"member,omitempty" yaml:"member,omitempty"`

	// MemberParent is the owning class of the referenced member. Empty
	// means self for function and variable nodes.
	MemberParent string     `json:"memberParent,omitempty" yaml:"memberParent,omitempty"`
	Pins         []host.Pin `json:"pins,omitempty" yaml:"pins,omitempty"`
}

// IsBlueprint reports whether the document describes a Blueprint.
func (d *Document) IsBlueprint() bool {
	return d.Kind == "" || d.Kind == KindBlueprint
}

func (d *Document) graph(name string) *GraphDoc {
	for _, g := range d.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (d *Document) hasVariable(name string) bool {
	for _, v := range d.Variables {
		if v.Name == name {
			return true
		}
	}
	return false
}

func (d *Document) hasFunction(name string) bool {
	g := d.graph(name)
	return g != nil && g.Kind == host.GraphFunction
}

func (d *Document) hasDispatcher(name string) bool {
	for _, n := range d.Dispatchers {
		if n == name {
			return true
		}
	}
	return false
}

// hasMemberParentSlot reports whether a node kind carries a class reference.
func (n *NodeDoc) hasMemberParentSlot() bool {
	return n.Kind == host.NodeCallFunction || host.IsDelegateNode(n.Kind) || n.MemberParent != ""
}
