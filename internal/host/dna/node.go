package dna

import (
	"fmt"

	"github.com/slfconversion/bpmigrate/internal/host"
)

// node adapts a NodeDoc to host.Node.
type node struct {
	graph string
	doc   *NodeDoc
}

var _ host.Node = (*node)(nil)

func (n *node) Graph() string      { return n.graph }
func (n *node) Kind() string       { return n.doc.Kind }
func (n *node) ID() string         { return n.doc.ID }
func (n *node) MemberName() string { return n.doc.Member }

// Pins returns copies; links are not writable through the visitor.
func (n *node) Pins() []host.Pin {
	pins := make([]host.Pin, len(n.doc.Pins))
	for i, p := range n.doc.Pins {
		p.LinkedTo = append([]host.PinRef(nil), p.LinkedTo...)
		pins[i] = p
	}
	return pins
}

func (n *node) PinDefault(pin string) (string, bool) {
	for _, p := range n.doc.Pins {
		if p.Name == pin {
			return p.Default, true
		}
	}
	return "", false
}

func (n *node) SetPinDefault(pin, value string) error {
	for i := range n.doc.Pins {
		if n.doc.Pins[i].Name == pin {
			n.doc.Pins[i].Default = value
			return nil
		}
	}
	return fmt.Errorf("node %s has no pin %s", n.doc.ID, pin)
}

func (n *node) MemberParent() (string, bool) {
	if !n.doc.hasMemberParentSlot() {
		return "", false
	}
	return n.doc.MemberParent, true
}

func (n *node) SetMemberParent(ref string) error {
	if !n.doc.hasMemberParentSlot() {
		return fmt.Errorf("node %s (%s) has no class reference", n.doc.ID, n.doc.Kind)
	}
	n.doc.MemberParent = ref
	return nil
}
