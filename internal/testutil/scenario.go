package testutil

import (
	"testing"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/host/dna"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// Asset paths and class references of the Foo fixture.
const (
	FooPath       = "/Game/X/BP_Foo"
	FooLegacyPath = "/Game/X/BP_FooLegacy"
	UserPath      = "/Game/UI/BP_User"
	EnumPath      = "/Game/E.ValueType"
	CppFoo        = "/Script/M.CppFoo"
	CppBase       = "/Script/M.CppBase"
)

// Catalog is the native module of the Foo fixture.
func Catalog() *dna.Catalog {
	return &dna.Catalog{Classes: []*dna.NativeClass{
		{
			ClassRef:    CppBase,
			Parent:      "/Script/Engine.ActorComponent",
			Properties:  map[string]core.Value{"Owner": core.Object("")},
			Dispatchers: []string{"OnReady"},
		},
		{
			ClassRef:    CppFoo,
			Parent:      CppBase,
			Properties:  map[string]core.Value{"Speed": core.Primitive(0.0), "Mode": core.Primitive("")},
			Functions:   []string{"Tick", "SetValueType"},
			Dispatchers: []string{"OnSpeedChanged"},
		},
	}}
}

// FooDoc is a Blueprint still parented to its Blueprint base, with a
// Speed variable shadowing CppFoo.Speed.
func FooDoc() *dna.Document {
	return &dna.Document{
		Path:        FooPath,
		Parent:      FooLegacyPath,
		Variables:   []dna.Variable{{Name: "Speed", Type: "float"}, {Name: "Label", Type: "string"}},
		Dispatchers: []string{"OnSpeedChanged"},
		Graphs: []*dna.GraphDoc{
			{Name: "EventGraph", Kind: host.GraphUber, Nodes: []*dna.NodeDoc{
				{ID: "Begin", Kind: host.NodeEvent, Member: "ReceiveBeginPlay", Pins: []host.Pin{
					ExecOut("then", "CallTick", "execute"),
				}},
				{ID: "CallTick", Kind: host.NodeCallFunction, Member: "Tick", Pins: []host.Pin{
					ExecIn("execute", "Begin", "then"),
				}},
			}},
			{Name: "Tick", Kind: host.GraphFunction, Nodes: []*dna.NodeDoc{
				{ID: "ReadSpeed", Kind: host.NodeVariableGet, Member: "Speed"},
			}},
			{Name: "OnSpeedChanged", Kind: host.GraphDelegate},
		},
		Defaults: map[string]core.Value{
			"Speed": core.Primitive(600.0),
			"Label": core.Primitive("foo"),
		},
	}
}

// FooLegacyDoc is FooDoc's Blueprint base.
func FooLegacyDoc() *dna.Document {
	return &dna.Document{Path: FooLegacyPath, Parent: CppBase}
}

// UserDoc is a dependent of BP_Foo: it calls BP_Foo_C::Tick, binds
// OnSpeedChanged, and has four enum pins (three NewEnumerator0, one
// NewEnumerator2).
func UserDoc() *dna.Document {
	fooClass := FooPath + ".BP_Foo_C"
	return &dna.Document{
		Path:      UserPath,
		Parent:    "/Script/Engine.Actor",
		Variables: []dna.Variable{{Name: "FooRef", Type: "object"}},
		Graphs: []*dna.GraphDoc{
			{Name: "EventGraph", Kind: host.GraphUber, Nodes: []*dna.NodeDoc{
				{ID: "Begin", Kind: host.NodeEvent, Member: "ReceiveBeginPlay", Pins: []host.Pin{
					ExecOut("then", "CallTick", "execute"),
				}},
				{ID: "GetFoo", Kind: host.NodeVariableGet, Member: "FooRef", Pins: []host.Pin{
					{Name: "FooRef", Direction: host.PinOutput, Type: host.PinType{Category: "object", Object: fooClass},
						LinkedTo: []host.PinRef{{Node: "CallTick", Pin: "self"}, {Node: "Bind", Pin: "self"}}},
				}},
				{ID: "CallTick", Kind: host.NodeCallFunction, Member: "Tick", MemberParent: fooClass, Pins: []host.Pin{
					ExecIn("execute", "Begin", "then"),
					{Name: "self", Direction: host.PinInput, Type: host.PinType{Category: "object", Object: fooClass},
						LinkedTo: []host.PinRef{{Node: "GetFoo", Pin: "FooRef"}}},
					ExecOut("then", "Bind", "execute"),
				}},
				{ID: "Bind", Kind: host.NodeAddDelegate, Member: "OnSpeedChanged", MemberParent: fooClass, Pins: []host.Pin{
					ExecIn("execute", "CallTick", "then"),
					{Name: "self", Direction: host.PinInput, Type: host.PinType{Category: "object", Object: fooClass},
						LinkedTo: []host.PinRef{{Node: "GetFoo", Pin: "FooRef"}}},
				}},
				EnumNode("SetA", "NewEnumerator0"),
				EnumNode("SetB", "NewEnumerator0"),
				EnumNode("SetC", "NewEnumerator0"),
				EnumNode("SetD", "NewEnumerator2"),
			}},
		},
	}
}

// EnumNode is a CppFoo.SetValueType call with one ValueType pin.
func EnumNode(id, literal string) *dna.NodeDoc {
	return &dna.NodeDoc{ID: id, Kind: host.NodeCallFunction, Member: "SetValueType", MemberParent: CppFoo, Pins: []host.Pin{
		{Name: "Type", Direction: host.PinInput, Type: host.PinType{Category: "byte", Object: EnumPath}, Default: literal},
	}}
}

// ExecOut is an output exec pin linked to node.pin.
func ExecOut(name, node, pin string) host.Pin {
	return host.Pin{Name: name, Direction: host.PinOutput, Type: host.PinType{Category: "exec"},
		LinkedTo: []host.PinRef{{Node: node, Pin: pin}}}
}

// ExecIn is an input exec pin linked from node.pin.
func ExecIn(name, node, pin string) host.Pin {
	return host.Pin{Name: name, Direction: host.PinInput, Type: host.PinType{Category: "exec"},
		LinkedTo: []host.PinRef{{Node: node, Pin: pin}}}
}

// FooWorkspace builds an in-memory workspace with the Foo fixture.
// Extra documents are added after the defaults.
func FooWorkspace(t *testing.T, extra ...*dna.Document) *dna.Workspace {
	t.Helper()
	docs := append([]*dna.Document{FooDoc(), FooLegacyDoc(), UserDoc()}, extra...)
	w, err := dna.New(Catalog(), docs)
	if err != nil {
		t.Fatalf("building workspace: %v", err)
	}
	return w
}

// FooSpec is the plan migrating BP_Foo onto CppFoo and fixing BP_User.
func FooSpec() plan.Spec {
	return plan.Spec{
		Target:                 FooPath,
		NewParent:              CppFoo,
		DeleteFunctions:        []string{"Tick"},
		DeleteVariables:        []string{"Speed"},
		DeleteEventDispatchers: []string{"OnSpeedChanged"},
		ClearEventGraph:        true,
		PropertyCopies:         []plan.PropertyCopy{{From: "Speed", To: "Speed"}},
		PinRewrites: []plan.PinRewrite{{
			Enum: EnumPath,
			Rules: []plan.LiteralRule{
				{Old: "NewEnumerator0", New: "CurrentValue"},
				{Old: "NewEnumerator1", New: "MaxValue"},
			},
		}},
		Dependents: []string{UserPath},
	}
}

// FooPlan is FooSpec built into a Plan.
func FooPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.New(FooSpec())
	if err != nil {
		t.Fatalf("building plan: %v", err)
	}
	return p
}

// MustLoad opens a Blueprint from the workspace.
func MustLoad(t *testing.T, h host.Host, path string) host.Blueprint {
	t.Helper()
	bp, err := h.LoadBlueprint(core.AssetPath(path))
	if err != nil {
		t.Fatalf("loading %s: %v", path, err)
	}
	return bp
}

// PinDefaults returns node id → default of the named pin across all graphs.
func PinDefaults(t *testing.T, h host.Host, bp host.Blueprint, pin string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := h.ForEachNode(bp, func(n host.Node) error {
		if v, ok := n.PinDefault(pin); ok {
			out[n.ID()] = v
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking nodes: %v", err)
	}
	return out
}
