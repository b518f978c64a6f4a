// Package host defines the editor surface the migration engine drives.
//
// Every operation returns a typed outcome or an error wrapping one of the
// kind sentinels in internal/errors. Implementations must not panic across
// this boundary and must route their own logging through a single sink.
package host

import (
	"github.com/slfconversion/bpmigrate/internal/core"
)

// Blueprint is an open editor handle. Handles are owned by the caller for
// the duration of one plan and never cached across plans.
type Blueprint interface {
	Path() core.AssetPath
}

// Class is a loaded native class.
type Class interface {
	Ref() core.NativeClassRef
}

// ReparentOutcome distinguishes an applied reparent from one the editor
// accepted but only exposes after compile.
type ReparentOutcome int

const (
	ReparentApplied ReparentOutcome = iota
	ReparentNeedsCompile
)

func (o ReparentOutcome) String() string {
	if o == ReparentNeedsCompile {
		return "needs-compile"
	}
	return "applied"
}

// RemoveOutcome is the result of a member removal.
type RemoveOutcome int

const (
	Removed RemoveOutcome = iota
	NotFound
	StillReferenced
)

func (o RemoveOutcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case NotFound:
		return "not-found"
	case StillReferenced:
		return "still-referenced"
	}
	return "unknown"
}

// CompileResult carries the messages of one compile.
type CompileResult struct {
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// OK reports whether the compile produced no errors.
func (r CompileResult) OK() bool { return len(r.Errors) == 0 }

// GraphKind classifies a Blueprint graph.
type GraphKind string

const (
	GraphUber     GraphKind = "uber"
	GraphFunction GraphKind = "function"
	GraphMacro    GraphKind = "macro"
	GraphDelegate GraphKind = "delegate"
)

// Graph names one graph of a Blueprint.
type Graph struct {
	Name string    `json:"name" yaml:"name"`
	Kind GraphKind `json:"kind" yaml:"kind"`
}

// Host is the editor surface. Calls are synchronous; load, compile, save and
// reconstruct may block for noticeable time.
type Host interface {
	LoadBlueprint(path core.AssetPath) (Blueprint, error)
	SaveBlueprint(bp Blueprint) error
	LoadNativeClass(ref core.NativeClassRef) (Class, error)

	ParentClass(bp Blueprint) core.ClassRef
	Reparent(bp Blueprint, class Class) (ReparentOutcome, error)
	Compile(bp Blueprint) CompileResult

	ListVariables(bp Blueprint) []string
	ListFunctions(bp Blueprint) []string
	ListEventDispatchers(bp Blueprint) []string

	// RemoveVariable returns StillReferenced together with an error wrapping
	// ErrMemberRemovalRefused when a graph still uses the variable.
	RemoveVariable(bp Blueprint, name string) (RemoveOutcome, error)
	RemoveFunction(bp Blueprint, name string) (RemoveOutcome, error)
	RemoveEventDispatcher(bp Blueprint, name string) (RemoveOutcome, error)

	Graphs(bp Blueprint) []Graph
	ClearGraphNodes(bp Blueprint, graph string) int

	// ForEachNode visits every node of every graph in graph order. A visitor
	// error stops the walk and is returned.
	ForEachNode(bp Blueprint, visit func(Node) error) error

	// ReconstructNodes refreshes every node so it re-resolves external
	// references, returning the number of nodes reconstructed.
	ReconstructNodes(bp Blueprint) int

	ListCDOProperties(bp Blueprint) []string
	ReadCDOProperty(bp Blueprint, name string) (core.Value, error)
	WriteCDOProperty(bp Blueprint, name string, v core.Value) error

	// ExportText returns the asset's exported text form.
	ExportText(bp Blueprint) (string, error)
}
