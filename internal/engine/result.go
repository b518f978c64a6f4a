package engine

import (
	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
	"github.com/slfconversion/bpmigrate/internal/plan"
	"github.com/slfconversion/bpmigrate/internal/snapshot"
)

// State is the observable shape of a target at one point of the run.
type State struct {
	Parent          string `json:"parent" yaml:"parent"`
	Functions       int    `json:"functions" yaml:"functions"`
	Variables       int    `json:"variables" yaml:"variables"`
	Dispatchers     int    `json:"dispatchers" yaml:"dispatchers"`
	EventGraphNodes int    `json:"eventGraphNodes" yaml:"eventGraphNodes"`
}

// Counts are the per-plan tallies shown in the report.
type Counts struct {
	FunctionsRemoved       int `json:"functionsRemoved" yaml:"functionsRemoved"`
	VariablesRemoved       int `json:"variablesRemoved" yaml:"variablesRemoved"`
	DispatchersRemoved     int `json:"dispatchersRemoved" yaml:"dispatchersRemoved"`
	EventGraphNodesCleared int `json:"eventGraphNodesCleared" yaml:"eventGraphNodesCleared"`
	PinsRewritten          int `json:"pinsRewritten" yaml:"pinsRewritten"`
	UnknownLiterals        int `json:"unknownLiterals" yaml:"unknownLiterals"`
	PropertiesCopied       int `json:"propertiesCopied" yaml:"propertiesCopied"`
}

// MembersRemoved is the sum of the three removal counts.
func (c Counts) MembersRemoved() int {
	return c.FunctionsRemoved + c.VariablesRemoved + c.DispatchersRemoved
}

// Result is the outcome of one plan.
type Result struct {
	Plan      string         `json:"plan" yaml:"plan"`
	Target    core.AssetPath `json:"target" yaml:"target"`
	NewParent string         `json:"newParent" yaml:"newParent"`
	Status    core.Status    `json:"status" yaml:"status"`
	StoppedAt core.Phase     `json:"stoppedAt,omitempty" yaml:"stoppedAt,omitempty"`

	Pre  State `json:"pre" yaml:"pre"`
	Post State `json:"post" yaml:"post"`

	Counts `json:"counts" yaml:"counts"`

	Compile         host.CompileResult  `json:"compile" yaml:"compile"`
	SaveFailed      bool                `json:"saveFailed,omitempty" yaml:"saveFailed,omitempty"`
	UnknownLiterals []string            `json:"unknownLiteralPins,omitempty" yaml:"unknownLiteralPins,omitempty"`
	Mismatches      []snapshot.Mismatch `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Issues          []core.Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
}

func newResult(p *plan.Plan) *Result {
	return &Result{
		Plan:      p.Name(),
		Target:    p.Target(),
		NewParent: string(p.NewParent()),
		Status:    core.StatusPending,
	}
}

// PendingResult is the result of a plan that never ran.
func PendingResult(p *plan.Plan) *Result {
	return newResult(p)
}

// HasIssue reports whether any issue carries kind.
func (r *Result) HasIssue(kind string) bool {
	for _, i := range r.Issues {
		if i.Kind == kind {
			return true
		}
	}
	return false
}
