package core

import (
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

// Issue is one problem recorded during a run. Kind is an error kind tag
// from internal/errors.
type Issue struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Phase   Phase     `json:"phase" yaml:"phase"`
	Asset   AssetPath `json:"asset,omitempty" yaml:"asset,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

// NewIssue tags err with its kind.
func NewIssue(phase Phase, asset AssetPath, err error) Issue {
	return Issue{Kind: oerrors.KindOf(err), Phase: phase, Asset: asset, Message: err.Error()}
}

func (i Issue) String() string {
	if i.Asset != "" {
		return string(i.Phase) + " " + i.Kind + " " + string(i.Asset) + ": " + i.Message
	}
	return string(i.Phase) + " " + i.Kind + ": " + i.Message
}
