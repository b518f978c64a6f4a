package core

// Status is the per-plan migration state.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusPrecheckFailed     Status = "PRECHECK_FAILED"
	StatusCleaned            Status = "CLEANED"
	StatusReparented         Status = "REPARENTED"
	StatusComplete           Status = "COMPLETE"
	StatusVerificationFailed Status = "VERIFICATION_FAILED"
	StatusSkippedIdempotent  Status = "SKIPPED_IDEMPOTENT"
)

// IsTerminal reports whether no further phase will run for the plan.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPrecheckFailed, StatusComplete, StatusVerificationFailed, StatusSkippedIdempotent:
		return true
	}
	return false
}

// IsSuccess reports whether the plan counts as migrated for the batch exit status.
func (s Status) IsSuccess() bool {
	return s == StatusComplete || s == StatusSkippedIdempotent
}

// Phase names an engine phase, used to tag issues and the stop point.
type Phase string

const (
	PhasePrecheck     Phase = "precheck"
	PhaseCleanup      Phase = "cleanup"
	PhaseReparent     Phase = "reparent"
	PhasePropertyCopy Phase = "property_copy"
	PhaseCompileSave  Phase = "compile_save"
	PhaseVerify       Phase = "verify"
	PhaseDependents   Phase = "dependents"
)
