//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{
		ErrValidation, ErrNotFound, ErrAssetMissing, ErrNotABlueprint,
		ErrNativeClassMissing, ErrReparentRejected, ErrMemberRemovalRefused,
		ErrTypeMismatch, ErrCompileError, ErrVerificationMismatch, ErrSaveFailure,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.NotEqual(t, all[i], all[j])
			}
		}
	}
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "validation failed",
		Message:  "new_parent must be a native class reference",
		Location: "plans/stat_manager.yaml",
		Field:    "plans[0].new_parent",
		Context:  map[string]string{"Plan": "AC_StatManager", "Asset": "/Game/X"},
		Hint:     "Use /Script/Module.ClassName",
	}

	out := detail.Error()

	assert.Contains(t, out, "Error: validation failed")
	assert.Contains(t, out, "Location: plans/stat_manager.yaml")
	assert.Contains(t, out, "Field: plans[0].new_parent")
	assert.Contains(t, out, "Plan: AC_StatManager")
	assert.Contains(t, out, "new_parent must be a native class reference")
	assert.Contains(t, out, "Hint: Use /Script/Module.ClassName")
	assert.Less(t, indexOf(out, "Asset:"), indexOf(out, "Plan:"), "context keys are sorted")
}

func TestDetailErrorUnwrap(t *testing.T) {
	detail := &DetailError{
		Type:    "test",
		Message: "test message",
		Cause:   ErrValidation,
	}

	assert.True(t, errors.Is(detail, ErrValidation))
	assert.Equal(t, ErrValidation, detail.Unwrap())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("bad path", "plan.yaml", "target", "start with /Game/")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "validation failed", detail.Type)
	assert.Equal(t, "target", detail.Field)
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrAssetMissing, "loading /Game/X/BP_Foo")

	assert.True(t, errors.Is(wrapped, ErrAssetMissing))
	assert.Contains(t, wrapped.Error(), "loading /Game/X/BP_Foo")

	wrappedf := Wrapf(ErrSaveFailure, "saving %s", "/Game/X/BP_Foo")
	assert.True(t, errors.Is(wrappedf, ErrSaveFailure))
	assert.Equal(t, "saving /Game/X/BP_Foo: save failure", wrappedf.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"asset missing", ErrAssetMissing, KindAssetMissing},
		{"wrapped native class", fmt.Errorf("precheck: %w", ErrNativeClassMissing), KindNativeClassMissing},
		{"detail type mismatch", &DetailError{Type: "copy", Cause: ErrTypeMismatch}, KindTypeMismatch},
		{"unknown", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"nil error returns success", nil, ExitSuccess},
		{"validation error", Wrap(ErrValidation, "plan invalid"), ExitValidationError},
		{"not found error", ErrNotFound, ExitNotFound},
		{"drift", ErrVerificationMismatch, ExitSnapshotDrift},
		{"explicit exit error", NewExitError(errors.New("incomplete"), ExitMigrationIncomplete), ExitMigrationIncomplete},
		{"unknown error returns general error", errors.New("unknown error"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Migration Incomplete", ExitCodeName(ExitMigrationIncomplete))
	assert.Equal(t, "Unknown", ExitCodeName(99))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
