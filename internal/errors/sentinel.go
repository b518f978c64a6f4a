package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates a plan, config or document failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a file, property or member was not found.
	ErrNotFound = errors.New("not found")
)

// Migration error kinds. Every failure reported by the host adapter, the
// engine or the fixer wraps exactly one of these.
var (
	// ErrAssetMissing indicates a target or dependent asset does not exist.
	ErrAssetMissing = errors.New("asset missing")

	// ErrNotABlueprint indicates the asset exists but is not a Blueprint.
	ErrNotABlueprint = errors.New("not a blueprint")

	// ErrNativeClassMissing indicates the native parent class cannot be
	// resolved, usually because its module is not loaded.
	ErrNativeClassMissing = errors.New("native class missing")

	// ErrReparentRejected indicates the host refused to reparent, even after compile.
	ErrReparentRejected = errors.New("reparent rejected")

	// ErrMemberRemovalRefused indicates the host refused to remove a member.
	ErrMemberRemovalRefused = errors.New("member removal refused")

	// ErrTypeMismatch indicates incompatible source and destination property types.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCompileError indicates a compile produced errors.
	ErrCompileError = errors.New("compile error")

	// ErrVerificationMismatch indicates post-migration state drifted from expectations.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrSaveFailure indicates the host could not persist an asset.
	ErrSaveFailure = errors.New("save failure")
)

// Kind tags as they appear in reports.
const (
	KindAssetMissing         = "AssetMissing"
	KindNotABlueprint        = "NotABlueprint"
	KindNativeClassMissing   = "NativeClassMissing"
	KindReparentRejected     = "ReparentRejected"
	KindMemberRemovalRefused = "MemberRemovalRefused"
	KindTypeMismatch         = "TypeMismatch"
	KindCompileError         = "CompileError"
	KindVerificationMismatch = "VerificationMismatch"
	KindSaveFailure          = "SaveFailure"
	KindValidation           = "Validation"
	KindNotFound             = "NotFound"
	KindUnknown              = "Unknown"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrAssetMissing, KindAssetMissing},
	{ErrNotABlueprint, KindNotABlueprint},
	{ErrNativeClassMissing, KindNativeClassMissing},
	{ErrReparentRejected, KindReparentRejected},
	{ErrMemberRemovalRefused, KindMemberRemovalRefused},
	{ErrTypeMismatch, KindTypeMismatch},
	{ErrCompileError, KindCompileError},
	{ErrVerificationMismatch, KindVerificationMismatch},
	{ErrSaveFailure, KindSaveFailure},
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
}

// KindOf returns the report tag for err. The first matching sentinel in
// declaration order wins; nil yields an empty string.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
