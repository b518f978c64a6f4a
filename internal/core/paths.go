// Package core provides the domain types shared by every migration component:
// asset paths, native class references, typed property values and plan statuses.
package core

import (
	"fmt"
	"strings"
)

// ScriptRoot is the path prefix under which native classes live.
const ScriptRoot = "/Script/"

// DefaultClassSuffix is the editor's suffix for Blueprint generated classes.
const DefaultClassSuffix = "_C"

// AssetPath is the canonical identifier of an editor asset, for example
// "/Game/Characters/BP_Player". It never carries the embedded object suffix
// and is compared case-sensitively.
type AssetPath string

// ParseAssetPath validates s and returns it as an AssetPath. An embedded
// object suffix ("/Game/X/BP_Foo.BP_Foo") is stripped.
func ParseAssetPath(s string) (AssetPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("asset path is empty")
	}
	if !strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("asset path %q must start with /", s)
	}
	if strings.HasPrefix(s, ScriptRoot) {
		return "", fmt.Errorf("asset path %q is a native class reference", s)
	}
	if i := strings.LastIndex(s, "."); i > strings.LastIndex(s, "/") {
		s = s[:i]
	}
	segments := strings.Split(s[1:], "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("asset path %q needs a mount point and a name", s)
	}
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("asset path %q has an empty segment", s)
		}
		if strings.ContainsAny(seg, invalidPathChars) {
			return "", fmt.Errorf("asset path %q contains an invalid character", s)
		}
	}
	return AssetPath(s), nil
}

// MustAssetPath is ParseAssetPath for literals; it panics on malformed input.
func MustAssetPath(s string) AssetPath {
	p, err := ParseAssetPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

const invalidPathChars = " \t\n\\:*?\"<>|'.,"

// String returns the path.
func (p AssetPath) String() string { return string(p) }

// Name returns the last path segment, e.g. "BP_Player".
func (p AssetPath) Name() string {
	s := string(p)
	return s[strings.LastIndex(s, "/")+1:]
}

// ObjectPath returns the path with its object suffix, "/Game/X/BP.BP".
func (p AssetPath) ObjectPath() string {
	return string(p) + "." + p.Name()
}

// GeneratedClassName returns the name of the class the editor generates for
// this Blueprint, e.g. "BP_Player_C" for suffix "_C".
func (p AssetPath) GeneratedClassName(suffix string) string {
	return p.Name() + suffix
}

// NativeClassRef identifies a class compiled into a native module, in the
// form "/Script/Module.ClassName".
type NativeClassRef string

// ParseNativeClassRef validates s and returns it as a NativeClassRef.
func ParseNativeClassRef(s string) (NativeClassRef, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, ScriptRoot) {
		return "", fmt.Errorf("native class reference %q must start with %s", s, ScriptRoot)
	}
	rest := s[len(ScriptRoot):]
	module, class, ok := strings.Cut(rest, ".")
	if !ok || module == "" || class == "" {
		return "", fmt.Errorf("native class reference %q must have the form /Script/Module.ClassName", s)
	}
	if strings.ContainsAny(module, invalidPathChars+"/") || strings.ContainsAny(class, invalidPathChars+"/") {
		return "", fmt.Errorf("native class reference %q contains an invalid character", s)
	}
	return NativeClassRef(s), nil
}

// MustNativeClassRef is ParseNativeClassRef for literals; it panics on malformed input.
func MustNativeClassRef(s string) NativeClassRef {
	r, err := ParseNativeClassRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the reference.
func (r NativeClassRef) String() string { return string(r) }

// Module returns the native module name.
func (r NativeClassRef) Module() string {
	module, _, _ := strings.Cut(strings.TrimPrefix(string(r), ScriptRoot), ".")
	return module
}

// ClassName returns the class name without module, e.g. "CppFoo".
func (r NativeClassRef) ClassName() string {
	_, class, _ := strings.Cut(strings.TrimPrefix(string(r), ScriptRoot), ".")
	return class
}

// ClassRef is the parent of a Blueprint: either a native class or another
// Blueprint. Exactly one field is set.
type ClassRef struct {
	Native    NativeClassRef `json:"native,omitempty" yaml:"native,omitempty"`
	Blueprint AssetPath      `json:"blueprint,omitempty" yaml:"blueprint,omitempty"`
}

// NativeParent returns a ClassRef for a native class.
func NativeParent(r NativeClassRef) ClassRef { return ClassRef{Native: r} }

// BlueprintParent returns a ClassRef for a Blueprint class.
func BlueprintParent(p AssetPath) ClassRef { return ClassRef{Blueprint: p} }

// ParseClassRef accepts either form of parent reference.
func ParseClassRef(s string) (ClassRef, error) {
	if strings.HasPrefix(strings.TrimSpace(s), ScriptRoot) {
		r, err := ParseNativeClassRef(s)
		return ClassRef{Native: r}, err
	}
	p, err := ParseAssetPath(s)
	return ClassRef{Blueprint: p}, err
}

// IsNative reports whether the reference points at a native class.
func (c ClassRef) IsNative() bool { return c.Native != "" }

// IsZero reports whether no parent is recorded.
func (c ClassRef) IsZero() bool { return c.Native == "" && c.Blueprint == "" }

// Is reports whether c is the native class r.
func (c ClassRef) Is(r NativeClassRef) bool { return c.Native == r }

// String returns the canonical string form.
func (c ClassRef) String() string {
	if c.Native != "" {
		return string(c.Native)
	}
	return string(c.Blueprint)
}

// ObjectName returns the trailing object name of a class or object reference
// string. It accepts bare names ("BP_Foo_C"), object paths
// ("/Game/X/BP_Foo.BP_Foo_C"), native references and quoted export forms
// ("BlueprintGeneratedClass'/Game/X/BP_Foo.BP_Foo_C'").
func ObjectName(ref string) string {
	ref = UnquoteRef(ref)
	if i := strings.LastIndexAny(ref, ".:"); i >= 0 {
		return ref[i+1:]
	}
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// UnquoteRef strips the Class'...' wrapper of exported references.
func UnquoteRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, "'"); i >= 0 && strings.HasSuffix(ref, "'") && len(ref) > i+1 {
		return ref[i+1 : len(ref)-1]
	}
	return strings.Trim(ref, "\"")
}

// SameEnum reports whether two enum object paths name the same enum. Quoted
// export forms are unwrapped and a redundant object suffix is ignored, so
// "/Game/E/ValueType", "/Game/E/ValueType.ValueType" and
// "Enum'/Game/E/ValueType.ValueType'" all match.
func SameEnum(a, b string) bool {
	return canonicalEnum(a) == canonicalEnum(b)
}

func canonicalEnum(s string) string {
	s = UnquoteRef(s)
	slash := strings.LastIndex(s, "/")
	if i := strings.LastIndex(s, "."); i > slash && s[slash+1:i] == s[i+1:] {
		return s[:i]
	}
	return s
}
