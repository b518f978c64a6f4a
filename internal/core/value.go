package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind classifies a captured property value.
type ValueKind string

const (
	KindObject     ValueKind = "object"
	KindClass      ValueKind = "class"
	KindSoftObject ValueKind = "soft_object"
	KindStruct     ValueKind = "struct"
	KindPrimitive  ValueKind = "primitive"
	KindArray      ValueKind = "array"
	KindMap        ValueKind = "map"
)

// Value is the canonical envelope for a CDO property value. References are
// held by path string, never by handle. Containers keep only their length
// and, for maps, the sorted key set.
//
// Values encode as {kind, ref, fields, value, len, keys}; see codec.go.
type Value struct {
	Kind ValueKind

	// Ref is the referenced path for object, class and soft_object values.
	// An empty Ref is a null reference.
	Ref string

	// Fields holds struct members.
	Fields map[string]Value

	// Scalar holds primitive values: bool, number or string.
	Scalar any

	// Len is the element count of arrays and maps.
	Len int

	// Keys is the sorted key set of maps.
	Keys []string
}

// Primitive wraps a bool, number or string.
func Primitive(v any) Value { return Value{Kind: KindPrimitive, Scalar: v} }

// Object wraps a hard object reference.
func Object(ref string) Value { return Value{Kind: KindObject, Ref: ref} }

// Class wraps a class reference.
func Class(ref string) Value { return Value{Kind: KindClass, Ref: ref} }

// SoftObject wraps a soft object reference.
func SoftObject(ref string) Value { return Value{Kind: KindSoftObject, Ref: ref} }

// Struct wraps struct fields.
func Struct(fields map[string]Value) Value { return Value{Kind: KindStruct, Fields: fields} }

// Array records an array of n elements.
func Array(n int) Value { return Value{Kind: KindArray, Len: n} }

// Map records a map with the given keys.
func Map(keys ...string) Value {
	k := append([]string(nil), keys...)
	sort.Strings(k)
	return Value{Kind: KindMap, Len: len(k), Keys: k}
}

// IsReference reports whether the value is an object, class or soft reference.
func (v Value) IsReference() bool {
	return v.Kind == KindObject || v.Kind == KindClass || v.Kind == KindSoftObject
}

// Zero returns the zero value of the same shape.
func (v Value) Zero() Value {
	switch v.Kind {
	case KindPrimitive:
		switch v.Scalar.(type) {
		case bool:
			return Primitive(false)
		case string:
			return Primitive("")
		default:
			return Primitive(0)
		}
	case KindStruct:
		fields := make(map[string]Value, len(v.Fields))
		for k, f := range v.Fields {
			fields[k] = f.Zero()
		}
		return Struct(fields)
	case KindMap:
		return Map()
	default:
		return Value{Kind: v.Kind}
	}
}

// Compatible reports whether a value of kind v may be written into a slot
// currently holding dst. Object and soft references are interchangeable;
// primitives must agree on bool, number or string.
func (v Value) Compatible(dst Value) bool {
	if v.Kind == "" || dst.Kind == "" {
		return true
	}
	if v.Kind != dst.Kind {
		return (v.Kind == KindObject || v.Kind == KindSoftObject) &&
			(dst.Kind == KindObject || dst.Kind == KindSoftObject)
	}
	if v.Kind == KindPrimitive {
		return scalarClass(v.Scalar) == scalarClass(dst.Scalar) || dst.Scalar == nil || v.Scalar == nil
	}
	return true
}

// Equal compares two values with the snapshot comparison rule. It returns
// an empty string when equal, otherwise a short reason.
func (v Value) Equal(other Value) (bool, string) {
	if v.Kind != other.Kind {
		return false, fmt.Sprintf("kind %s != %s", v.Kind, other.Kind)
	}
	switch v.Kind {
	case KindObject, KindClass, KindSoftObject:
		if refKey(v.Ref) != refKey(other.Ref) {
			return false, "reference differs"
		}
	case KindArray:
		if v.Len != other.Len {
			return false, fmt.Sprintf("length %d != %d", v.Len, other.Len)
		}
	case KindMap:
		if v.Len != other.Len {
			return false, fmt.Sprintf("size %d != %d", v.Len, other.Len)
		}
		if strings.Join(v.Keys, "\x00") != strings.Join(other.Keys, "\x00") {
			return false, "key set differs"
		}
	case KindStruct:
		if len(v.Fields) != len(other.Fields) {
			return false, "field set differs"
		}
		for _, name := range sortedFieldNames(v.Fields) {
			o, ok := other.Fields[name]
			if !ok {
				return false, fmt.Sprintf("field %s missing", name)
			}
			if eq, why := v.Fields[name].Equal(o); !eq {
				return false, fmt.Sprintf("field %s: %s", name, why)
			}
		}
	case KindPrimitive:
		if !scalarEqual(v.Scalar, other.Scalar) {
			return false, "value differs"
		}
	}
	return true, ""
}

// String renders the value for reports and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindObject, KindClass, KindSoftObject:
		if v.Ref == "" {
			return "None"
		}
		return v.Ref
	case KindArray:
		return fmt.Sprintf("[%d items]", v.Len)
	case KindMap:
		return fmt.Sprintf("{%s}", strings.Join(v.Keys, ","))
	case KindStruct:
		parts := make([]string, 0, len(v.Fields))
		for _, name := range sortedFieldNames(v.Fields) {
			parts = append(parts, name+"="+v.Fields[name].String())
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindPrimitive:
		return fmt.Sprint(v.Scalar)
	}
	return ""
}

// Normalize converts scalars decoded from YAML or JSON (int, int64, uint,
// float32...) to float64 or their string/bool form, recursively.
func (v Value) Normalize() Value {
	switch v.Kind {
	case KindPrimitive:
		if f, ok := toFloat(v.Scalar); ok {
			v.Scalar = f
		}
	case KindStruct:
		fields := make(map[string]Value, len(v.Fields))
		for k, f := range v.Fields {
			fields[k] = f.Normalize()
		}
		v.Fields = fields
	case KindMap:
		k := append([]string(nil), v.Keys...)
		sort.Strings(k)
		v.Keys = k
		v.Len = len(k)
	}
	return v
}

// refKey reduces a reference to a comparable path: quoted export forms are
// unwrapped and a redundant object suffix dropped.
func refKey(ref string) string {
	if ref == "None" {
		return ""
	}
	return canonicalEnum(ref)
}

func sortedFieldNames(m map[string]Value) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func scalarClass(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case string:
		return "string"
	case nil:
		return "nil"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func scalarEqual(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b) && scalarClass(a) == scalarClass(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ParseScalar interprets exported text as a bool, number or string.
func ParseScalar(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return strings.Trim(s, "\"")
}
