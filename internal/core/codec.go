package core

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// wireValue is the persisted shape of a Value. Scalar is a pointer so that
// zero primitives (0, false, "") survive omitempty.
type wireValue struct {
	Kind   ValueKind        `json:"kind" yaml:"kind"`
	Ref    string           `json:"ref,omitempty" yaml:"ref,omitempty"`
	Fields map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
	Scalar *any             `json:"value,omitempty" yaml:"value,omitempty"`
	Len    int              `json:"len,omitempty" yaml:"len,omitempty"`
	Keys   []string         `json:"keys,omitempty" yaml:"keys,omitempty"`
}

func (v Value) wire() wireValue {
	w := wireValue{Kind: v.Kind, Ref: v.Ref, Fields: v.Fields, Len: v.Len, Keys: v.Keys}
	if v.Kind == KindPrimitive {
		s := v.Scalar
		w.Scalar = &s
	}
	return w
}

func (w wireValue) value() Value {
	v := Value{Kind: w.Kind, Ref: w.Ref, Fields: w.Fields, Len: w.Len, Keys: w.Keys}
	if w.Scalar != nil {
		v.Scalar = *w.Scalar
	}
	return v.Normalize()
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.wire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var w wireValue
	if err := node.Decode(&w); err != nil {
		return err
	}
	*v = w.value()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = w.value()
	return nil
}
