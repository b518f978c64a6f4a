package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

func validSpec() Spec {
	return Spec{
		Target:                 "/Game/Stats/AC_StatManager",
		NewParent:              "/Script/SLFConversion.StatManagerComponent",
		DeleteFunctions:        []string{"AdjustStat", "GetStat"},
		DeleteVariables:        []string{"Stats"},
		DeleteEventDispatchers: []string{"OnStatChanged"},
		ClearEventGraph:        true,
		PropertyCopies:         []PropertyCopy{{From: "Stats", To: "Stats"}},
		PinRewrites: []PinRewrite{{
			Enum:  "/Game/Enums/E_ValueType.E_ValueType",
			Rules: []LiteralRule{{Old: "NewEnumerator0", New: "CurrentValue"}},
		}},
		Dependents: []string{"/Game/UI/W_StatEntry"},
	}
}

func TestNew_Valid(t *testing.T) {
	p, err := New(validSpec())
	require.NoError(t, err)

	assert.Equal(t, "AC_StatManager", p.Name())
	assert.Equal(t, "/Game/Stats/AC_StatManager", string(p.Target()))
	assert.Equal(t, "StatManagerComponent", p.NewParent().ClassName())
	assert.Equal(t, 4, p.DeletedMemberCount())
	assert.True(t, p.ClearEventGraph())
	assert.Equal(t, map[string]string{"Stats": "Stats"}, p.AliasMap())
	require.Len(t, p.Dependents(), 1)
	assert.Equal(t, "W_StatEntry", p.Dependents()[0].Name())
}

func TestNew_Immutable(t *testing.T) {
	spec := validSpec()
	p := MustNew(spec)

	spec.DeleteFunctions[0] = "Changed"
	spec.PinRewrites[0].Rules[0].New = "Changed"
	assert.Equal(t, "AdjustStat", p.DeleteFunctions()[0])

	got := p.DeleteFunctions()
	got[0] = "Mutated"
	assert.Equal(t, "AdjustStat", p.DeleteFunctions()[0])

	rw := p.PinRewrites()
	rw[0].Rules[0].New = "Mutated"
	assert.Equal(t, "CurrentValue", p.PinRewrites()[0].Rules[0].New)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
		field  string
	}{
		{"bad target", func(s *Spec) { s.Target = "Game/NoSlash" }, "target"},
		{"script target", func(s *Spec) { s.Target = "/Script/M.Foo" }, "target"},
		{"bad parent", func(s *Spec) { s.NewParent = "/Game/NotNative" }, "new_parent"},
		{"empty member", func(s *Spec) { s.DeleteFunctions = []string{""} }, "delete_functions[0]"},
		{"duplicate member", func(s *Spec) { s.DeleteVariables = []string{"A", "A"} }, "delete_variables[1]"},
		{"overlapping sets", func(s *Spec) { s.DeleteEventDispatchers = []string{"Stats"} }, "delete_event_dispatchers[0]"},
		{"copy missing to", func(s *Spec) { s.PropertyCopies = []PropertyCopy{{From: "A"}} }, "property_copies[0]"},
		{"copy duplicate dest", func(s *Spec) {
			s.PropertyCopies = []PropertyCopy{{From: "A", To: "X"}, {From: "B", To: "X"}}
		}, "property_copies[1]"},
		{"same enum twice", func(s *Spec) {
			s.PinRewrites = append(s.PinRewrites, PinRewrite{
				Enum:  "/Game/Enums/E_ValueType",
				Rules: []LiteralRule{{Old: "A", New: "B"}},
			})
		}, "pin_rewrites[1]"},
		{"empty literal", func(s *Spec) {
			s.PinRewrites[0].Rules = append(s.PinRewrites[0].Rules, LiteralRule{Old: "X"})
		}, "pin_rewrites[0].rules[1]"},
		{"chained literals", func(s *Spec) {
			s.PinRewrites[0].Rules = append(s.PinRewrites[0].Rules,
				LiteralRule{Old: "CurrentValue", New: "MaxValue"})
		}, "pin_rewrites[0].rules[0]"},
		{"self dependent", func(s *Spec) { s.Dependents = []string{s.Target} }, "dependents[0]"},
		{"duplicate dependent", func(s *Spec) {
			s.Dependents = []string{"/Game/UI/W_A", "/Game/UI/W_A"}
		}, "dependents[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)
			spec.Source = "plans.yaml"

			p, err := New(spec)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, oerrors.ErrValidation))

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, "plans.yaml", verrs.Source)

			var fields []string
			for _, e := range verrs.Errors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestNew_CollectsAllErrors(t *testing.T) {
	_, err := New(Spec{Target: "bad", NewParent: "bad"})
	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Errors, 2)
	assert.Contains(t, err.Error(), "new_parent")
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew(Spec{}) })
}

func TestPinRewrite_Lookup(t *testing.T) {
	rw := PinRewrite{Rules: []LiteralRule{{Old: "NewEnumerator0", New: "CurrentValue"}}}

	got, ok := rw.Lookup("NewEnumerator0")
	assert.True(t, ok)
	assert.Equal(t, "CurrentValue", got)

	_, ok = rw.Lookup("NewEnumerator9")
	assert.False(t, ok)

	assert.True(t, rw.IsTarget("CurrentValue"))
	assert.False(t, rw.IsTarget("NewEnumerator0"))
}

func TestPlan_SpecRoundTrip(t *testing.T) {
	p := MustNew(validSpec())
	again, err := New(p.Spec())
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestNew_ChainedLiteralMessage(t *testing.T) {
	spec := validSpec()
	spec.PinRewrites[0].Rules = []LiteralRule{{Old: "A", New: "B"}, {Old: "B", New: "C"}}

	_, err := New(spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `new literal "B" is also rewritten`)

	spec.PinRewrites[0].Rules = []LiteralRule{{Old: "A", New: "C"}, {Old: "B", New: "C"}}
	_, err = New(spec)
	assert.NoError(t, err)
}
