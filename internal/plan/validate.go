package plan

import (
	"fmt"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

// ValidationError is one problem with a plan field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found in one plan.
type ValidationErrors struct {
	Source string
	Errors []ValidationError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("plan validation failed")
	if e.Source != "" {
		sb.WriteString(" (" + e.Source + ")")
	}
	sb.WriteString(":\n")
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationErrors) Unwrap() error { return oerrors.ErrValidation }

type collector struct {
	errs []ValidationError
}

func (c *collector) add(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func validate(spec Spec) (core.AssetPath, core.NativeClassRef, []core.AssetPath, *ValidationErrors) {
	var c collector

	target, err := core.ParseAssetPath(spec.Target)
	if err != nil {
		c.add("target", "%v", err)
	}
	newParent, err := core.ParseNativeClassRef(spec.NewParent)
	if err != nil {
		c.add("new_parent", "%v", err)
	}

	sets := []struct {
		field string
		names []string
	}{
		{"delete_functions", spec.DeleteFunctions},
		{"delete_variables", spec.DeleteVariables},
		{"delete_event_dispatchers", spec.DeleteEventDispatchers},
	}
	owner := map[string]string{}
	for _, set := range sets {
		seen := map[string]bool{}
		for i, name := range set.names {
			field := fmt.Sprintf("%s[%d]", set.field, i)
			if strings.TrimSpace(name) == "" {
				c.add(field, "member name is empty")
				continue
			}
			if seen[name] {
				c.add(field, "duplicate member %q", name)
				continue
			}
			seen[name] = true
			if prev, ok := owner[name]; ok {
				c.add(field, "member %q is also listed in %s", name, prev)
				continue
			}
			owner[name] = set.field
		}
	}

	dests := map[string]bool{}
	for i, pc := range spec.PropertyCopies {
		field := fmt.Sprintf("property_copies[%d]", i)
		if pc.From == "" || pc.To == "" {
			c.add(field, "from and to are required")
			continue
		}
		if dests[pc.To] {
			c.add(field, "duplicate destination %q", pc.To)
		}
		dests[pc.To] = true
	}

	for i, rw := range spec.PinRewrites {
		field := fmt.Sprintf("pin_rewrites[%d]", i)
		if strings.TrimSpace(rw.Enum) == "" {
			c.add(field, "enum path is empty")
		}
		for j := 0; j < i; j++ {
			if core.SameEnum(spec.PinRewrites[j].Enum, rw.Enum) {
				c.add(field, "enum %s is already rewritten by pin_rewrites[%d]", rw.Enum, j)
			}
		}
		olds := map[string]bool{}
		for k, rule := range rw.Rules {
			rf := fmt.Sprintf("%s.rules[%d]", field, k)
			if rule.Old == "" || rule.New == "" {
				c.add(rf, "old and new literals are required")
				continue
			}
			if olds[rule.Old] {
				c.add(rf, "duplicate old literal %q", rule.Old)
			}
			olds[rule.Old] = true
		}
		// Rules apply in one pass, so a chain A->B, B->C would depend on order.
		for k, rule := range rw.Rules {
			if rule.New != "" && rule.New != rule.Old && olds[rule.New] {
				c.add(fmt.Sprintf("%s.rules[%d]", field, k), "new literal %q is also rewritten", rule.New)
			}
		}
	}

	var dependents []core.AssetPath
	seenDeps := map[core.AssetPath]bool{}
	for i, d := range spec.Dependents {
		field := fmt.Sprintf("dependents[%d]", i)
		p, err := core.ParseAssetPath(d)
		if err != nil {
			c.add(field, "%v", err)
			continue
		}
		if p == target {
			c.add(field, "target cannot be its own dependent")
			continue
		}
		if seenDeps[p] {
			c.add(field, "duplicate dependent %s", p)
			continue
		}
		seenDeps[p] = true
		dependents = append(dependents, p)
	}

	if len(c.errs) > 0 {
		return "", "", nil, &ValidationErrors{Errors: c.errs}
	}
	return target, newParent, dependents, nil
}
