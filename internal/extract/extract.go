// Package extract reads property values out of exported asset text, for
// properties the CDO reflection path cannot reach.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
)

// Extractor pulls typed values for the named properties out of exported
// text. An empty names list extracts every top-level property.
type Extractor interface {
	Extract(text string, names []string) map[string]core.Value
}

// TextExtractor parses T3D-style "Name=Value" export text. Properties of
// nested subobjects are ignored; indexed entries "Name(i)=..." are counted
// as array elements.
type TextExtractor struct{}

var _ Extractor = TextExtractor{}

var (
	propertyLine = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)(?:\((\d+)\))?=(.*)$`)
	quotedRef    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)'(.*)'$`)
)

// Extract implements Extractor.
func (TextExtractor) Extract(text string, names []string) map[string]core.Value {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}

	out := map[string]core.Value{}
	counts := map[string]int{}
	depth := 0
	wrapped := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Begin Object"):
			depth++
			wrapped = true
			continue
		case strings.HasPrefix(trimmed, "End Object"):
			depth--
			continue
		}
		if wrapped && depth != 1 {
			continue
		}

		m := propertyLine.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name := m[1]
		if len(want) > 0 && !want[name] {
			continue
		}
		if m[2] != "" {
			counts[name]++
			out[name] = core.Array(counts[name])
			continue
		}
		out[name] = ParseValue(m[3])
	}
	return out
}

// ParseValue interprets one exported value.
func ParseValue(raw string) core.Value {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "None" || raw == "":
		return core.Object("")
	case strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")"):
		return parseStruct(raw[1 : len(raw)-1])
	case strings.HasPrefix(raw, "\"") && strings.HasSuffix(raw, "\"") && len(raw) >= 2:
		inner := raw[1 : len(raw)-1]
		if strings.HasPrefix(inner, "/") {
			return core.SoftObject(inner)
		}
		return core.Primitive(inner)
	}

	if m := quotedRef.FindStringSubmatch(raw); m != nil {
		if strings.HasSuffix(m[1], "Class") {
			return core.Class(m[2])
		}
		return core.Object(m[2])
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasSuffix(core.ObjectName(raw), core.DefaultClassSuffix) || strings.HasPrefix(raw, core.ScriptRoot) {
			return core.Class(raw)
		}
		return core.Object(raw)
	}
	return core.Primitive(core.ParseScalar(raw))
}

func parseStruct(body string) core.Value {
	fields := map[string]core.Value{}
	for _, part := range splitTopLevel(body) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = ParseValue(v)
	}
	return core.Struct(fields)
}

// splitTopLevel splits on commas outside parentheses and quotes.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// Names returns the sorted top-level property names present in text.
func Names(text string) []string {
	values := TextExtractor{}.Extract(text, nil)
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
