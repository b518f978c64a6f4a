package dna

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
)

// ExportText implements host.Host. Documents without stored export text get
// a T3D-style rendering of their CDO.
func (w *Workspace) ExportText(bp host.Blueprint) (string, error) {
	e := w.entry(bp)
	if e.doc.ExportText != "" {
		return e.doc.ExportText, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Begin Object Class=%s Name=\"Default__%s\"\n", e.doc.Parent, e.path.GeneratedClassName(w.suffix))
	names := make([]string, 0, len(e.doc.Defaults))
	for name := range e.doc.Defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := e.doc.Defaults[name]
		if v.Kind == core.KindArray || v.Kind == core.KindMap {
			continue
		}
		fmt.Fprintf(&b, "   %s=%s\n", name, exportValue(v))
	}
	b.WriteString("End Object\n")
	return b.String(), nil
}

func exportValue(v core.Value) string {
	switch v.Kind {
	case core.KindObject:
		if v.Ref == "" {
			return "None"
		}
		return v.Ref
	case core.KindClass:
		if v.Ref == "" {
			return "None"
		}
		return "Class'" + v.Ref + "'"
	case core.KindSoftObject:
		return strconv.Quote(v.Ref)
	case core.KindStruct:
		names := make([]string, 0, len(v.Fields))
		for name := range v.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+"="+exportValue(v.Fields[name]))
		}
		return "(" + strings.Join(parts, ",") + ")"
	case core.KindPrimitive:
		switch s := v.Scalar.(type) {
		case bool:
			if s {
				return "True"
			}
			return "False"
		case float64:
			return strconv.FormatFloat(s, 'f', 6, 64)
		case string:
			return strconv.Quote(s)
		}
		return fmt.Sprint(v.Scalar)
	}
	return ""
}
