package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/output"
)

// Write renders the report in format.
func (r *Report) Write(w io.Writer, format output.OutputFormat, color bool) error {
	switch format {
	case output.FormatJSON:
		return r.WriteJSON(w)
	case output.FormatYAML:
		return r.WriteYAML(w)
	default:
		return r.WriteText(w, color)
	}
}

// Save writes the report to path in format, without colour.
func (r *Report) Save(path string, format output.OutputFormat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := r.Write(f, format, false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML renders the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

type painter struct{ color bool }

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// WriteText renders the human-readable report: one section per plan, a
// summary table, totals and anomalies.
func (r *Report) WriteText(w io.Writer, color bool) error {
	p := painter{color: color}
	var sb strings.Builder

	sb.WriteString(p.paint(output.StyleSummary, "Migration report") + " " + p.paint(output.StyleDim, r.RunID) + "\n")
	if r.SnapshotDigest != "" {
		sb.WriteString("snapshot: " + r.SnapshotDigest + "\n")
	}
	if r.DryRun {
		sb.WriteString(p.paint(output.StyleWarning, "dry run: nothing was saved") + "\n")
	}
	for _, warn := range r.Warnings {
		sb.WriteString(p.paint(output.StyleWarning, "warning: "+warn) + "\n")
	}
	sb.WriteString("\n")

	for _, e := range r.Entries {
		r.writeEntry(&sb, p, e)
	}

	tbl := output.NewTable("PLAN", "STATUS", "REMOVED", "CLEARED", "PINS", "DEPENDENTS", "TOUCHED", "MISMATCHES")
	if color {
		style := output.DefaultTableStyle()
		style.StyleCell = func(_, col int, value string) lipgloss.Style {
			if col == 1 {
				return output.StatusStyle(value)
			}
			return lipgloss.NewStyle()
		}
		tbl.SetStyle(style)
	} else {
		tbl.SetStyle(output.PlainTableStyle())
	}
	for _, e := range r.Entries {
		removed, cleared, pins, mismatches := 0, 0, 0, 0
		if e.Result != nil {
			removed = e.Result.MembersRemoved()
			cleared = e.Result.EventGraphNodesCleared
			pins = e.Result.PinsRewritten
			mismatches = len(e.Result.Mismatches)
		}
		tbl.Row(e.Plan, statusLabel(e), itoa(removed), itoa(cleared), itoa(pins),
			itoa(e.DependentsProcessed()), itoa(e.DependentNodesTouched()), itoa(mismatches))
	}
	sb.WriteString(tbl.String() + "\n\n")

	t := r.Totals
	sb.WriteString(p.paint(output.StyleSummary, fmt.Sprintf(
		"%d plans: %d complete, %d skipped, %d failed, %d not run", t.Plans, t.Complete, t.Skipped, t.Failed, t.NotRun)) + "\n")
	fmt.Fprintf(&sb, "totals: functions removed %d, variables removed %d, dispatchers removed %d, "+
		"event graph nodes cleared %d, pins rewritten %d (dependents %d), properties copied %d, "+
		"dependents processed %d, nodes touched %d, unknown literals %d, mismatches %d\n",
		t.FunctionsRemoved, t.VariablesRemoved, t.DispatchersRemoved, t.EventGraphNodesCleared,
		t.PinsRewritten, t.DependentPinsRewritten, t.PropertiesCopied, t.DependentsProcessed,
		t.DependentNodesTouched, t.UnknownLiterals, t.Mismatches)

	if len(r.Anomalies) > 0 {
		sb.WriteString("\n" + p.paint(output.StyleWarning, fmt.Sprintf("anomalies (%d):", len(r.Anomalies))) + "\n")
		for _, a := range r.Anomalies {
			where := ""
			if a.Asset != "" {
				where = " " + string(a.Asset)
			}
			phase := ""
			if a.Phase != "" {
				phase = "[" + string(a.Phase) + "] "
			}
			fmt.Fprintf(&sb, "  - %s: %s%s%s: %s\n", a.Plan, phase, a.Kind, where, a.Message)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Report) writeEntry(sb *strings.Builder, p painter, e *Entry) {
	status := statusLabel(e)
	sb.WriteString(p.paint(output.StyleNoun, e.Plan) + "  " + string(e.Target) + "  " +
		p.paint(output.StatusStyle(string(e.Status)), status) + "\n")

	res := e.Result
	if e.NotRun || res == nil {
		sb.WriteString("  not run\n\n")
		return
	}
	if res.StoppedAt != "" {
		fmt.Fprintf(sb, "  stopped at: %s\n", res.StoppedAt)
	}
	fmt.Fprintf(sb, "  parent: %s -> %s (target %s)\n", res.Pre.Parent, res.Post.Parent, res.NewParent)
	fmt.Fprintf(sb, "  functions removed: %d\n", res.FunctionsRemoved)
	fmt.Fprintf(sb, "  variables removed: %d\n", res.VariablesRemoved)
	fmt.Fprintf(sb, "  dispatchers removed: %d\n", res.DispatchersRemoved)
	fmt.Fprintf(sb, "  event graph nodes cleared: %d\n", res.EventGraphNodesCleared)
	fmt.Fprintf(sb, "  pins rewritten: %d (unknown literals %d)\n", res.PinsRewritten, res.Counts.UnknownLiterals)
	fmt.Fprintf(sb, "  properties copied: %d\n", res.PropertiesCopied)
	fmt.Fprintf(sb, "  dependents processed: %d\n", e.DependentsProcessed())
	fmt.Fprintf(sb, "  nodes touched in dependents: %d\n", e.DependentNodesTouched())
	fmt.Fprintf(sb, "  verification mismatches: %d\n", len(res.Mismatches))
	if n := len(res.Compile.Warnings); n > 0 {
		fmt.Fprintf(sb, "  compile warnings: %d\n", n)
	}
	if e.Dependents != nil {
		for _, d := range e.Dependents.Dependents {
			fmt.Fprintf(sb, "    %s %s: call sites %d, bindings %d, pins %d, nodes %d\n",
				d.Asset, d.Status, d.CallSitesRewritten, d.BindingsFixed, d.PinsRewritten, d.NodesTouched)
		}
	}
	for _, i := range res.Issues {
		sb.WriteString("  " + p.paint(output.StyleWarning, "! "+i.String()) + "\n")
	}
	sb.WriteString("\n")
}

func statusLabel(e *Entry) string {
	if e.NotRun {
		return string(e.Status) + " (not run)"
	}
	return string(e.Status)
}

func itoa(n int) string { return strconv.Itoa(n) }
