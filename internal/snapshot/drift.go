package snapshot

import (
	"bytes"
	"fmt"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/core"
)

// RenderDrift renders mismatches as a YAML-aware expected/actual diff.
// It returns "" when there is nothing to show.
func RenderDrift(mismatches []Mismatch, useColor bool) (string, error) {
	expected := map[core.AssetPath]map[string]core.Value{}
	actual := map[core.AssetPath]map[string]core.Value{}
	for _, m := range mismatches {
		if m.Property == "" {
			continue
		}
		if expected[m.Asset] == nil {
			expected[m.Asset] = map[string]core.Value{}
			actual[m.Asset] = map[string]core.Value{}
		}
		expected[m.Asset][m.Property] = m.Expected
		if m.Actual != nil {
			actual[m.Asset][m.Property] = *m.Actual
		}
	}
	if len(expected) == 0 {
		return "", nil
	}

	expectedYAML, err := yaml.Marshal(expected)
	if err != nil {
		return "", fmt.Errorf("encoding expected values: %w", err)
	}
	actualYAML, err := yaml.Marshal(actual)
	if err != nil {
		return "", fmt.Errorf("encoding actual values: %w", err)
	}

	from, err := parseYAMLInput("snapshot", expectedYAML)
	if err != nil {
		return "", fmt.Errorf("parsing expected YAML: %w", err)
	}
	to, err := parseYAMLInput("current", actualYAML)
	if err != nil {
		return "", fmt.Errorf("parsing actual YAML: %w", err)
	}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	writer := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := writer.WriteReport(&buf); err != nil {
		return "", fmt.Errorf("writing drift report: %w", err)
	}
	return buf.String(), nil
}

func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}
	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}
