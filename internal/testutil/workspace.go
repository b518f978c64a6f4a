package testutil

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/host/dna"
)

// FooPlanYAML is FooSpec as a plan document.
const FooPlanYAML = `plans:
  - target: /Game/X/BP_Foo
    new_parent: /Script/M.CppFoo
    delete_functions: [Tick]
    delete_variables: [Speed]
    delete_event_dispatchers: [OnSpeedChanged]
    clear_event_graph: true
    property_copies:
      - from: Speed
        to: Speed
    pin_rewrites:
      /Game/E.ValueType:
        NewEnumerator0: CurrentValue
        NewEnumerator1: MaxValue
    dependents:
      - /Game/UI/BP_User
`

// BrokenPlanYAML targets a native class missing from the catalog.
const BrokenPlanYAML = `target: /Game/X/BP_FooLegacy
new_parent: /Script/Unknown.Foo
`

// WriteFooWorkspace writes the Foo fixture to a fresh directory: the
// native catalog, one document file per asset, and plans.yaml. It returns
// the workspace directory.
func WriteFooWorkspace(t *testing.T) string {
	t.Helper()
	dir, cleanup := TempDir(t)
	t.Cleanup(cleanup)

	WriteFile(t, dir, dna.CatalogFileName, encodeYAML(t, Catalog()))
	for _, doc := range []*dna.Document{FooDoc(), FooLegacyDoc(), UserDoc()} {
		name := strings.TrimPrefix(doc.Path, "/") + ".bp.yaml"
		WriteFile(t, dir, filepath.FromSlash(name), encodeYAML(t, doc))
	}
	WriteFile(t, dir, "plans.yaml", FooPlanYAML)
	WriteFile(t, dir, "broken.yaml", BrokenPlanYAML)
	return dir
}

func encodeYAML(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.String()
}
