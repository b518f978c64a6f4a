package dna

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

// CatalogFileName is the default native catalog file inside a workspace.
const CatalogFileName = "native.yaml"

// Catalog lists the native classes the loaded modules provide.
type Catalog struct {
	Classes []*NativeClass `json:"classes" yaml:"classes"`
}

// NativeClass is one class compiled into a native module.
type NativeClass struct {
	ClassRef    core.NativeClassRef   `json:"ref" yaml:"ref"`
	Parent      string                `json:"parent,omitempty" yaml:"parent,omitempty"`
	Properties  map[string]core.Value `json:"properties,omitempty" yaml:"properties,omitempty"`
	Functions   []string              `json:"functions,omitempty" yaml:"functions,omitempty"`
	Dispatchers []string              `json:"dispatchers,omitempty" yaml:"dispatchers,omitempty"`
}

// Ref implements host.Class.
func (c *NativeClass) Ref() core.NativeClassRef { return c.ClassRef }

// LoadCatalog reads a catalog file. A missing file yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading native catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, oerrors.NewValidationError(err.Error(), path, "classes", "the catalog is a YAML document with a classes list")
	}
	for i, cls := range c.Classes {
		if _, err := core.ParseNativeClassRef(string(cls.ClassRef)); err != nil {
			return nil, oerrors.NewValidationError(err.Error(), path, fmt.Sprintf("classes[%d].ref", i), "")
		}
	}
	return &c, nil
}

// Find returns the class with the given reference.
func (c *Catalog) Find(ref core.NativeClassRef) *NativeClass {
	for _, cls := range c.Classes {
		if cls.ClassRef == ref {
			return cls
		}
	}
	return nil
}

// findByName resolves a bare class name ("CppFoo") or a reference.
func (c *Catalog) findByName(name string) *NativeClass {
	for _, cls := range c.Classes {
		if string(cls.ClassRef) == name || cls.ClassRef.ClassName() == name {
			return cls
		}
	}
	return nil
}

func (c *Catalog) hasModule(module string) bool {
	for _, cls := range c.Classes {
		if cls.ClassRef.Module() == module {
			return true
		}
	}
	return false
}

// lineage returns cls and its catalogued native ancestors, nearest first.
func (c *Catalog) lineage(cls *NativeClass) []*NativeClass {
	var out []*NativeClass
	seen := map[core.NativeClassRef]bool{}
	for cls != nil && !seen[cls.ClassRef] {
		seen[cls.ClassRef] = true
		out = append(out, cls)
		cls = c.Find(core.NativeClassRef(cls.Parent))
	}
	return out
}

// properties returns the properties of cls including inherited ones.
func (c *Catalog) properties(cls *NativeClass) map[string]core.Value {
	props := map[string]core.Value{}
	lineage := c.lineage(cls)
	for i := len(lineage) - 1; i >= 0; i-- {
		for name, v := range lineage[i].Properties {
			props[name] = v
		}
	}
	return props
}

func (c *Catalog) hasFunction(cls *NativeClass, name string) bool {
	for _, l := range c.lineage(cls) {
		for _, f := range l.Functions {
			if f == name {
				return true
			}
		}
	}
	return false
}

func (c *Catalog) hasDispatcher(cls *NativeClass, name string) bool {
	for _, l := range c.lineage(cls) {
		for _, d := range l.Dispatchers {
			if d == name {
				return true
			}
		}
	}
	return false
}
