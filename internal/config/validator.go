package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"sigs.k8s.io/yaml"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

//go:embed schema.cue
var schemaCUE []byte

// Validator validates configuration files against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}, nil
}

// Validate checks raw YAML config data. name labels diagnostics.
func (v *Validator) Validate(data []byte, name string) error {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return oerrors.NewValidationError(fmt.Sprintf("parsing YAML: %v", err), name, "", "")
	}
	// An empty file is an empty config.
	if strings.TrimSpace(string(j)) == "null" {
		j = []byte("{}")
	}

	value := v.ctx.CompileBytes(j, cue.Filename(name))
	if value.Err() != nil {
		return schemaError(name, value.Err())
	}
	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return schemaError(name, err)
	}
	return nil
}

// ValidateFile validates the configuration file at path.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return oerrors.NewNotFoundError("configuration file not found", path,
				"Run 'bpmigrate config init' to create default configuration")
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return v.Validate(data, path)
}

func schemaError(name string, err error) error {
	return &oerrors.DetailError{
		Type:     "config invalid",
		Message:  strings.TrimSpace(cueerrors.Details(err, nil)),
		Location: name,
		Hint:     "Compare with the file written by 'bpmigrate config init'.",
		Cause:    oerrors.ErrValidation,
	}
}
