package snapshot

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

// Write encodes the snapshot as one YAML document. Map keys are emitted in
// sorted order so the output is stable and diffable.
func (s *Snapshot) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

// Save writes the snapshot to path, creating parent directories.
func (s *Snapshot) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// Read decodes a snapshot document.
func Read(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if err == io.EOF {
			return nil, oerrors.NewValidationError("snapshot document is empty", "", "", "")
		}
		return nil, oerrors.NewValidationError(fmt.Sprintf("decoding snapshot: %v", err), "", "", "")
	}
	if s.Version != FormatVersion {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("unsupported snapshot version %q", s.Version), "", "version",
			fmt.Sprintf("Recapture with this build; expected %s.", FormatVersion))
	}
	if s.Assets == nil {
		s.Assets = map[core.AssetPath]*Asset{}
	}
	for path, a := range s.Assets {
		if _, err := core.ParseAssetPath(string(path)); err != nil {
			return nil, oerrors.NewValidationError(err.Error(), "", "assets", "")
		}
		if a == nil {
			s.Assets[path] = &Asset{Properties: map[string]core.Value{}}
		} else if a.Properties == nil {
			a.Properties = map[string]core.Value{}
		}
	}
	return &s, nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError(fmt.Sprintf("snapshot %s does not exist", path), path,
				"Capture one first with 'bpmigrate snapshot capture'.")
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		if d, ok := err.(*oerrors.DetailError); ok {
			d.Location = path
		}
		return nil, err
	}
	return s, nil
}

// Digest is a SHA256 over the canonical encoding of the captured assets,
// formatted "sha256:<hex>". The capture time does not contribute.
func (s *Snapshot) Digest() string {
	if s == nil {
		return ""
	}
	b, err := yaml.Marshal(s.Assets)
	if err != nil {
		b = []byte(fmt.Sprintf("%v", s.Assets))
	}
	return fmt.Sprintf("sha256:%x", sha256.Sum256(b))
}
