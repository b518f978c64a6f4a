package dna

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/output"
)

// Document file suffixes.
var documentSuffixes = []string{".bp.yaml", ".bp.yml", ".bp.json"}

// Workspace is an editor model over a directory of DNA documents. It
// implements host.Host.
type Workspace struct {
	dir         string
	catalogPath string
	catalog     *Catalog
	entries     map[core.AssetPath]*entry
	log         *log.Logger
	dryRun      bool
	suffix      string
}

// entry is one loaded asset and doubles as its host.Blueprint handle.
type entry struct {
	doc    *Document
	path   core.AssetPath
	file   string
	isJSON bool

	// pending is the parent a deferred reparent applies on next compile.
	pending core.NativeClassRef
}

// Path implements host.Blueprint.
func (e *entry) Path() core.AssetPath { return e.path }

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger routes all host logging to l.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}

// WithCatalogFile overrides the native catalog location.
func WithCatalogFile(path string) Option {
	return func(w *Workspace) {
		if path != "" {
			w.catalogPath = path
		}
	}
}

// WithDryRun keeps saves in memory.
func WithDryRun(dryRun bool) Option {
	return func(w *Workspace) {
		w.dryRun = dryRun
	}
}

// WithClassSuffix sets the generated class suffix used to resolve
// Blueprint class references during compile.
func WithClassSuffix(suffix string) Option {
	return func(w *Workspace) {
		if suffix != "" {
			w.suffix = suffix
		}
	}
}

func newWorkspace(opts []Option) *Workspace {
	w := &Workspace{
		entries: make(map[core.AssetPath]*entry),
		log:     output.Discard(),
		suffix:  core.DefaultClassSuffix,
		catalog: &Catalog{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open loads every document under dir and the native catalog.
func Open(dir string, opts ...Option) (*Workspace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, oerrors.NewNotFoundError(fmt.Sprintf("workspace %s: %v", dir, err), dir,
			"Pass --workspace or set workspace in ~/.bpmigrate/config.yaml")
	}
	if !info.IsDir() {
		return nil, oerrors.NewValidationError("workspace is not a directory", dir, "workspace", "")
	}

	w := newWorkspace(opts)
	w.dir = dir
	if w.catalogPath == "" {
		w.catalogPath = filepath.Join(dir, CatalogFileName)
	}

	catalog, err := LoadCatalog(w.catalogPath)
	if err != nil {
		return nil, err
	}
	w.catalog = catalog

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDocumentFile(p) {
			return nil
		}
		return w.loadFile(p)
	})
	if err != nil {
		return nil, err
	}

	w.log.Debug("workspace opened", "dir", dir, "assets", len(w.entries), "nativeClasses", len(w.catalog.Classes))
	return w, nil
}

// New builds an in-memory workspace, used by tests and dry runs.
func New(catalog *Catalog, docs []*Document, opts ...Option) (*Workspace, error) {
	w := newWorkspace(opts)
	if catalog != nil {
		w.catalog = catalog
	}
	for _, doc := range docs {
		if err := w.add(doc, "", false); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Dir returns the workspace root, empty for in-memory workspaces.
func (w *Workspace) Dir() string { return w.dir }

// Catalog returns the native catalog.
func (w *Workspace) Catalog() *Catalog { return w.catalog }

// Assets returns every loaded asset path in sorted order.
func (w *Workspace) Assets() []core.AssetPath {
	paths := make([]core.AssetPath, 0, len(w.entries))
	for p := range w.entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Document returns the live document for path, or nil.
func (w *Workspace) Document(path core.AssetPath) *Document {
	if e, ok := w.entries[path]; ok {
		return e.doc
	}
	return nil
}

func isDocumentFile(p string) bool {
	for _, s := range documentSuffixes {
		if strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}

func (w *Workspace) loadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	var doc Document
	// JSON is a subset of YAML, so one decoder serves both formats.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oerrors.NewValidationError(err.Error(), file, "", "")
	}
	return w.add(&doc, file, strings.HasSuffix(file, ".json"))
}

func (w *Workspace) add(doc *Document, file string, isJSON bool) error {
	path, err := core.ParseAssetPath(doc.Path)
	if err != nil {
		return oerrors.NewValidationError(err.Error(), file, "path", "")
	}
	if prev, ok := w.entries[path]; ok {
		return oerrors.NewValidationError(fmt.Sprintf("asset %s declared twice", path), file, "path",
			"also declared in "+prev.file)
	}
	if doc.Defaults == nil {
		doc.Defaults = map[string]core.Value{}
	}
	for name, v := range doc.Defaults {
		doc.Defaults[name] = v.Normalize()
	}
	w.entries[path] = &entry{doc: doc, path: path, file: file, isJSON: isJSON}
	return nil
}

func (w *Workspace) write(e *entry) error {
	if e.doc.ReadOnly {
		return oerrors.Wrapf(oerrors.ErrSaveFailure, "saving %s: asset is read-only", e.path)
	}
	if w.dryRun || e.file == "" {
		w.log.Info("save kept in memory", "asset", e.path, "dryRun", w.dryRun)
		return nil
	}

	var data []byte
	if e.isJSON {
		b, err := json.MarshalIndent(e.doc, "", "  ")
		if err != nil {
			return oerrors.Wrapf(oerrors.ErrSaveFailure, "encoding %s: %v", e.path, err)
		}
		data = append(b, '\n')
	} else {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(e.doc); err != nil {
			return oerrors.Wrapf(oerrors.ErrSaveFailure, "encoding %s: %v", e.path, err)
		}
		if err := enc.Close(); err != nil {
			return oerrors.Wrapf(oerrors.ErrSaveFailure, "encoding %s: %v", e.path, err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(e.file, data, 0o644); err != nil {
		return oerrors.Wrapf(oerrors.ErrSaveFailure, "writing %s: %v", e.file, err)
	}
	w.log.Debug("saved", "asset", e.path, "file", e.file)
	return nil
}
