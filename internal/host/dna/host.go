package dna

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/host"
)

var _ host.Host = (*Workspace)(nil)

func (w *Workspace) entry(bp host.Blueprint) *entry {
	e, ok := bp.(*entry)
	if !ok {
		panic(fmt.Sprintf("dna: foreign blueprint handle %T", bp))
	}
	return e
}

// LoadBlueprint implements host.Host.
func (w *Workspace) LoadBlueprint(path core.AssetPath) (host.Blueprint, error) {
	e, ok := w.entries[path]
	if !ok {
		return nil, oerrors.Wrapf(oerrors.ErrAssetMissing, "loading %s", path)
	}
	if !e.doc.IsBlueprint() {
		return nil, oerrors.Wrapf(oerrors.ErrNotABlueprint, "loading %s (kind %s)", path, e.doc.Kind)
	}
	w.log.Debug("loaded blueprint", "asset", path)
	return e, nil
}

// SaveBlueprint implements host.Host. It writes regardless of whether the
// asset changed.
func (w *Workspace) SaveBlueprint(bp host.Blueprint) error {
	return w.write(w.entry(bp))
}

// LoadNativeClass implements host.Host.
func (w *Workspace) LoadNativeClass(ref core.NativeClassRef) (host.Class, error) {
	cls := w.catalog.Find(ref)
	if cls == nil {
		if !w.catalog.hasModule(ref.Module()) {
			return nil, oerrors.Wrapf(oerrors.ErrNativeClassMissing, "loading %s: module %s is not loaded", ref, ref.Module())
		}
		return nil, oerrors.Wrapf(oerrors.ErrNativeClassMissing, "loading %s: no such class in module %s", ref, ref.Module())
	}
	return cls, nil
}

// ParentClass implements host.Host.
func (w *Workspace) ParentClass(bp host.Blueprint) core.ClassRef {
	parent := w.entry(bp).doc.Parent
	ref, err := core.ParseClassRef(parent)
	if err != nil {
		return core.ClassRef{Blueprint: core.AssetPath(parent)}
	}
	return ref
}

// Reparent implements host.Host. It is refused while a Blueprint variable
// shadows a property of the new parent.
func (w *Workspace) Reparent(bp host.Blueprint, class host.Class) (host.ReparentOutcome, error) {
	e := w.entry(bp)
	cls := w.catalog.Find(class.Ref())
	if cls == nil {
		return host.ReparentApplied, oerrors.Wrapf(oerrors.ErrReparentRejected, "reparenting %s: %s is not loaded", e.path, class.Ref())
	}

	props := w.catalog.properties(cls)
	var collisions []string
	for _, v := range e.doc.Variables {
		if _, ok := props[v.Name]; ok {
			collisions = append(collisions, v.Name)
		}
	}
	if len(collisions) > 0 {
		w.log.Warn("reparent refused", "asset", e.path, "collisions", strings.Join(collisions, ","))
		return host.ReparentApplied, oerrors.Wrapf(oerrors.ErrReparentRejected,
			"reparenting %s to %s: variables shadow native properties: %s", e.path, cls.ClassRef, strings.Join(collisions, ", "))
	}

	if e.doc.DeferredReparent {
		e.pending = cls.ClassRef
		w.log.Debug("reparent deferred until compile", "asset", e.path, "parent", cls.ClassRef)
		return host.ReparentNeedsCompile, nil
	}

	w.applyParent(e, cls)
	return host.ReparentApplied, nil
}

// applyParent switches the parent and materialises the native properties on
// the CDO, keeping values already present under the same name.
func (w *Workspace) applyParent(e *entry, cls *NativeClass) {
	e.doc.Parent = string(cls.ClassRef)
	e.pending = ""
	for name, v := range w.catalog.properties(cls) {
		if _, ok := e.doc.Defaults[name]; !ok {
			e.doc.Defaults[name] = v.Normalize()
		}
	}
	w.log.Debug("reparented", "asset", e.path, "parent", cls.ClassRef)
}

// ListVariables implements host.Host.
func (w *Workspace) ListVariables(bp host.Blueprint) []string {
	doc := w.entry(bp).doc
	names := make([]string, 0, len(doc.Variables))
	for _, v := range doc.Variables {
		names = append(names, v.Name)
	}
	return names
}

// ListFunctions implements host.Host.
func (w *Workspace) ListFunctions(bp host.Blueprint) []string {
	var names []string
	for _, g := range w.entry(bp).doc.Graphs {
		if g.Kind == host.GraphFunction {
			names = append(names, g.Name)
		}
	}
	return names
}

// ListEventDispatchers implements host.Host.
func (w *Workspace) ListEventDispatchers(bp host.Blueprint) []string {
	return append([]string(nil), w.entry(bp).doc.Dispatchers...)
}

// RemoveVariable implements host.Host. Function graph references keep the
// variable alive; event graph references are left dangling.
func (w *Workspace) RemoveVariable(bp host.Blueprint, name string) (host.RemoveOutcome, error) {
	e := w.entry(bp)
	idx := -1
	for i, v := range e.doc.Variables {
		if v.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return host.NotFound, nil
	}

	for _, g := range e.doc.Graphs {
		if g.Kind != host.GraphFunction {
			continue
		}
		for _, n := range g.Nodes {
			if isSelfVariableNode(n) && n.Member == name {
				w.log.Warn("variable still referenced", "asset", e.path, "variable", name, "graph", g.Name, "node", n.ID)
				return host.StillReferenced, oerrors.Wrapf(oerrors.ErrMemberRemovalRefused,
					"removing variable %s from %s: referenced by %s in function %s", name, e.path, n.ID, g.Name)
			}
		}
	}

	e.doc.Variables = append(e.doc.Variables[:idx], e.doc.Variables[idx+1:]...)
	delete(e.doc.Defaults, name)
	w.log.Debug("removed variable", "asset", e.path, "variable", name)
	return host.Removed, nil
}

// RemoveFunction implements host.Host.
func (w *Workspace) RemoveFunction(bp host.Blueprint, name string) (host.RemoveOutcome, error) {
	e := w.entry(bp)
	for i, g := range e.doc.Graphs {
		if g.Kind == host.GraphFunction && g.Name == name {
			e.doc.Graphs = append(e.doc.Graphs[:i], e.doc.Graphs[i+1:]...)
			w.log.Debug("removed function", "asset", e.path, "function", name)
			return host.Removed, nil
		}
	}
	return host.NotFound, nil
}

// RemoveEventDispatcher implements host.Host. The dispatcher's signature
// graph goes with it.
func (w *Workspace) RemoveEventDispatcher(bp host.Blueprint, name string) (host.RemoveOutcome, error) {
	e := w.entry(bp)
	idx := -1
	for i, d := range e.doc.Dispatchers {
		if d == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return host.NotFound, nil
	}
	e.doc.Dispatchers = append(e.doc.Dispatchers[:idx], e.doc.Dispatchers[idx+1:]...)
	for i, g := range e.doc.Graphs {
		if g.Kind == host.GraphDelegate && g.Name == name {
			e.doc.Graphs = append(e.doc.Graphs[:i], e.doc.Graphs[i+1:]...)
			break
		}
	}
	w.log.Debug("removed event dispatcher", "asset", e.path, "dispatcher", name)
	return host.Removed, nil
}

// Graphs implements host.Host.
func (w *Workspace) Graphs(bp host.Blueprint) []host.Graph {
	doc := w.entry(bp).doc
	graphs := make([]host.Graph, 0, len(doc.Graphs))
	for _, g := range doc.Graphs {
		graphs = append(graphs, host.Graph{Name: g.Name, Kind: g.Kind})
	}
	return graphs
}

// ClearGraphNodes implements host.Host.
func (w *Workspace) ClearGraphNodes(bp host.Blueprint, graph string) int {
	e := w.entry(bp)
	g := e.doc.graph(graph)
	if g == nil {
		return 0
	}
	n := len(g.Nodes)
	g.Nodes = nil
	if n > 0 {
		w.log.Debug("cleared graph", "asset", e.path, "graph", graph, "nodes", n)
	}
	return n
}

// ForEachNode implements host.Host.
func (w *Workspace) ForEachNode(bp host.Blueprint, visit func(host.Node) error) error {
	for _, g := range w.entry(bp).doc.Graphs {
		for _, n := range g.Nodes {
			if err := visit(&node{graph: g.Name, doc: n}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReconstructNodes implements host.Host. Every node re-reads its pin
// layout; links and defaults are kept.
func (w *Workspace) ReconstructNodes(bp host.Blueprint) int {
	e := w.entry(bp)
	count := 0
	for _, g := range e.doc.Graphs {
		count += len(g.Nodes)
	}
	w.log.Debug("reconstructed nodes", "asset", e.path, "nodes", count)
	return count
}

// ListCDOProperties implements host.Host.
func (w *Workspace) ListCDOProperties(bp host.Blueprint) []string {
	doc := w.entry(bp).doc
	names := make([]string, 0, len(doc.Defaults))
	for name := range doc.Defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadCDOProperty implements host.Host.
func (w *Workspace) ReadCDOProperty(bp host.Blueprint, name string) (core.Value, error) {
	e := w.entry(bp)
	v, ok := e.doc.Defaults[name]
	if !ok {
		return core.Value{}, oerrors.Wrapf(oerrors.ErrNotFound, "property %s on %s", name, e.path)
	}
	return v, nil
}

// WriteCDOProperty implements host.Host.
func (w *Workspace) WriteCDOProperty(bp host.Blueprint, name string, v core.Value) error {
	e := w.entry(bp)
	cur, ok := e.doc.Defaults[name]
	if !ok {
		return oerrors.Wrapf(oerrors.ErrNotFound, "property %s on %s", name, e.path)
	}
	if !v.Compatible(cur) {
		return oerrors.Wrapf(oerrors.ErrTypeMismatch, "writing %s on %s: %s value into %s property", name, e.path, v.Kind, cur.Kind)
	}
	e.doc.Defaults[name] = v.Normalize()
	w.log.Debug("wrote property", "asset", e.path, "property", name, "value", v.String())
	return nil
}

func isSelfVariableNode(n *NodeDoc) bool {
	return (n.Kind == host.NodeVariableGet || n.Kind == host.NodeVariableSet) && n.MemberParent == ""
}
