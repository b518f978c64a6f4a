package dna

import (
	"fmt"
	"strings"

	"github.com/slfconversion/bpmigrate/internal/core"
	"github.com/slfconversion/bpmigrate/internal/host"
)

// maxLineage bounds parent chain walks over malformed documents.
const maxLineage = 32

var knownNodeKinds = map[string]bool{
	host.NodeCallFunction:   true,
	host.NodeVariableGet:    true,
	host.NodeVariableSet:    true,
	host.NodeEvent:          true,
	host.NodeCustomEvent:    true,
	host.NodeAddDelegate:    true,
	host.NodeRemoveDelegate: true,
	host.NodeClearDelegate:  true,
	host.NodeCallDelegate:   true,
	host.NodeAssignDelegate: true,
	host.NodeCreateDelegate: true,
}

// memberKind selects which member table a lookup consults.
type memberKind int

const (
	memberFunction memberKind = iota
	memberDispatcher
)

// Compile implements host.Host. A deferred reparent becomes visible here.
// Errors are reported for nodes whose owning class or member no longer
// resolves; classes absent from the native catalog are assumed to resolve.
func (w *Workspace) Compile(bp host.Blueprint) host.CompileResult {
	e := w.entry(bp)
	if e.pending != "" {
		if cls := w.catalog.Find(e.pending); cls != nil {
			w.applyParent(e, cls)
		}
		e.pending = ""
	}

	var res host.CompileResult
	for _, g := range e.doc.Graphs {
		for _, n := range g.Nodes {
			where := fmt.Sprintf("%s/%s", g.Name, n.ID)
			if !knownNodeKinds[n.Kind] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unrecognised node kind %q", where, n.Kind))
				continue
			}
			switch {
			case n.Kind == host.NodeCallFunction:
				if msg := w.checkMember(e, n, memberFunction); msg != "" {
					res.Errors = append(res.Errors, where+": "+msg)
				}
			case host.IsDelegateNode(n.Kind):
				if msg := w.checkMember(e, n, memberDispatcher); msg != "" {
					res.Errors = append(res.Errors, where+": "+msg)
				}
			case isSelfVariableNode(n):
				if !e.doc.hasVariable(n.Member) {
					if _, ok := e.doc.Defaults[n.Member]; !ok {
						res.Errors = append(res.Errors, fmt.Sprintf("%s: variable %s does not exist", where, n.Member))
					}
				}
			}
		}
	}

	w.log.Debug("compiled", "asset", e.path, "errors", len(res.Errors), "warnings", len(res.Warnings))
	for _, msg := range res.Errors {
		w.log.Warn("compile error", "asset", e.path, "msg", msg)
	}
	return res
}

// checkMember returns an error message when the node's member cannot be
// resolved on its owning class.
func (w *Workspace) checkMember(self *entry, n *NodeDoc, kind memberKind) string {
	what := "function"
	if kind == memberDispatcher {
		what = "event dispatcher"
	}

	if n.MemberParent == "" {
		if w.blueprintHas(self, n.Member, kind, 0) {
			return ""
		}
		return fmt.Sprintf("%s %s not found on self", what, n.Member)
	}

	ref := core.UnquoteRef(n.MemberParent)
	name := core.ObjectName(ref)

	cls := w.catalog.findByName(ref)
	if cls == nil {
		cls = w.catalog.findByName(name)
	}
	if cls != nil {
		if w.nativeHas(cls, n.Member, kind) {
			return ""
		}
		return fmt.Sprintf("%s %s not found on %s", what, n.Member, cls.ClassRef)
	}
	if strings.HasPrefix(ref, core.ScriptRoot) {
		return ""
	}

	if owner := w.generatedClassOwner(ref); owner != nil {
		if w.blueprintHas(owner, n.Member, kind, 0) {
			return ""
		}
		return fmt.Sprintf("%s %s not found on %s", what, n.Member, name)
	}

	if strings.HasSuffix(name, w.suffix) {
		return fmt.Sprintf("class %s does not exist", name)
	}
	return ""
}

func (w *Workspace) nativeHas(cls *NativeClass, member string, kind memberKind) bool {
	if kind == memberDispatcher {
		return w.catalog.hasDispatcher(cls, member)
	}
	return w.catalog.hasFunction(cls, member)
}

// blueprintHas looks the member up on e and its parent chain. Parents
// outside the workspace and catalog are assumed to provide it.
func (w *Workspace) blueprintHas(e *entry, member string, kind memberKind, depth int) bool {
	if depth > maxLineage {
		return false
	}
	switch kind {
	case memberDispatcher:
		if e.doc.hasDispatcher(member) {
			return true
		}
	default:
		if e.doc.hasFunction(member) {
			return true
		}
	}

	parent, err := core.ParseClassRef(e.doc.Parent)
	if err != nil || parent.IsZero() {
		return false
	}
	if parent.IsNative() {
		cls := w.catalog.Find(parent.Native)
		if cls == nil {
			return true
		}
		return w.nativeHas(cls, member, kind)
	}
	next, ok := w.entries[parent.Blueprint]
	if !ok {
		return true
	}
	return w.blueprintHas(next, member, kind, depth+1)
}

// generatedClassOwner maps a generated class reference ("BP_Foo_C" or
// "/Game/X/BP_Foo.BP_Foo_C") to the Blueprint that generates it.
func (w *Workspace) generatedClassOwner(ref string) *entry {
	name := core.ObjectName(ref)
	if !strings.HasSuffix(name, w.suffix) {
		return nil
	}
	bpName := strings.TrimSuffix(name, w.suffix)

	if i := strings.LastIndex(ref, "."); i > 0 {
		if p, err := core.ParseAssetPath(ref[:i]); err == nil {
			if e, ok := w.entries[p]; ok {
				return e
			}
		}
	}
	for _, p := range w.Assets() {
		if p.Name() == bpName {
			return w.entries[p]
		}
	}
	return nil
}
