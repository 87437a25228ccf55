package core

import (
	"fmt"
	"testing"

	"github.com/go-drift/fern/pkg/render"
)

// leaf is a render-backed leaf carrying a label, the workhorse of these
// tests: render-tree order is asserted through labelsOf.
type leaf struct {
	RenderNodeBase
	Label string
}

func (w leaf) CreateRenderNode(ctx BuildContext) render.Node {
	node := &leafNode{label: w.Label}
	node.SetSelf(node)
	return node
}

func (w leaf) UpdateRenderNode(ctx BuildContext, node render.Node) {
	n := node.(*leafNode)
	if n.label != w.Label {
		n.label = w.Label
		n.MarkNeedsUpdate()
	}
}

type leafNode struct {
	render.NodeBase
	label string
}

func keyedLeaf(key Key, label string) leaf {
	return leaf{RenderNodeBase: RenderNodeBase{KeyValue: key}, Label: label}
}

// panel is a render-backed multi-child container.
type panel struct {
	RenderNodeBase
	Items []Widget
}

func (w panel) Children() []Widget { return w.Items }

func (w panel) CreateRenderNode(ctx BuildContext) render.Node {
	node := &panelNode{}
	node.SetSelf(node)
	return node
}

func (w panel) UpdateRenderNode(ctx BuildContext, node render.Node) {}

type panelNode struct {
	render.ContainerBase
}

// box is a render-backed single-child container.
type box struct {
	RenderNodeBase
	Content Widget
}

func (w box) Child() Widget { return w.Content }

func (w box) CreateRenderNode(ctx BuildContext) render.Node {
	node := &boxNode{}
	node.SetSelf(node)
	return node
}

func (w box) UpdateRenderNode(ctx BuildContext, node render.Node) {}

type boxNode struct {
	render.NodeBase
	child render.Node
}

func (n *boxNode) SetChild(child render.Node) {
	n.child = child
	if child != nil && n.Attached() {
		child.Attach(n.Host())
	}
}

func (n *boxNode) VisitChildren(visit func(render.Node)) {
	if n.child != nil {
		visit(n.child)
	}
}

// wrapper is a stateless widget that builds its child, with an optional
// build probe.
type wrapper struct {
	StatelessBase
	Child   Widget
	OnBuild func(ctx BuildContext)
}

func (w wrapper) Build(ctx BuildContext) Widget {
	if w.OnBuild != nil {
		w.OnBuild(ctx)
	}
	return w.Child
}

// counter is a stateful widget recording lifecycle callbacks into Log.
type counter struct {
	StatefulBase
	Start int
	Log   *[]string
}

func (w counter) CreateState() State { return &counterState{} }

type counterState struct {
	StateBase
	value  int
	builds int
}

func (s *counterState) widget() counter {
	return s.Context().Widget().(counter)
}

func (s *counterState) log(event string) {
	if l := s.widget().Log; l != nil {
		*l = append(*l, event)
	}
}

func (s *counterState) InitState() {
	s.value = s.widget().Start
	s.log("init")
}

func (s *counterState) DidChangeDependencies() {
	s.log("deps")
}

func (s *counterState) DidUpdateWidget(oldWidget StatefulWidget) {
	s.log(fmt.Sprintf("update(%d->%d)", oldWidget.(counter).Start, s.widget().Start))
}

func (s *counterState) Dispose() {
	s.log("dispose")
	s.StateBase.Dispose()
}

func (s *counterState) Build(ctx BuildContext) Widget {
	s.builds++
	return keyedLeaf(nil, fmt.Sprintf("count:%d", s.value))
}

func (s *counterState) increment() {
	s.SetState(func() { s.value++ })
}

// mountTree mounts widget under a fresh owner and finishes the pass.
func mountTree(t *testing.T, widget Widget) (*BuildOwner, Element) {
	t.Helper()
	owner := NewBuildOwner(render.NewHost())
	root := MountRoot(owner, widget)
	pump(t, owner, root)
	return owner, root
}

// updateRoot applies a new root widget inside a build scope and finishes the
// pass.
func updateRoot(t *testing.T, owner *BuildOwner, root Element, widget Widget) {
	t.Helper()
	if err := owner.BuildScope(root, func() { root.Update(widget) }); err != nil {
		t.Fatalf("BuildScope: %v", err)
	}
	if err := owner.FinalizeTree(); err != nil {
		t.Fatalf("FinalizeTree: %v", err)
	}
}

// pump drains pending builds and finishes the pass.
func pump(t *testing.T, owner *BuildOwner, root Element) {
	t.Helper()
	if err := owner.BuildScope(root, nil); err != nil {
		t.Fatalf("BuildScope: %v", err)
	}
	if err := owner.FinalizeTree(); err != nil {
		t.Fatalf("FinalizeTree: %v", err)
	}
}

// labelsOf collects leaf labels in render-tree order under the element.
func labelsOf(element Element) []string {
	var out []string
	var walk func(render.Node)
	walk = func(n render.Node) {
		if n == nil {
			return
		}
		if l, ok := n.(*leafNode); ok {
			out = append(out, l.label)
		}
		if v, ok := n.(render.ChildVisitor); ok {
			v.VisitChildren(func(child render.Node) { walk(child) })
		}
	}
	walk(RenderNodeOf(element))
	return out
}

// findElement returns the first element in build order satisfying the
// predicate.
func findElement(root Element, predicate func(Element) bool) Element {
	if predicate(root) {
		return root
	}
	var found Element
	root.VisitChildren(func(child Element) bool {
		found = findElement(child, predicate)
		return found == nil
	})
	return found
}

// stateOf returns the counterState of the first counter element under root.
func stateOf(t *testing.T, root Element) *counterState {
	t.Helper()
	element := findElement(root, func(e Element) bool {
		_, ok := e.(*StatefulElement)
		return ok
	})
	if element == nil {
		t.Fatal("no stateful element in tree")
	}
	return element.(*StatefulElement).State().(*counterState)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
