package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/jamiealquiza/tachymeter"

	"github.com/go-drift/fern/pkg/core"
	"github.com/go-drift/fern/pkg/render"
)

// benchLeaf is the terminal widget of every benchmark tree.
type benchLeaf struct {
	core.RenderNodeBase
	Label string
}

func (w benchLeaf) CreateRenderNode(ctx core.BuildContext) render.Node {
	node := &labelNode{label: w.Label}
	node.SetSelf(node)
	return node
}

func (w benchLeaf) UpdateRenderNode(ctx core.BuildContext, node render.Node) {
	n := node.(*labelNode)
	if n.label != w.Label {
		n.label = w.Label
		n.MarkNeedsUpdate()
	}
}

type labelNode struct {
	render.NodeBase
	label string
}

// benchBox nests one child, used to build deep columns.
type benchBox struct {
	core.RenderNodeBase
	Content core.Widget
}

func (w benchBox) Child() core.Widget { return w.Content }

func (w benchBox) CreateRenderNode(ctx core.BuildContext) render.Node {
	node := &boxNode{}
	node.SetSelf(node)
	return node
}

func (w benchBox) UpdateRenderNode(ctx core.BuildContext, node render.Node) {}

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

// benchRow holds an ordered child list, used for width and reorder loads.
type benchRow struct {
	core.RenderNodeBase
	Items []core.Widget
}

func (w benchRow) Children() []core.Widget { return w.Items }

func (w benchRow) CreateRenderNode(ctx core.BuildContext) render.Node {
	node := &rowNode{}
	node.SetSelf(node)
	return node
}

func (w benchRow) UpdateRenderNode(ctx core.BuildContext, node render.Node) {}

type rowNode struct {
	render.ContainerBase
}

// ambientColor is the provider for the inherited fan-out load.
type ambientColor struct {
	core.InheritedBase
	Color string
	Body  core.Widget
}

func (w ambientColor) ChildWidget() core.Widget { return w.Body }

func (w ambientColor) UpdateShouldNotify(oldWidget core.InheritedWidget) bool {
	return w.Color != oldWidget.(ambientColor).Color
}

var ambientColorType = reflect.TypeOf(ambientColor{})

// colorReader depends on ambientColor; its widget value never changes, so
// every rebuild it sees went through dependency notification.
type colorReader struct {
	core.StatelessBase
	Slot int
}

func (w colorReader) Build(ctx core.BuildContext) core.Widget {
	c, _ := ctx.DependOnInherited(ambientColorType, nil).(ambientColor)
	return benchLeaf{Label: c.Color}
}

// column builds a chain of depth boxes ending in a stamped leaf.
func column(col, depth, stamp int) core.Widget {
	var w core.Widget = benchLeaf{Label: fmt.Sprintf("%d/%d", col, stamp)}
	for i := 0; i < depth; i++ {
		w = benchBox{Content: w}
	}
	return w
}

func grid(width, depth, stamp int) core.Widget {
	items := make([]core.Widget, width)
	for i := range items {
		items[i] = column(i, depth, stamp)
	}
	return benchRow{Items: items}
}

type benchResult struct {
	Scenario Scenario
	Nodes    int
	Metrics  *tachymeter.Metrics
}

// runScenario drives one scenario for the configured number of iterations
// and returns latency metrics.
func runScenario(s Scenario, iterations int) (benchResult, error) {
	if s.Iterations > 0 {
		iterations = s.Iterations
	}
	tach := tachymeter.New(&tachymeter.Config{Size: iterations})
	result := benchResult{Scenario: s}

	switch s.Kind {
	case "mount":
		for i := 0; i < iterations; i++ {
			host := render.NewHost()
			owner := core.NewBuildOwner(host)
			start := time.Now()
			root := core.MountRoot(owner, grid(s.Width, s.Depth, 0))
			if err := finishPass(owner, root); err != nil {
				return result, err
			}
			tach.AddTime(time.Since(start))
			result.Nodes = host.AttachedCount()
		}

	case "rebuild":
		host := render.NewHost()
		owner := core.NewBuildOwner(host)
		root := core.MountRoot(owner, grid(s.Width, s.Depth, 0))
		if err := finishPass(owner, root); err != nil {
			return result, err
		}
		result.Nodes = host.AttachedCount()
		for i := 1; i <= iterations; i++ {
			next := grid(s.Width, s.Depth, i)
			start := time.Now()
			if err := applyRoot(owner, root, next); err != nil {
				return result, err
			}
			tach.AddTime(time.Since(start))
		}

	case "reorder":
		host := render.NewHost()
		owner := core.NewBuildOwner(host)
		root := core.MountRoot(owner, benchRow{Items: rotatedItems(s.Width, 0)})
		if err := finishPass(owner, root); err != nil {
			return result, err
		}
		result.Nodes = host.AttachedCount()
		for i := 1; i <= iterations; i++ {
			next := benchRow{Items: rotatedItems(s.Width, i)}
			start := time.Now()
			if err := applyRoot(owner, root, next); err != nil {
				return result, err
			}
			tach.AddTime(time.Since(start))
		}

	case "inherited":
		host := render.NewHost()
		owner := core.NewBuildOwner(host)
		readers := make([]core.Widget, s.Width)
		for i := range readers {
			readers[i] = colorReader{Slot: i}
		}
		body := benchRow{Items: readers}
		root := core.MountRoot(owner, ambientColor{Color: "c0", Body: body})
		if err := finishPass(owner, root); err != nil {
			return result, err
		}
		result.Nodes = host.AttachedCount()
		for i := 1; i <= iterations; i++ {
			next := ambientColor{Color: fmt.Sprintf("c%d", i), Body: body}
			start := time.Now()
			if err := applyRoot(owner, root, next); err != nil {
				return result, err
			}
			tach.AddTime(time.Since(start))
		}

	default:
		return result, fmt.Errorf("unknown scenario kind %q", s.Kind)
	}

	result.Metrics = tach.Calc()
	return result, nil
}

// rotatedItems returns width keyed leaves rotated by offset, so every
// iteration is a pure reorder of the same elements.
func rotatedItems(width, offset int) []core.Widget {
	items := make([]core.Widget, width)
	for i := range items {
		n := (i + offset) % width
		items[i] = benchLeaf{
			RenderNodeBase: core.RenderNodeBase{KeyValue: core.ValueKey[int]{Value: n}},
			Label:          fmt.Sprintf("item-%d", n),
		}
	}
	return items
}

func applyRoot(owner *core.BuildOwner, root core.Element, widget core.Widget) error {
	if err := owner.BuildScope(root, func() { root.Update(widget) }); err != nil {
		return err
	}
	return owner.FinalizeTree()
}

func finishPass(owner *core.BuildOwner, root core.Element) error {
	if err := owner.BuildScope(root, nil); err != nil {
		return err
	}
	return owner.FinalizeTree()
}
