package core

import (
	"fmt"
	"sync"

	"github.com/go-drift/fern/pkg/errors"
	"github.com/go-drift/fern/pkg/render"
)

// ErrorWidgetBuilder produces the widget substituted in place of a subtree
// whose build failed.
type ErrorWidgetBuilder func(err *errors.BuildError) Widget

var (
	errorBuilderMu sync.RWMutex
	errorBuilder   ErrorWidgetBuilder = defaultErrorBuilder
)

// SetErrorWidgetBuilder replaces the stand-in builder process-wide. Passing
// nil restores the default.
func SetErrorWidgetBuilder(builder ErrorWidgetBuilder) {
	errorBuilderMu.Lock()
	defer errorBuilderMu.Unlock()
	if builder == nil {
		builder = defaultErrorBuilder
	}
	errorBuilder = builder
}

// standInFor asks the installed builder for a stand-in widget. A builder
// returning nil falls back to the default diagnostic leaf, so a failed build
// always leaves a subtree behind.
func standInFor(err *errors.BuildError) Widget {
	errorBuilderMu.RLock()
	builder := errorBuilder
	errorBuilderMu.RUnlock()
	if widget := builder(err); widget != nil {
		return widget
	}
	return defaultErrorBuilder(err)
}

// defaultErrorBuilder shows the failure detail in DebugMode and a generic
// placeholder otherwise, so production surfaces never leak stack contents.
func defaultErrorBuilder(err *errors.BuildError) Widget {
	if DebugMode {
		return ErrorWidget{Message: fmt.Sprintf("build failed in %s: %v", err.Widget, err.Recovered)}
	}
	return ErrorWidget{Message: "something went wrong"}
}

// ErrorWidget is a render-backed leaf carrying a diagnostic message. It is
// what users see where a subtree failed to build.
type ErrorWidget struct {
	Message string
	KeyVal  Key
}

func (w ErrorWidget) CreateElement() Element { return NewRenderNodeElement() }

func (w ErrorWidget) Key() Key { return w.KeyVal }

func (w ErrorWidget) CreateRenderNode(ctx BuildContext) render.Node {
	node := &DiagnosticNode{Message: w.Message}
	node.SetSelf(node)
	return node
}

func (w ErrorWidget) UpdateRenderNode(ctx BuildContext, node render.Node) {
	diagnostic := node.(*DiagnosticNode)
	if diagnostic.Message != w.Message {
		diagnostic.Message = w.Message
		diagnostic.MarkNeedsUpdate()
	}
}

// DiagnosticNode is the render node behind ErrorWidget.
type DiagnosticNode struct {
	render.NodeBase
	Message string
}
