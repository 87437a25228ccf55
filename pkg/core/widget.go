package core

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/fern/pkg/render"
)

// Widget is an immutable description of part of the UI. Widgets are
// lightweight configuration objects; creating them frequently is cheap. A
// widget is never mutated after construction; updating the tree means
// building new widgets and letting the framework reconcile them against the
// existing elements.
type Widget interface {
	// CreateElement creates the element that will host this widget. The
	// framework assigns the widget to the element during inflation.
	CreateElement() Element
	// Key controls reuse-vs-replace decisions during reconciliation.
	// Returns nil for unkeyed widgets.
	Key() Key
}

// StatelessWidget describes part of the UI purely as a function of its
// configuration.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget describes part of the UI that has mutable state. The widget
// itself stays immutable; the state lives in the State object attached to the
// hosting element and survives widget updates.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State is the mutable companion of a StatefulWidget. Its lifecycle is
// strictly nested inside the element's active period:
// InitState runs once right after first mount and before the first build;
// DidChangeDependencies runs once after InitState and again whenever a read
// inherited dependency changes; DidUpdateWidget runs whenever the element is
// updated with a compatible new widget, before the subsequent rebuild;
// Dispose runs exactly once during unmount, strictly after deactivation.
type State interface {
	InitState()
	Build(ctx BuildContext) Widget
	DidChangeDependencies()
	DidUpdateWidget(oldWidget StatefulWidget)
	Dispose()
}

// ProxyWidget passes a single pre-supplied child through unchanged. Its
// element's build returns the stored child verbatim.
type ProxyWidget interface {
	Widget
	ChildWidget() Widget
}

// InheritedWidget publishes a value to its descendants. Descendants that read
// the value through BuildContext.DependOnInherited register as dependents and
// are notified (via DidChangeDependencies and a rebuild) when the widget is
// replaced and UpdateShouldNotify returns true.
type InheritedWidget interface {
	ProxyWidget
	// UpdateShouldNotify reports whether dependents must be rebuilt after
	// this widget replaced oldWidget.
	UpdateShouldNotify(oldWidget InheritedWidget) bool
}

// AspectAwareInheritedWidget refines dependent notification: when a dependent
// registered with specific aspects, UpdateShouldNotifyDependent decides per
// dependent whether its aspects changed.
type AspectAwareInheritedWidget interface {
	InheritedWidget
	UpdateShouldNotifyDependent(oldWidget InheritedWidget, aspects mapset.Set[any]) bool
}

// RenderNodeWidget is backed by a node in the render tree. The framework
// calls CreateRenderNode once at mount and UpdateRenderNode on every
// configuration update and forced rebuild.
//
// A render node widget may additionally implement
// `interface{ Child() Widget }` for a single child or
// `interface{ Children() []Widget }` for an ordered child list; the hosting
// element reconciles those against its previous children.
type RenderNodeWidget interface {
	Widget
	CreateRenderNode(ctx BuildContext) render.Node
	UpdateRenderNode(ctx BuildContext, node render.Node)
}

// BuildContext is the element-side handle passed to build callbacks.
type BuildContext interface {
	// Widget returns the widget currently hosted at this location.
	Widget() Widget
	// Owner returns the BuildOwner managing this tree.
	Owner() *BuildOwner
	// DependOnInherited registers a dependency on the nearest inherited
	// widget of the given type and returns it, or nil if there is none.
	// The aspect, if non-nil, narrows which changes notify this dependent.
	DependOnInherited(inheritedType reflect.Type, aspect any) any
	// DependOnInheritedWithAspects registers multiple aspects in one call.
	DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any
	// FindAncestor returns the nearest ancestor element satisfying the
	// predicate, or nil.
	FindAncestor(predicate func(Element) bool) Element
}

// canUpdateWidget is the central reconciliation predicate: an existing
// element may be updated in place iff the new widget has the same concrete
// type and an equal (or equally absent) key as the old one.
func canUpdateWidget(oldWidget, newWidget Widget) bool {
	if oldWidget == nil || newWidget == nil {
		return false
	}
	if reflect.TypeOf(oldWidget) != reflect.TypeOf(newWidget) {
		return false
	}
	return KeysEqual(oldWidget.Key(), newWidget.Key())
}

// widgetsIdentical reports whether two widgets are the same configuration by
// simple equality. Widgets holding non-comparable fields (closures, slices)
// are never identical; they go through the regular update path instead.
func widgetsIdentical(a, b Widget) bool {
	if a == nil || b == nil {
		return false
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}
