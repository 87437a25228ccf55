package core

import (
	"fmt"
	"reflect"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/fern/pkg/errors"
	"github.com/go-drift/fern/pkg/render"
)

// Element is the instantiation of a Widget at a particular location in the
// tree. Elements are long-lived and mutable: reconciliation rebinds them to
// new widgets whenever the old and new widget are update-compatible, which is
// what preserves identity-linked state across rebuilds.
//
// The lifecycle methods with lowercase names are driven by the framework and
// sealed to this package; applications interact with elements through Mount,
// Update, MarkNeedsBuild and the BuildContext surface.
type Element interface {
	BuildContext

	// Depth is strictly greater than the parent's depth (1 for a root).
	Depth() int
	// Slot returns the opaque parent-assigned position token.
	Slot() any
	// Parent returns the parent element, nil for a root or detached element.
	Parent() Element
	// Lifecycle returns the element's lifecycle state.
	Lifecycle() ElementLifecycle
	// Dirty reports whether the element is scheduled for rebuild.
	Dirty() bool

	// Mount transitions initial→active, linking the element under parent at
	// the given slot and triggering the first build for composite elements.
	Mount(parent Element, slot any)
	// Update rebinds the element to a compatible new widget.
	Update(newWidget Widget)
	// MarkNeedsBuild marks the element dirty and schedules it with its owner.
	MarkNeedsBuild()
	// RebuildIfNeeded rebuilds the element when it is active and dirty.
	RebuildIfNeeded()
	// VisitChildren calls visitor for each child until it returns false.
	VisitChildren(visitor func(Element) bool)

	// internal lifecycle, sealed to this package
	base() *elementBase
	performRebuild()
	updateSlot(newSlot any)
	activate()
	deactivate()
	unmount()
	forgetChild(child Element)
	attachRenderNode(slot any)
	detachRenderNode()
	updateInheritance()
	didChangeDependencies()
}

// elementBase carries the state shared by every element kind and the
// reconciliation primitives (updateChild, inflateWidget, global key retake).
type elementBase struct {
	widget    Widget
	parent    Element
	self      Element
	owner     *BuildOwner
	depth     int
	slot      any
	lifecycle ElementLifecycle
	dirty     bool
	inDirtyList bool

	// inheritedElements caches provider-type → provider so ambient lookups
	// are O(1). Shared with the parent unless this element is a provider.
	inheritedElements map[reflect.Type]*InheritedElement
	// dependencies tracks the providers this element registered with, so
	// deactivation can tear the registrations down.
	dependencies mapset.Set[*InheritedElement]
}

func (e *elementBase) base() *elementBase { return e }

func (e *elementBase) Widget() Widget { return e.widget }

func (e *elementBase) Owner() *BuildOwner { return e.owner }

func (e *elementBase) Depth() int { return e.depth }

func (e *elementBase) Slot() any { return e.slot }

func (e *elementBase) Parent() Element { return e.parent }

func (e *elementBase) Lifecycle() ElementLifecycle { return e.lifecycle }

func (e *elementBase) Dirty() bool { return e.dirty }

func (e *elementBase) setSelf(self Element) { e.self = self }

// MarkNeedsBuild marks the element dirty and schedules it with the owner.
// Marking a defunct element is a contract violation; marking an element that
// is merely not active (initial or inactive) is a no-op, since it will build
// on mount or reactivation anyway.
func (e *elementBase) MarkNeedsBuild() {
	if e.lifecycle == LifecycleDefunct {
		panic(contractViolation("core.MarkNeedsBuild",
			"rebuild requested on a defunct element", e.self))
	}
	if e.lifecycle != LifecycleActive {
		return
	}
	if e.owner != nil {
		e.owner.checkMarkNeedsBuildAllowed(e.self)
	}
	if e.dirty {
		return
	}
	e.dirty = true
	if e.owner != nil {
		e.owner.ScheduleBuildFor(e.self)
	}
}

// RebuildIfNeeded rebuilds when active and dirty.
func (e *elementBase) RebuildIfNeeded() {
	if e.lifecycle != LifecycleActive || !e.dirty {
		return
	}
	e.self.performRebuild()
}

// mountBase performs the initial→active transition shared by every element
// kind: it links the parent, computes the depth, inherits the owner and the
// ambient-provider snapshot, and registers a global key if present.
func (e *elementBase) mountBase(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
		e.owner = parent.Owner()
	} else {
		e.depth = 1
	}
	e.lifecycle = LifecycleActive
	if key, ok := keyOf(e.widget).(GlobalKey); ok && e.owner != nil {
		e.owner.registerGlobalKey(key, e.self)
	}
	e.self.updateInheritance()
}

// updateInheritance adopts the parent's provider snapshot. InheritedElement
// overrides this to publish itself to descendants.
func (e *elementBase) updateInheritance() {
	if e.parent != nil {
		e.inheritedElements = e.parent.base().inheritedElements
	} else {
		e.inheritedElements = nil
	}
}

// activate transitions inactive→active after the element was reclaimed by a
// global key. Dependencies are cleared before any re-registration can happen;
// if the element had any, a dependency-change build is forced.
func (e *elementBase) activate() {
	hadDependencies := e.dependencies != nil && e.dependencies.Cardinality() > 0
	e.lifecycle = LifecycleActive
	e.dependencies = nil
	e.self.updateInheritance()
	if e.dirty && e.owner != nil {
		e.owner.ScheduleBuildFor(e.self)
	}
	if hadDependencies {
		e.self.didChangeDependencies()
	}
}

// deactivate transitions active→inactive: ambient-data registrations are torn
// down and the element is left parked until reactivation or unmount. Render
// detachment happens separately, once, at the root of the deactivated
// subtree (see deactivateChild).
func (e *elementBase) deactivate() {
	if e.dependencies != nil {
		for _, provider := range e.dependencies.ToSlice() {
			provider.removeDependent(e.self)
		}
	}
	e.inheritedElements = nil
	e.lifecycle = LifecycleInactive
}

// unmount transitions inactive→defunct. Children have already been unmounted
// by the owner's inactive sweep, which walks subtrees bottom-up.
func (e *elementBase) unmount() {
	if key, ok := keyOf(e.widget).(GlobalKey); ok && e.owner != nil {
		e.owner.unregisterGlobalKey(key, e.self)
	}
	e.lifecycle = LifecycleDefunct
}

// didChangeDependencies is invoked when a registered inherited provider
// published a change. The base behavior is to schedule a rebuild.
func (e *elementBase) didChangeDependencies() {
	e.self.MarkNeedsBuild()
}

// updateSlot records a new parent-assigned slot. RenderNodeElement overrides
// this to also move its backing node.
func (e *elementBase) updateSlot(newSlot any) {
	e.slot = newSlot
}

// attachRenderNode connects the subtree's backing nodes at the given slot.
// Composite elements recurse; RenderNodeElement overrides and stops the walk.
func (e *elementBase) attachRenderNode(slot any) {
	e.slot = slot
	e.self.VisitChildren(func(child Element) bool {
		child.attachRenderNode(slot)
		return true
	})
}

// detachRenderNode disconnects the subtree's backing nodes without
// destroying the elements, for the inactive-pending-reactivation window.
func (e *elementBase) detachRenderNode() {
	e.self.VisitChildren(func(child Element) bool {
		child.detachRenderNode()
		return true
	})
	e.slot = nil
}

// forgetChild removes a child reference without deactivating it, as part of
// moving a global-keyed child to a new parent. Overridden per element kind.
func (e *elementBase) forgetChild(child Element) {}

// VisitChildren is a no-op for leaf elements.
func (e *elementBase) VisitChildren(visitor func(Element) bool) {}

// performRebuild must be provided by each concrete element kind.
func (e *elementBase) performRebuild() {
	panic(internalInconsistency("core.performRebuild",
		fmt.Sprintf("element kind %T does not implement performRebuild", e.self), e.self))
}

// updateChild is the single path through which every parent updates every
// child. It reuses the existing child when the new widget is compatible,
// deactivates it when the new widget is nil or incompatible, and inflates a
// fresh (or reclaimed) element otherwise. The returned element is always
// active, or nil.
func (e *elementBase) updateChild(child Element, newWidget Widget, newSlot any) Element {
	if newWidget == nil {
		if child != nil {
			e.deactivateChild(child)
		}
		return nil
	}
	if child != nil {
		if widgetsIdentical(child.Widget(), newWidget) {
			if !slotsEqual(child.Slot(), newSlot) {
				updateSlotForChild(child, newSlot)
			}
			return child
		}
		if canUpdateWidget(child.Widget(), newWidget) {
			if !slotsEqual(child.Slot(), newSlot) {
				updateSlotForChild(child, newSlot)
			}
			child.Update(newWidget)
			return child
		}
		e.deactivateChild(child)
	}
	return e.inflateWidget(newWidget, newSlot)
}

// deactivateChild detaches a child's render subtree and parks the child in
// the owner's inactive set, where it stays reclaimable until the end of the
// pass.
func (e *elementBase) deactivateChild(child Element) {
	child.base().parent = nil
	child.detachRenderNode()
	if e.owner != nil {
		e.owner.inactive.add(child)
	}
}

// inflateWidget creates and mounts a new element for the widget. If the
// widget carries a global key whose currently registered element is
// compatible, that element is detached from its old parent and reactivated
// here instead, preserving its state.
func (e *elementBase) inflateWidget(newWidget Widget, newSlot any) Element {
	if key, ok := keyOf(newWidget).(GlobalKey); ok {
		if reclaimed := e.retakeInactiveElement(key, newWidget); reclaimed != nil {
			reclaimed.base().activateWithParent(e.self, newSlot)
			updated := e.updateChild(reclaimed, newWidget, newSlot)
			if updated != reclaimed {
				panic(internalInconsistency("core.inflateWidget",
					"reclaimed global-key element was not reusable after activation", e.self))
			}
			return updated
		}
	}
	element := newWidget.CreateElement()
	element.base().widget = newWidget
	if key, ok := keyOf(newWidget).(GlobalKey); ok && DebugMode && e.owner != nil {
		e.owner.debugReserveGlobalKey(key, e.self, element)
	}
	element.Mount(e.self, newSlot)
	return element
}

// retakeInactiveElement reclaims the element currently registered for the
// global key, detaching it from its old parent if it still has one. Returns
// nil when no compatible element is registered.
func (e *elementBase) retakeInactiveElement(key GlobalKey, newWidget Widget) Element {
	if e.owner == nil {
		return nil
	}
	element := e.owner.CurrentElement(key)
	if element == nil {
		return nil
	}
	if !canUpdateWidget(element.Widget(), newWidget) {
		return nil
	}
	if parent := element.Parent(); parent != nil {
		if parent == e.self {
			panic(contractViolation("core.inflateWidget",
				fmt.Sprintf("duplicate global key %v within one child list", key), e.self))
		}
		parent.forgetChild(element)
		parent.base().deactivateChild(element)
	}
	e.owner.inactive.remove(element)
	return element
}

// activateWithParent re-links a reclaimed subtree under a new parent:
// depths are refreshed, every element in the subtree is reactivated
// (parent first), and the render subtree is reattached at the new slot.
func (e *elementBase) activateWithParent(parent Element, newSlot any) {
	e.parent = parent
	e.owner = parent.Owner()
	updateDepth(e.self, parent.Depth())
	activateRecursively(e.self)
	e.self.attachRenderNode(newSlot)
}

func activateRecursively(element Element) {
	element.activate()
	element.VisitChildren(func(child Element) bool {
		activateRecursively(child)
		return true
	})
}

// updateDepth raises depths below a new, deeper mount point. Depths only
// grow within a pass, which keeps the dirty-list ordering stable.
func updateDepth(element Element, parentDepth int) {
	b := element.base()
	expected := parentDepth + 1
	if b.depth < expected {
		b.depth = expected
		element.VisitChildren(func(child Element) bool {
			updateDepth(child, b.depth)
			return true
		})
	}
}

// updateSlotForChild pushes a new slot down to the nearest render-backed
// descendants, which are the elements that actually occupy slots in the
// backing tree.
func updateSlotForChild(child Element, newSlot any) {
	var visit func(element Element)
	visit = func(element Element) {
		element.updateSlot(newSlot)
		if _, isRenderElement := element.(*RenderNodeElement); !isRenderElement {
			element.VisitChildren(func(c Element) bool {
				visit(c)
				return true
			})
		}
	}
	visit(child)
}

// DependOnInherited registers a dependency on the nearest inherited widget of
// the given type. Lookup is O(1) through the cached provider snapshot.
func (e *elementBase) DependOnInherited(inheritedType reflect.Type, aspect any) any {
	provider := e.inheritedProvider(inheritedType)
	if provider == nil {
		return nil
	}
	e.dependOn(provider, aspect)
	return provider.Widget()
}

// DependOnInheritedWithAspects registers multiple aspects in a single call.
func (e *elementBase) DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any {
	provider := e.inheritedProvider(inheritedType)
	if provider == nil {
		return nil
	}
	if len(aspects) == 0 {
		e.dependOn(provider, nil)
	}
	for _, aspect := range aspects {
		e.dependOn(provider, aspect)
	}
	return provider.Widget()
}

func (e *elementBase) inheritedProvider(inheritedType reflect.Type) *InheritedElement {
	if e.inheritedElements == nil {
		return nil
	}
	return e.inheritedElements[normalizeInheritedType(inheritedType)]
}

func (e *elementBase) dependOn(provider *InheritedElement, aspect any) {
	if e.dependencies == nil {
		e.dependencies = mapset.NewThreadUnsafeSet[*InheritedElement]()
	}
	e.dependencies.Add(provider)
	provider.addDependent(e.self, aspect)
}

// normalizeInheritedType lets callers pass either the widget type or its
// pointer form.
func normalizeInheritedType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// FindAncestor returns the nearest ancestor satisfying the predicate.
func (e *elementBase) FindAncestor(predicate func(Element) bool) Element {
	for current := e.parent; current != nil; current = current.Parent() {
		if predicate(current) {
			return current
		}
	}
	return nil
}

// findRenderParent walks up to the nearest ancestor that owns a render node.
func (e *elementBase) findRenderParent() *RenderNodeElement {
	for current := e.parent; current != nil; current = current.Parent() {
		if renderElement, ok := current.(*RenderNodeElement); ok {
			return renderElement
		}
	}
	return nil
}

// keyOf tolerates nil widgets.
func keyOf(widget Widget) Key {
	if widget == nil {
		return nil
	}
	return widget.Key()
}

// slotsEqual compares two slot tokens, guarding against non-comparable slots.
func slotsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// MountRoot inflates a widget as the root of a tree owned by owner.
// The root element has depth 1 and no parent.
func MountRoot(owner *BuildOwner, widget Widget) Element {
	element := widget.CreateElement()
	element.base().widget = widget
	element.base().owner = owner
	element.Mount(nil, nil)
	return element
}

// RenderNodeOf returns the render node backing the element: its own node for
// a render-backed element, otherwise the node of its first render-backed
// descendant. Returns nil when the subtree has no backing node.
func RenderNodeOf(element Element) render.Node {
	if element == nil {
		return nil
	}
	if renderElement, ok := element.(*RenderNodeElement); ok {
		return renderElement.RenderNode()
	}
	var node render.Node
	element.VisitChildren(func(child Element) bool {
		node = RenderNodeOf(child)
		return node == nil
	})
	return node
}

// describeElementChain renders an element's ancestry, innermost first, for
// diagnostics.
func describeElementChain(element Element) string {
	const maxLinks = 12
	var parts []string
	for current := element; current != nil; current = current.Parent() {
		parts = append(parts, fmt.Sprintf("%T", current.Widget()))
		if len(parts) == maxLinks {
			parts = append(parts, "...")
			break
		}
	}
	return strings.Join(parts, " <- ")
}

// contractViolation reports a programming-contract violation and returns the
// error for the caller to panic with; the panic unwinds to the nearest build
// scope boundary.
func contractViolation(op, description string, element Element) *errors.ContractError {
	err := &errors.ContractError{
		Op:          op,
		Description: description,
		StackTrace:  errors.CaptureStack(),
	}
	if element != nil {
		err.Chain = describeElementChain(element)
	}
	errors.ReportContractError(err)
	return err
}

// internalInconsistency reports a broken reconciler invariant and returns the
// error for the caller to panic with.
func internalInconsistency(op, description string, element Element) *errors.ConsistencyError {
	err := &errors.ConsistencyError{
		Op:          op,
		Description: description,
		StackTrace:  errors.CaptureStack(),
	}
	if element != nil {
		err.Chains = []string{describeElementChain(element)}
	}
	errors.ReportConsistencyError(err)
	return err
}
