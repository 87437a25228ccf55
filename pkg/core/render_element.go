package core

import (
	"reflect"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/fern/pkg/errors"
	"github.com/go-drift/fern/pkg/render"
)

// RenderNodeElement hosts a RenderNodeWidget and the backing render node it
// manages. It is the element kind that actually occupies a slot in the
// backing tree: composite ancestors delegate attachment, detachment, and
// slot movement down to their nearest render-backed descendants.
type RenderNodeElement struct {
	elementBase
	node         render.Node
	children     []Element
	renderParent *RenderNodeElement
	// forgotten holds children claimed by other parents via global keys
	// since the last rebuild; updateChildren treats them as already gone.
	forgotten mapset.Set[Element]
}

// NewRenderNodeElement creates a RenderNodeElement. The widget and owner are
// assigned by the framework during inflation.
func NewRenderNodeElement() *RenderNodeElement {
	element := &RenderNodeElement{}
	element.setSelf(element)
	return element
}

// RenderNode exposes the backing node for this element.
func (e *RenderNodeElement) RenderNode() render.Node {
	return e.node
}

func (e *RenderNodeElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)
	widget := e.widget.(RenderNodeWidget)
	e.node = widget.CreateRenderNode(e)
	// The node joins the backing tree before children build into it.
	e.attachRenderNode(slot)
	e.dirty = true
	e.performRebuild()
}

func (e *RenderNodeElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.dirty = true
	e.performRebuild()
}

func (e *RenderNodeElement) performRebuild() {
	e.dirty = false

	widget := e.widget.(RenderNodeWidget)
	e.applyToNode(widget)

	switch typed := e.widget.(type) {
	case interface{ Child() Widget }:
		var child Element
		if len(e.children) > 0 {
			child = e.children[0]
			if e.forgotten != nil && e.forgotten.Contains(child) {
				e.forgotten.Remove(child)
				child = nil
			}
		}
		child = e.updateChild(child, typed.Child(), nil)
		if child != nil {
			e.children = []Element{child}
		} else {
			e.children = nil
		}

	case interface{ Children() []Widget }:
		e.children = e.updateChildren(e.children, typed.Children(), e.forgotten)
		if e.forgotten != nil {
			e.forgotten.Clear()
		}
	}
}

// applyToNode runs the widget's UpdateRenderNode with panic recovery: a
// failing update callback is reported and contained like a build failure,
// leaving the node with its previous configuration.
func (e *RenderNodeElement) applyToNode(widget RenderNodeWidget) {
	defer func() {
		if r := recover(); r != nil {
			rethrowFatal(r)
			errors.ReportBuildError(&errors.BuildError{
				Widget:     reflect.TypeOf(e.widget).String(),
				Element:    reflect.TypeOf(e.self).String(),
				Phase:      "update-render",
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	widget.UpdateRenderNode(e, e.node)
}

func (e *RenderNodeElement) VisitChildren(visitor func(Element) bool) {
	for _, child := range e.children {
		if e.forgotten != nil && e.forgotten.Contains(child) {
			continue
		}
		if !visitor(child) {
			return
		}
	}
}

func (e *RenderNodeElement) forgetChild(child Element) {
	if e.forgotten == nil {
		e.forgotten = mapset.NewThreadUnsafeSet[Element]()
	}
	e.forgotten.Add(child)
}

func (e *RenderNodeElement) unmount() {
	e.children = nil
	e.forgotten = nil
	e.node = nil
	e.elementBase.unmount()
}

// updateSlot also moves the backing node under its render parent.
func (e *RenderNodeElement) updateSlot(newSlot any) {
	e.slot = newSlot
	if e.renderParent != nil {
		e.renderParent.moveRenderNodeChild(e.node, newSlot)
	}
}

// attachRenderNode inserts this element's node under the nearest
// render-backed ancestor, or attaches it to the owner's host when this is
// the render root. The walk stops here: descendants' nodes live inside this
// node.
func (e *RenderNodeElement) attachRenderNode(slot any) {
	e.slot = slot
	e.renderParent = e.findRenderParent()
	if e.renderParent != nil {
		e.renderParent.insertRenderNodeChild(e.node, slot)
	} else if e.owner != nil && e.node != nil {
		e.node.Attach(e.owner.Host())
	}
}

// detachRenderNode removes this element's node from the backing tree without
// destroying it, so a reclaimed subtree can reattach.
func (e *RenderNodeElement) detachRenderNode() {
	if e.renderParent != nil {
		e.renderParent.removeRenderNodeChild(e.node)
		e.renderParent = nil
	} else if e.node != nil && e.node.Attached() {
		e.node.Detach()
	}
	e.slot = nil
}

// insertRenderNodeChild adds a child node at the given slot.
func (e *RenderNodeElement) insertRenderNodeChild(child render.Node, slot any) {
	if child == nil || e.node == nil {
		return
	}
	child.SetParent(e.node)
	if single, ok := e.node.(render.SingleChildContainer); ok {
		single.SetChild(child)
		return
	}
	if multi, ok := e.node.(render.MultiChildContainer); ok {
		multi.InsertChildAfter(child, previousSiblingNode(slot))
	}
}

// moveRenderNodeChild repositions a child node after a slot change, using
// the slot's previous-sibling reference for linked-list-style reinsertion.
func (e *RenderNodeElement) moveRenderNodeChild(child render.Node, newSlot any) {
	if child == nil || e.node == nil {
		return
	}
	if multi, ok := e.node.(render.MultiChildContainer); ok {
		multi.MoveChildAfter(child, previousSiblingNode(newSlot))
	}
}

// removeRenderNodeChild removes a child node.
func (e *RenderNodeElement) removeRenderNodeChild(child render.Node) {
	if child == nil || e.node == nil {
		return
	}
	if single, ok := e.node.(render.SingleChildContainer); ok {
		single.SetChild(nil)
		child.SetParent(nil)
		if child.Attached() {
			child.Detach()
		}
		return
	}
	if multi, ok := e.node.(render.MultiChildContainer); ok {
		multi.RemoveChild(child)
	}
	child.SetParent(nil)
}

// previousSiblingNode resolves the render node of the slot's previous
// sibling element, nil for a front insertion.
func previousSiblingNode(slot any) render.Node {
	indexed, ok := slot.(IndexedSlot)
	if !ok || indexed.PreviousSibling == nil {
		return nil
	}
	return RenderNodeOf(indexed.PreviousSibling)
}
