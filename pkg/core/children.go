package core

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// IndexedSlot positions a child inside a multi-child render element. Index is
// the ordering token; PreviousSibling lets the backing tree splice the child
// in after its predecessor without touching unrelated siblings.
type IndexedSlot struct {
	Index           int
	PreviousSibling Element
}

// updateChildren reconciles an ordered child list against new widgets in six
// phases:
//
//  1. sync from the front while old and new are pairwise compatible;
//  2. scan from the back similarly, without syncing yet;
//  3. index the remaining old middle range by key, deactivating non-keyed
//     leftovers immediately;
//  4. walk the remaining new middle range forward, matching keyed widgets
//     against the index and fresh-inflating the rest;
//  5. sync the trailing segment collected in phase 2, in forward order;
//  6. deactivate old keyed entries never claimed.
//
// The result preserves the new list's order; every surviving element's slot
// is refreshed with its index and previous sibling. The common stable
// prefix/suffix case is O(n) with O(1) amortized keyed lookup in the middle.
//
// Children present in forgottenChildren are treated as gone already: they
// were claimed by another parent via a global key and must be neither synced
// nor deactivated here.
func (e *elementBase) updateChildren(oldChildren []Element, newWidgets []Widget, forgottenChildren mapset.Set[Element]) []Element {
	replaceWithNilIfForgotten := func(child Element) Element {
		if child != nil && forgottenChildren != nil && forgottenChildren.Contains(child) {
			return nil
		}
		return child
	}

	newChildrenTop := 0
	oldChildrenTop := 0
	newChildrenBottom := len(newWidgets) - 1
	oldChildrenBottom := len(oldChildren) - 1

	newChildren := make([]Element, len(newWidgets))
	var previousChild Element

	// Phase 1: sync the stable prefix.
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := replaceWithNilIfForgotten(oldChildren[oldChildrenTop])
		newWidget := newWidgets[newChildrenTop]
		if oldChild == nil || !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		newChild := e.updateChild(oldChild, newWidget, IndexedSlot{Index: newChildrenTop, PreviousSibling: previousChild})
		newChildren[newChildrenTop] = newChild
		previousChild = newChild
		newChildrenTop++
		oldChildrenTop++
	}

	// Phase 2: scan the stable suffix without syncing yet; it is synced in
	// forward order after the middle range settles.
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := replaceWithNilIfForgotten(oldChildren[oldChildrenBottom])
		newWidget := newWidgets[newChildrenBottom]
		if oldChild == nil || !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		oldChildrenBottom--
		newChildrenBottom--
	}

	// Phase 3: index the old middle range by key.
	var oldKeyedChildren map[Key]Element
	if oldChildrenTop <= oldChildrenBottom {
		oldKeyedChildren = make(map[Key]Element)
		for oldChildrenTop <= oldChildrenBottom {
			oldChild := replaceWithNilIfForgotten(oldChildren[oldChildrenTop])
			if oldChild != nil {
				key := keyOf(oldChild.Widget())
				if key != nil && isComparable(key) {
					oldKeyedChildren[key] = oldChild
				} else {
					e.deactivateChild(oldChild)
				}
			}
			oldChildrenTop++
		}
	}

	// Phase 4: walk the new middle range, reusing keyed matches.
	for newChildrenTop <= newChildrenBottom {
		var oldChild Element
		newWidget := newWidgets[newChildrenTop]
		if oldKeyedChildren != nil {
			if key := keyOf(newWidget); key != nil && isComparable(key) {
				if candidate, ok := oldKeyedChildren[key]; ok {
					if canUpdateWidget(candidate.Widget(), newWidget) {
						oldChild = candidate
						delete(oldKeyedChildren, key)
					}
				}
			}
		}
		newChild := e.updateChild(oldChild, newWidget, IndexedSlot{Index: newChildrenTop, PreviousSibling: previousChild})
		newChildren[newChildrenTop] = newChild
		previousChild = newChild
		newChildrenTop++
	}

	// Phase 5: sync the suffix in forward order.
	newChildrenBottom = len(newWidgets) - 1
	oldChildrenBottom = len(oldChildren) - 1
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := oldChildren[oldChildrenTop]
		newWidget := newWidgets[newChildrenTop]
		newChild := e.updateChild(oldChild, newWidget, IndexedSlot{Index: newChildrenTop, PreviousSibling: previousChild})
		newChildren[newChildrenTop] = newChild
		previousChild = newChild
		newChildrenTop++
		oldChildrenTop++
	}

	// Phase 6: deactivate keyed leftovers never claimed.
	for _, oldChild := range oldKeyedChildren {
		if forgottenChildren == nil || !forgottenChildren.Contains(oldChild) {
			e.deactivateChild(oldChild)
		}
	}

	return newChildren
}
