package core

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// ProxyElement hosts a ProxyWidget: build returns the stored child widget
// verbatim. On update, the overridable notifyClients hook runs after the new
// widget is swapped in but before the child is rebuilt.
type ProxyElement struct {
	componentElement
}

// NewProxyElement creates a ProxyElement. The widget and owner are assigned
// by the framework during inflation.
func NewProxyElement() *ProxyElement {
	element := &ProxyElement{}
	element.setSelf(element)
	return element
}

// clientNotifier is the update hook a proxy subtype can override to react to
// configuration changes before its child rebuilds.
type clientNotifier interface {
	notifyClients(oldWidget ProxyWidget)
}

func (e *ProxyElement) notifyClients(oldWidget ProxyWidget) {}

func (e *ProxyElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)
	e.dirty = true
	e.performRebuild()
}

func (e *ProxyElement) Update(newWidget Widget) {
	oldWidget := e.widget.(ProxyWidget)
	e.widget = newWidget
	if notifier, ok := e.self.(clientNotifier); ok {
		notifier.notifyClients(oldWidget)
	}
	e.dirty = true
	e.performRebuild()
}

func (e *ProxyElement) performRebuild() {
	e.rebuildWith(func() Widget {
		return e.widget.(ProxyWidget).ChildWidget()
	})
}

// dependOnAllAspects is the sentinel recorded when a dependent registers
// without an aspect, meaning it depends on every change.
var dependOnAllAspects = &struct{}{}

// InheritedElement hosts an InheritedWidget and tracks which descendants
// depend on it. When the widget is replaced and UpdateShouldNotify returns
// true, every registered dependent's didChangeDependencies runs, which
// schedules the dependent for rebuild.
//
// Dependents register the first time they read the value through
// BuildContext.DependOnInherited, optionally with an aspect for granular
// filtering. Registrations are torn down automatically when a dependent
// deactivates, and rebuilt from scratch if it reactivates.
type InheritedElement struct {
	ProxyElement
	dependents map[Element]mapset.Set[any]
}

// NewInheritedElement creates an InheritedElement. The widget and owner are
// assigned by the framework during inflation.
func NewInheritedElement() *InheritedElement {
	element := &InheritedElement{
		dependents: make(map[Element]mapset.Set[any]),
	}
	element.setSelf(element)
	return element
}

// updateInheritance publishes this provider to descendants: the parent's
// snapshot is copied and the entry for this widget's type is overridden.
func (e *InheritedElement) updateInheritance() {
	var incoming map[reflect.Type]*InheritedElement
	if e.parent != nil {
		incoming = e.parent.base().inheritedElements
	}
	snapshot := make(map[reflect.Type]*InheritedElement, len(incoming)+1)
	for t, provider := range incoming {
		snapshot[t] = provider
	}
	snapshot[normalizeInheritedType(reflect.TypeOf(e.widget))] = e
	e.inheritedElements = snapshot
}

// notifyClients walks the dependents map when the provider-supplied
// UpdateShouldNotify predicate says the new configuration changed, applying
// per-dependent aspect filtering when the widget supports it.
func (e *InheritedElement) notifyClients(oldWidget ProxyWidget) {
	oldInherited := oldWidget.(InheritedWidget)
	newInherited := e.widget.(InheritedWidget)
	if !newInherited.UpdateShouldNotify(oldInherited) {
		return
	}

	aspectAware, hasAspects := newInherited.(AspectAwareInheritedWidget)
	for dependent, aspects := range e.dependents {
		if hasAspects && aspects != nil && !aspects.Contains(dependOnAllAspects) {
			if aspects.Cardinality() > 0 && !aspectAware.UpdateShouldNotifyDependent(oldInherited, aspects) {
				continue
			}
		}
		dependent.didChangeDependencies()
	}
}

// addDependent registers a dependent with an optional aspect. A nil aspect
// records the all-aspects sentinel.
func (e *InheritedElement) addDependent(dependent Element, aspect any) {
	if e.dependents == nil {
		e.dependents = make(map[Element]mapset.Set[any])
	}
	aspects := e.dependents[dependent]
	if aspects == nil {
		aspects = mapset.NewThreadUnsafeSet[any]()
		e.dependents[dependent] = aspects
	}
	if aspect != nil {
		aspects.Add(aspect)
	} else {
		aspects.Add(any(dependOnAllAspects))
	}
}

// removeDependent tears a dependent's registration down completely, so a
// reactivated dependent starts from a clean slate.
func (e *InheritedElement) removeDependent(dependent Element) {
	delete(e.dependents, dependent)
}

// DependentCount returns the number of registered dependents.
func (e *InheritedElement) DependentCount() int {
	return len(e.dependents)
}

// HasDependent reports whether the element is a registered dependent.
func (e *InheritedElement) HasDependent(dependent Element) bool {
	_, ok := e.dependents[dependent]
	return ok
}

func (e *InheritedElement) unmount() {
	e.dependents = nil
	e.ProxyElement.unmount()
}
