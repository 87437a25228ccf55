package core

import (
	"reflect"
	"time"

	"github.com/go-drift/fern/pkg/errors"
)

// componentElement is the shared machinery for elements whose widget builds a
// single child widget (stateless, stateful, proxy). It owns the build
// protocol: mark clean first, run the build with panic recovery, then
// reconcile the produced child, substituting a diagnostic stand-in when the
// build fails, and treating a failure to reconcile the stand-in as fatal for
// the enclosing build scope.
type componentElement struct {
	elementBase
	child Element
}

func (e *componentElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

func (e *componentElement) forgetChild(child Element) {
	if e.child == child {
		e.child = nil
	}
}

func (e *componentElement) unmount() {
	e.child = nil
	e.elementBase.unmount()
}

// rebuildWith marks the element clean before reconciling, so a build that
// re-dirties this element is distinguishable from the dirt being processed
// now, then reconciles the built child.
func (e *componentElement) rebuildWith(build func() Widget) {
	e.dirty = false
	built := e.safeBuild(build)

	func() {
		defer func() {
			if r := recover(); r != nil {
				rethrowFatal(r)
				buildErr := e.recoveredBuildError("reconcile", r)
				errors.ReportBuildError(buildErr)
				// The panic may have left the old child mid-update. Park it
				// in the inactive set so its render node detaches now and
				// its state is disposed at finalize.
				if e.child != nil && e.child.Lifecycle() == LifecycleActive {
					e.deactivateChild(e.child)
				}
				e.child = nil
				// Reconcile the stand-in unguarded: if this fails too the
				// panic aborts the enclosing build scope.
				e.child = e.updateChild(nil, standInFor(buildErr), e.slot)
			}
		}()
		e.child = e.updateChild(e.child, built, e.slot)
	}()
}

// safeBuild executes a build function with panic recovery. A failed build is
// reported and replaced by the configured stand-in widget. Contract and
// consistency panics are not build failures and continue unwinding.
func (e *componentElement) safeBuild(build func() Widget) Widget {
	var built Widget
	var buildErr *errors.BuildError

	func() {
		defer func() {
			if r := recover(); r != nil {
				rethrowFatal(r)
				buildErr = e.recoveredBuildError("build", r)
			}
		}()
		built = build()
	}()

	if buildErr != nil {
		errors.ReportBuildError(buildErr)
		return standInFor(buildErr)
	}
	return built
}

func (e *componentElement) recoveredBuildError(phase string, recovered any) *errors.BuildError {
	return &errors.BuildError{
		Widget:     reflect.TypeOf(e.widget).String(),
		Element:    reflect.TypeOf(e.self).String(),
		Phase:      phase,
		Recovered:  recovered,
		StackTrace: errors.CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// rethrowFatal re-panics contract and consistency errors: they must unwind
// to the build-scope boundary rather than be swallowed by substitution.
func rethrowFatal(recovered any) {
	switch recovered.(type) {
	case *errors.ContractError, *errors.ConsistencyError:
		panic(recovered)
	}
}

// StatelessElement hosts a StatelessWidget.
type StatelessElement struct {
	componentElement
}

// NewStatelessElement creates a StatelessElement. The widget and owner are
// assigned by the framework during inflation.
func NewStatelessElement() *StatelessElement {
	element := &StatelessElement{}
	element.setSelf(element)
	return element
}

func (e *StatelessElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)
	e.dirty = true
	e.performRebuild()
}

func (e *StatelessElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.dirty = true
	e.performRebuild()
}

func (e *StatelessElement) performRebuild() {
	e.rebuildWith(func() Widget {
		return e.widget.(StatelessWidget).Build(e)
	})
}

// StatefulElement hosts a StatefulWidget and its State. The state object is
// created at mount and survives every compatible widget update; it is
// disposed exactly once, during unmount.
type StatefulElement struct {
	componentElement
	state          State
	stateLifecycle StateLifecycle
	// didChangeDependenciesPending defers the state callback to the next
	// rebuild so one pass delivers it at most once before building.
	didChangeDependenciesPending bool
}

// NewStatefulElement creates a StatefulElement. The widget and owner are
// assigned by the framework during inflation.
func NewStatefulElement() *StatefulElement {
	element := &StatefulElement{}
	element.setSelf(element)
	return element
}

// stateElementSetter is how the framework hands the element to a State.
// StateBase implements it; custom State types may too.
type stateElementSetter interface {
	SetElement(element *StatefulElement)
}

func (e *StatefulElement) Mount(parent Element, slot any) {
	e.mountBase(parent, slot)
	widget := e.widget.(StatefulWidget)
	e.state = widget.CreateState()
	e.stateLifecycle = StateCreated
	if setter, ok := e.state.(stateElementSetter); ok {
		setter.SetElement(e)
	}
	e.state.InitState()
	e.stateLifecycle = StateInitialized
	e.state.DidChangeDependencies()
	e.stateLifecycle = StateReady
	e.dirty = true
	e.performRebuild()
}

func (e *StatefulElement) Update(newWidget Widget) {
	oldWidget := e.widget.(StatefulWidget)
	e.widget = newWidget
	e.state.DidUpdateWidget(oldWidget)
	e.dirty = true
	e.performRebuild()
}

func (e *StatefulElement) performRebuild() {
	if e.didChangeDependenciesPending {
		e.didChangeDependenciesPending = false
		e.state.DidChangeDependencies()
	}
	e.rebuildWith(func() Widget {
		return e.state.Build(e)
	})
}

func (e *StatefulElement) didChangeDependencies() {
	e.didChangeDependenciesPending = true
	e.MarkNeedsBuild()
}

func (e *StatefulElement) activate() {
	e.elementBase.activate()
	// A reclaimed stateful subtree rebuilds unconditionally: its state may
	// have changed while parked.
	e.MarkNeedsBuild()
}

func (e *StatefulElement) unmount() {
	if e.state != nil {
		e.state.Dispose()
		e.stateLifecycle = StateDefunct
		if setter, ok := e.state.(stateElementSetter); ok {
			setter.SetElement(nil)
		}
		e.state = nil
	}
	e.child = nil
	e.elementBase.unmount()
}

// State returns the attached state object, nil after unmount.
func (e *StatefulElement) State() State {
	return e.state
}

// StateLifecycleState returns the state object's sub-lifecycle.
func (e *StatefulElement) StateLifecycleState() StateLifecycle {
	return e.stateLifecycle
}
