package core

import (
	"fmt"
	"testing"
)

func TestStateLifecycleOrdering(t *testing.T) {
	log := []string{}
	owner, root := mountTree(t, box{Content: counter{Start: 1, Log: &log}})

	if !equalStrings(log, []string{"init", "deps"}) {
		t.Fatalf("after mount: log = %v, want [init deps]", log)
	}

	updateRoot(t, owner, root, box{Content: counter{Start: 2, Log: &log}})
	if !equalStrings(log, []string{"init", "deps", "update(1->2)"}) {
		t.Fatalf("after update: log = %v", log)
	}

	updateRoot(t, owner, root, box{Content: leaf{Label: "gone"}})
	if log[len(log)-1] != "dispose" {
		t.Fatalf("after removal: log = %v, want dispose last", log)
	}
}

func TestStateSurvivesWidgetUpdate(t *testing.T) {
	owner, root := mountTree(t, counter{Start: 5})
	state := stateOf(t, root)
	state.increment()
	pump(t, owner, root)

	updateRoot(t, owner, root, counter{Start: 99})

	if stateOf(t, root) != state {
		t.Fatal("state object should survive a compatible widget update")
	}
	// DidUpdateWidget does not reset the mutated value
	if got := labelsOf(root); !equalStrings(got, []string{"count:6"}) {
		t.Errorf("labels = %v, want [count:6]", got)
	}
}

func TestSetStateSchedulesExactlyOneRebuild(t *testing.T) {
	owner, root := mountTree(t, counter{Start: 0})
	state := stateOf(t, root)
	builds := state.builds

	state.increment()
	state.increment()
	if owner.DirtyCount() != 1 {
		t.Errorf("dirty count = %d, want 1 after coalesced SetState", owner.DirtyCount())
	}
	pump(t, owner, root)

	if state.builds != builds+1 {
		t.Errorf("builds = %d, want %d", state.builds, builds+1)
	}
	if got := labelsOf(root); !equalStrings(got, []string{"count:2"}) {
		t.Errorf("labels = %v, want [count:2]", got)
	}
}

func TestSetStateAfterDisposePanics(t *testing.T) {
	owner, root := mountTree(t, box{Content: counter{Start: 0}})
	state := stateOf(t, root)
	updateRoot(t, owner, root, box{Content: nil})

	defer func() {
		if recover() == nil {
			t.Error("SetState after dispose should panic")
		}
	}()
	state.SetState(func() {})
}

func TestMountedReflectsLifecycle(t *testing.T) {
	owner, root := mountTree(t, box{Content: counter{Start: 0}})
	state := stateOf(t, root)
	if !state.Mounted() {
		t.Error("state should be mounted after tree mount")
	}
	updateRoot(t, owner, root, box{Content: nil})
	if state.Mounted() {
		t.Error("state should not be mounted after removal")
	}
}

func TestStateLifecycleStates(t *testing.T) {
	owner, root := mountTree(t, box{Content: counter{Start: 0}})
	element := findElement(root, func(e Element) bool {
		_, ok := e.(*StatefulElement)
		return ok
	}).(*StatefulElement)

	if got := element.StateLifecycleState(); got != StateReady {
		t.Errorf("state lifecycle = %v, want ready", got)
	}
	updateRoot(t, owner, root, box{Content: nil})
	if got := element.StateLifecycleState(); got != StateDefunct {
		t.Errorf("state lifecycle after unmount = %v, want defunct", got)
	}
}

type resource struct {
	closed bool
}

func (r *resource) Dispose() { r.closed = true }

type resourceHolder struct {
	StatefulBase
}

func (w resourceHolder) CreateState() State { return &resourceHolderState{} }

type resourceHolderState struct {
	StateBase
	controller *resource
	lazy       Managed[*resource]
}

func (s *resourceHolderState) InitState() {
	s.controller = UseController(&s.StateBase, func() *resource { return &resource{} })
}

func (s *resourceHolderState) Build(ctx BuildContext) Widget {
	s.lazy.Get(&s.StateBase, func() *resource { return &resource{} })
	return leaf{Label: "holder"}
}

func TestControllersDisposedWithState(t *testing.T) {
	owner, root := mountTree(t, box{Content: resourceHolder{}})
	element := findElement(root, func(e Element) bool {
		_, ok := e.(*StatefulElement)
		return ok
	}).(*StatefulElement)
	state := element.State().(*resourceHolderState)

	if state.controller.closed {
		t.Fatal("controller disposed while state is live")
	}
	if !state.lazy.Ok() {
		t.Fatal("managed value should be created by the first build")
	}
	lazy := state.lazy.Get(&state.StateBase, nil)

	updateRoot(t, owner, root, box{Content: nil})

	if !state.controller.closed {
		t.Error("controller should be disposed with the state")
	}
	if !lazy.closed {
		t.Error("managed value should be disposed with the state")
	}
	if !state.IsDisposed() {
		t.Error("state should report disposed")
	}
}

type inlineState struct {
	StateBase
	value int
}

func (s *inlineState) Build(ctx BuildContext) Widget {
	return leaf{Label: fmt.Sprintf("count:%d", s.value)}
}

func TestInlineStatefulWidget(t *testing.T) {
	widget := Stateful[*inlineState]{
		NewState: func() *inlineState { return &inlineState{value: 7} },
	}
	_, root := mountTree(t, box{Content: widget})
	if got := labelsOf(root); !equalStrings(got, []string{"count:7"}) {
		t.Errorf("labels = %v, want [count:7]", got)
	}
}
