package core

import (
	"testing"

	"github.com/go-drift/fern/pkg/render"

	fernerrors "github.com/go-drift/fern/pkg/errors"
)

func TestBuildScopeDrainsInDepthOrder(t *testing.T) {
	order := []string{}
	inner := wrapper{Child: leaf{Label: "x"}, OnBuild: func(ctx BuildContext) {
		order = append(order, "inner")
	}}
	outer := wrapper{Child: box{Content: inner}, OnBuild: func(ctx BuildContext) {
		order = append(order, "outer")
	}}
	owner, root := mountTree(t, outer)
	order = order[:0]

	var innerElement Element
	root.VisitChildren(func(e Element) bool {
		innerElement = findElement(e, func(candidate Element) bool {
			w, ok := candidate.Widget().(wrapper)
			return ok && candidate != root && w.OnBuild != nil
		})
		return false
	})
	if innerElement == nil {
		t.Fatal("inner wrapper element not found")
	}

	// dirty the child first, then the parent; depth order must win
	innerElement.MarkNeedsBuild()
	root.MarkNeedsBuild()
	pump(t, owner, root)

	if len(order) < 2 || order[0] != "outer" {
		t.Errorf("build order = %v, want outer first", order)
	}
}

func TestBuildScopeReentrancyFails(t *testing.T) {
	owner, root := mountTree(t, wrapper{Child: leaf{Label: "x"}})

	var nested error
	err := owner.BuildScope(root, func() {
		nested = owner.BuildScope(root, nil)
	})
	if err != nil {
		t.Fatalf("outer scope failed: %v", err)
	}
	if _, ok := nested.(*fernerrors.ContractError); !ok {
		t.Errorf("nested BuildScope error = %v, want contract error", nested)
	}
}

type restless struct {
	StatefulBase
}

func (w restless) CreateState() State { return &restlessState{} }

type restlessState struct {
	StateBase
	builds int
	kicked bool
}

func (s *restlessState) Build(ctx BuildContext) Widget {
	s.builds++
	if !s.kicked {
		s.kicked = true
		s.SetState(nil)
	}
	return leaf{Label: "restless"}
}

func TestBuildMarkingItselfConverges(t *testing.T) {
	owner, root := mountTree(t, box{Content: restless{}})
	state := findElement(root, func(e Element) bool {
		_, ok := e.(*StatefulElement)
		return ok
	}).(*StatefulElement).State().(*restlessState)

	if state.builds != 2 {
		t.Errorf("builds = %d, want 2 (initial build plus one self-scheduled)", state.builds)
	}
	if owner.NeedsWork() {
		t.Error("owner should be idle after convergence")
	}
}

func TestMarkingOutsideBuildTargetFails(t *testing.T) {
	var sibling Element
	probes := panel{Items: []Widget{
		wrapper{Child: leaf{Label: "a"}, OnBuild: func(ctx BuildContext) {
			if sibling != nil {
				sibling.MarkNeedsBuild()
			}
		}},
		wrapper{Child: leaf{Label: "b"}},
	}}
	owner, root := mountTree(t, probes)

	var marker Element
	root.VisitChildren(func(e Element) bool {
		marker = e
		return false
	})
	sibling = findElement(root, func(e Element) bool {
		w, ok := e.Widget().(wrapper)
		return ok && w.OnBuild == nil
	})
	if marker == nil || sibling == nil {
		t.Fatal("fixture elements not found")
	}

	marker.MarkNeedsBuild()
	err := owner.BuildScope(root, nil)
	if _, ok := err.(*fernerrors.ContractError); !ok {
		t.Errorf("BuildScope error = %v, want contract error for cross-subtree marking", err)
	}
}

func TestLockStateRejectsMarking(t *testing.T) {
	owner, root := mountTree(t, wrapper{Child: leaf{Label: "x"}})

	defer func() {
		if _, ok := recover().(*fernerrors.ContractError); !ok {
			t.Error("MarkNeedsBuild under LockState should panic with a contract error")
		}
	}()
	owner.LockState(func() {
		root.MarkNeedsBuild()
	})
}

func TestOnNeedsFrameFiresOncePerIdlePeriod(t *testing.T) {
	frames := 0
	owner, root := mountTree(t, box{Content: counter{Start: 0}})
	owner.OnNeedsFrame = func() { frames++ }
	state := stateOf(t, root)

	state.increment()
	state.increment()
	if frames != 1 {
		t.Fatalf("frames = %d, want 1 after coalesced marks", frames)
	}

	pump(t, owner, root)
	state.increment()
	if frames != 2 {
		t.Errorf("frames = %d, want 2 after a new idle period", frames)
	}
	pump(t, owner, root)
}

func TestGlobalKeyReparentingPreservesState(t *testing.T) {
	key := NewGlobalKey("mover")
	item := counter{StatefulBase: StatefulBase{KeyValue: key}, Start: 40}

	owner, root := mountTree(t, panel{Items: []Widget{box{Content: item}, box{}}})
	state := stateOf(t, root)
	state.increment()
	pump(t, owner, root)

	// move the keyed subtree from the first box to the second
	updateRoot(t, owner, root, panel{Items: []Widget{box{}, box{Content: item}}})

	if stateOf(t, root) != state {
		t.Fatal("reparenting lost the state object")
	}
	if got := labelsOf(root); !equalStrings(got, []string{"count:41"}) {
		t.Errorf("labels = %v, want [count:41]", got)
	}

	// and back to the front, which retakes from a still-active parent
	updateRoot(t, owner, root, panel{Items: []Widget{box{Content: item}, box{}}})
	if stateOf(t, root) != state {
		t.Fatal("second reparenting lost the state object")
	}
	if got := labelsOf(root); !equalStrings(got, []string{"count:41"}) {
		t.Errorf("labels after second move = %v, want [count:41]", got)
	}
}

func TestGlobalKeyRegistryTracksLifetime(t *testing.T) {
	key := NewGlobalKey("tracked")
	owner, root := mountTree(t, box{Content: keyedLeaf(key, "x")})

	element := owner.CurrentElement(key)
	if element == nil {
		t.Fatal("key not registered after mount")
	}
	updateRoot(t, owner, root, box{Content: nil})
	if owner.CurrentElement(key) != nil {
		t.Error("key still registered after unmount")
	}
	if element.Lifecycle() != LifecycleDefunct {
		t.Errorf("old element lifecycle = %v, want defunct", element.Lifecycle())
	}
}

func TestDuplicateGlobalKeyDetectedAtFinalize(t *testing.T) {
	key := NewGlobalKey("dup")
	owner := NewBuildOwner(render.NewHost())

	// two active elements of different widget types claim the same key, so
	// the second registration displaces the first without reclaiming it
	root := MountRoot(owner, panel{Items: []Widget{
		box{Content: keyedLeaf(key, "first")},
		box{Content: counter{StatefulBase: StatefulBase{KeyValue: key}}},
	}})
	if err := owner.BuildScope(root, nil); err != nil {
		t.Fatalf("BuildScope: %v", err)
	}

	err := owner.FinalizeTree()
	if _, ok := err.(*fernerrors.ConsistencyError); !ok {
		t.Fatalf("FinalizeTree error = %v, want consistency error", err)
	}
}

func TestDuplicateGlobalKeyInOneChildListPanics(t *testing.T) {
	key := NewGlobalKey("twin")
	owner := NewBuildOwner(render.NewHost())

	defer func() {
		if _, ok := recover().(*fernerrors.ContractError); !ok {
			t.Error("same key twice in one child list should panic with a contract error")
		}
	}()
	MountRoot(owner, panel{Items: []Widget{
		keyedLeaf(key, "a"),
		keyedLeaf(key, "b"),
	}})
}

func TestKeyFreedAndReclaimedInOnePassIsNotADuplicate(t *testing.T) {
	key := NewGlobalKey("recycled")
	owner, root := mountTree(t, box{Content: box{Content: keyedLeaf(key, "x")}})

	// the keyed leaf moves one level up; its old position disappears in the
	// same pass, so the displaced registration must not be flagged
	updateRoot(t, owner, root, box{Content: keyedLeaf(key, "x")})

	if got := labelsOf(root); !equalStrings(got, []string{"x"}) {
		t.Errorf("labels = %v, want [x]", got)
	}
}
