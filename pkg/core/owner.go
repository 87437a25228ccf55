package core

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/fern/pkg/errors"
	"github.com/go-drift/fern/pkg/render"
)

// BuildOwner coordinates the build pipeline for one element tree: it keeps
// the list of dirty elements, drains it in depth order inside BuildScope,
// parks deactivated subtrees until FinalizeTree either reclaims or unmounts
// them, and maintains the global key registry.
//
// A BuildOwner is confined to a single goroutine. All mutation of the tree it
// owns must happen on that goroutine.
type BuildOwner struct {
	// OnNeedsFrame is invoked at most once per idle period when the first
	// element is scheduled, so an embedder can arrange for a BuildScope call.
	OnNeedsFrame func()

	host *render.Host

	dirtyElements []Element
	// dirtyNeedsResort is raised when an element is scheduled mid-scope at a
	// position the in-progress sweep may already have passed.
	dirtyNeedsResort bool
	scopedBuilding   bool
	stateLocked      bool
	// currentBuildTarget is the element whose build callback is running;
	// MarkNeedsBuild from inside a build may only target it or a descendant.
	currentBuildTarget Element

	inactive inactiveElements

	globalKeys map[GlobalKey]Element
	// displaced records elements whose global key registration was taken over
	// during this pass. FinalizeTree flags the ones that stayed active, which
	// means two live widgets carried the same key.
	displaced map[GlobalKey]Element
	// reservations maps key → claiming parent while DebugMode is on, to catch
	// two parents inflating the same key inside one pass.
	reservations map[GlobalKey]Element
}

// NewBuildOwner creates an owner wired to the given render host. A nil host
// is allowed for trees that are never attached to a backing surface.
func NewBuildOwner(host *render.Host) *BuildOwner {
	return &BuildOwner{
		host:       host,
		inactive:   inactiveElements{elements: mapset.NewThreadUnsafeSet[Element]()},
		globalKeys: make(map[GlobalKey]Element),
	}
}

// Host returns the render host backing this owner's tree.
func (o *BuildOwner) Host() *render.Host { return o.host }

// NeedsWork reports whether a BuildScope or FinalizeTree call would do
// anything.
func (o *BuildOwner) NeedsWork() bool {
	return len(o.dirtyElements) > 0 || o.inactive.elements.Cardinality() > 0
}

// DirtyCount returns the number of elements currently scheduled.
func (o *BuildOwner) DirtyCount() int { return len(o.dirtyElements) }

// ScheduleBuildFor adds an element to the dirty list. Outside a scope the
// first scheduled element triggers OnNeedsFrame; inside a scope the list is
// flagged for a resort so the sweep picks the element up in depth order.
func (o *BuildOwner) ScheduleBuildFor(element Element) {
	b := element.base()
	if b.inDirtyList {
		// Already listed; the sweep may have passed it, ask for a resort so
		// the rewind logic reconsiders it.
		o.dirtyNeedsResort = true
		return
	}
	if !o.scopedBuilding && len(o.dirtyElements) == 0 && o.OnNeedsFrame != nil {
		o.OnNeedsFrame()
	}
	o.dirtyElements = append(o.dirtyElements, element)
	b.inDirtyList = true
	if o.scopedBuilding {
		o.dirtyNeedsResort = true
	}
}

// LockState runs callback with tree mutation disallowed: any MarkNeedsBuild
// issued inside it panics with a contract violation. It is used around
// element unmounting, where triggering new builds would be meaningless.
func (o *BuildOwner) LockState(callback func()) {
	wasLocked := o.stateLocked
	o.stateLocked = true
	defer func() { o.stateLocked = wasLocked }()
	callback()
}

// checkMarkNeedsBuildAllowed enforces the build-phase marking rules: no
// marking while the state is locked, and no marking of elements outside the
// subtree currently being built.
func (o *BuildOwner) checkMarkNeedsBuildAllowed(element Element) {
	if o.stateLocked && (!o.scopedBuilding || o.currentBuildTarget == nil) {
		panic(contractViolation("core.MarkNeedsBuild",
			"rebuild requested while the tree is locked", element))
	}
	if o.currentBuildTarget == nil || o.currentBuildTarget == element {
		return
	}
	if isDescendantOf(element, o.currentBuildTarget) {
		return
	}
	panic(contractViolation("core.MarkNeedsBuild",
		fmt.Sprintf("build of %T tried to dirty %T, which is not below it",
			o.currentBuildTarget.Widget(), element.Widget()), element))
}

func isDescendantOf(element, ancestor Element) bool {
	for current := element; current != nil; current = current.Parent() {
		if current == ancestor {
			return true
		}
	}
	return false
}

// BuildScope establishes a build boundary, runs the optional callback, then
// drains the dirty list in depth order until it converges. Elements scheduled
// during the sweep are folded in by resorting and rewinding to the shallowest
// position that could have been affected.
//
// Build failures inside individual elements are contained by the stand-in
// substitution in safeBuild and do not surface here. What does surface, as a
// returned error, is a violated framework contract or internal inconsistency
// that unwound to this boundary; the tree is left consistent but the pass is
// abandoned.
func (o *BuildOwner) BuildScope(context Element, callback func()) (err error) {
	if o.scopedBuilding {
		return &errors.ContractError{
			Op:          "core.BuildScope",
			Description: "BuildScope called reentrantly during an active build pass",
			Chain:       describeElementChain(context),
			Timestamp:   time.Now(),
		}
	}
	if callback == nil && len(o.dirtyElements) == 0 {
		return nil
	}

	o.scopedBuilding = true
	defer func() {
		if r := recover(); r != nil {
			err = o.scopeFailure(r, context)
		}
		for _, element := range o.dirtyElements {
			element.base().inDirtyList = false
		}
		o.dirtyElements = o.dirtyElements[:0]
		o.dirtyNeedsResort = false
		o.scopedBuilding = false
		o.stateLocked = false
		o.currentBuildTarget = nil
	}()

	if callback != nil {
		o.currentBuildTarget = context
		o.stateLocked = true
		callback()
		o.stateLocked = false
		o.currentBuildTarget = nil
	}

	sortDirtyByDepth(o.dirtyElements)
	o.dirtyNeedsResort = false

	for index := 0; index < len(o.dirtyElements); index++ {
		if o.dirtyNeedsResort {
			sortDirtyByDepth(o.dirtyElements)
			o.dirtyNeedsResort = false
			// Rewind past any already-clean prefix that the resort may have
			// shuffled dirty elements in front of.
			for index > 0 && o.dirtyElements[index-1] != nil && o.dirtyElements[index-1].Dirty() {
				index--
			}
		}
		element := o.dirtyElements[index]
		if element == nil {
			continue
		}
		o.currentBuildTarget = element
		element.RebuildIfNeeded()
		o.currentBuildTarget = nil
	}

	for _, element := range o.dirtyElements {
		if element.Dirty() && element.Lifecycle() == LifecycleActive {
			panic(internalInconsistency("core.BuildScope",
				"dirty element survived the build pass", element))
		}
	}
	return nil
}

// scopeFailure converts a panic that unwound to the scope boundary into the
// error BuildScope returns. Contract and consistency errors pass through
// as-is; anything else is wrapped and reported.
func (o *BuildOwner) scopeFailure(recovered any, context Element) error {
	switch typed := recovered.(type) {
	case *errors.ContractError:
		return typed
	case *errors.ConsistencyError:
		return typed
	}
	buildErr := &errors.BuildError{
		Phase:      "scope",
		Recovered:  recovered,
		StackTrace: errors.CaptureStack(),
		Timestamp:  time.Now(),
	}
	if context != nil {
		buildErr.Element = reflect.TypeOf(context).String()
		if context.Widget() != nil {
			buildErr.Widget = reflect.TypeOf(context.Widget()).String()
		}
	}
	errors.ReportBuildError(buildErr)
	return buildErr
}

func sortDirtyByDepth(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if a.Depth() != b.Depth() {
			return a.Depth() < b.Depth()
		}
		// Clean elements sort before dirty ones at equal depth, mirroring
		// the rewind check.
		return !a.Dirty() && b.Dirty()
	})
}

// FinalizeTree ends the pass: every subtree still parked in the inactive set
// is unmounted (deepest roots first, children before parents), reservations
// are cleared, and the deferred duplicate-global-key check runs. The returned
// error reports the first detected duplicate.
func (o *BuildOwner) FinalizeTree() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = o.scopeFailure(r, nil)
		}
		// bookkeeping is cleared even when the pass failed
		o.displaced = nil
		o.reservations = nil
	}()
	o.LockState(func() {
		o.inactive.unmountAll()
	})
	return o.verifyGlobalKeys()
}

// registerGlobalKey records element as the current holder of key. Taking over
// a key held by another element is legal mid-pass (reparenting does exactly
// that); the previous holder is remembered so FinalizeTree can tell takeover
// from duplication.
func (o *BuildOwner) registerGlobalKey(key GlobalKey, element Element) {
	if previous, ok := o.globalKeys[key]; ok && previous != element {
		if o.displaced == nil {
			o.displaced = make(map[GlobalKey]Element)
		}
		o.displaced[key] = previous
	}
	o.globalKeys[key] = element
}

// unregisterGlobalKey releases the key if element is still its holder.
func (o *BuildOwner) unregisterGlobalKey(key GlobalKey, element Element) {
	if o.globalKeys[key] == element {
		delete(o.globalKeys, key)
	}
}

// CurrentElement returns the element currently registered for key, nil when
// the key is unregistered.
func (o *BuildOwner) CurrentElement(key GlobalKey) Element {
	return o.globalKeys[key]
}

// GlobalKeyCount returns the number of registered global keys.
func (o *BuildOwner) GlobalKeyCount() int { return len(o.globalKeys) }

// debugReserveGlobalKey records that parent is inflating a fresh element for
// key. Two different parents reserving one key in the same pass means the
// key appears twice in the new configuration; that is reported immediately.
func (o *BuildOwner) debugReserveGlobalKey(key GlobalKey, parent, element Element) {
	if o.reservations == nil {
		o.reservations = make(map[GlobalKey]Element)
	}
	if previous, ok := o.reservations[key]; ok && previous != parent {
		panic(contractViolation("core.inflateWidget",
			fmt.Sprintf("global key %v was claimed by two parents in one pass", key), parent))
	}
	o.reservations[key] = parent
}

// verifyGlobalKeys runs the deferred duplicate check: a displaced holder that
// is still active after the inactive sweep was never deactivated, so its key
// is genuinely duplicated in the tree.
func (o *BuildOwner) verifyGlobalKeys() error {
	var violation *errors.ConsistencyError
	for key, previous := range o.displaced {
		if previous.Lifecycle() != LifecycleActive {
			continue
		}
		current := o.globalKeys[key]
		if current == nil || current.Lifecycle() != LifecycleActive {
			continue
		}
		if violation == nil {
			violation = &errors.ConsistencyError{
				Op:          "core.FinalizeTree",
				Description: fmt.Sprintf("global key %v is held by multiple active elements", key),
				StackTrace:  errors.CaptureStack(),
			}
		}
		violation.Chains = append(violation.Chains,
			describeElementChain(previous), describeElementChain(current))
	}
	if violation == nil {
		return nil
	}
	errors.ReportConsistencyError(violation)
	return violation
}

// inactiveElements holds subtree roots that were deactivated this pass and
// may still be reclaimed through their global keys before FinalizeTree.
type inactiveElements struct {
	elements mapset.Set[Element]
}

func (s *inactiveElements) add(element Element) {
	deactivateRecursively(element)
	s.elements.Add(element)
}

func (s *inactiveElements) remove(element Element) {
	s.elements.Remove(element)
}

func deactivateRecursively(element Element) {
	element.deactivate()
	element.VisitChildren(func(child Element) bool {
		deactivateRecursively(child)
		return true
	})
}

// unmountAll destroys every parked subtree, deepest roots first so a nested
// subtree is gone before any shallower one, and children before parents
// within each subtree.
func (s *inactiveElements) unmountAll() {
	roots := s.elements.ToSlice()
	s.elements.Clear()
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Depth() > roots[j].Depth()
	})
	for _, root := range roots {
		unmountRecursively(root)
	}
}

func unmountRecursively(element Element) {
	element.VisitChildren(func(child Element) bool {
		unmountRecursively(child)
		return true
	})
	element.unmount()
}
