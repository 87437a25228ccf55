package core

// ElementLifecycle tracks an element through its life: constructed but not
// yet placed, mounted and eligible to build, detached pending reactivation or
// disposal, and finally disposed.
type ElementLifecycle int

const (
	// LifecycleInitial is the state of a freshly constructed element.
	LifecycleInitial ElementLifecycle = iota
	// LifecycleActive means the element is mounted and part of the tree.
	LifecycleActive
	// LifecycleInactive means the element was detached during this pass and
	// is parked in the owner's inactive set. It can be reclaimed (via a
	// global key) until the pass is finalized, after which it is unmounted.
	LifecycleInactive
	// LifecycleDefunct is terminal: the element has been unmounted.
	LifecycleDefunct
)

func (l ElementLifecycle) String() string {
	switch l {
	case LifecycleInitial:
		return "initial"
	case LifecycleActive:
		return "active"
	case LifecycleInactive:
		return "inactive"
	case LifecycleDefunct:
		return "defunct"
	}
	return "unknown"
}

// StateLifecycle tracks a State object's sub-lifecycle, which is strictly
// nested inside its element's active period.
type StateLifecycle int

const (
	// StateCreated means CreateState has run but InitState has not.
	StateCreated StateLifecycle = iota
	// StateInitialized means InitState has run but the first
	// DidChangeDependencies has not completed.
	StateInitialized
	// StateReady means the state is fully initialized and may build.
	StateReady
	// StateDefunct means Dispose has run.
	StateDefunct
)

func (l StateLifecycle) String() string {
	switch l {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	case StateDefunct:
		return "defunct"
	}
	return "unknown"
}
