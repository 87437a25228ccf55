package core

// StateBase provides the boilerplate for State implementations: the element
// backlink, SetState, and disposer registration. Embed it and override the
// lifecycle methods you need; overrides of Dispose must call the embedded
// Dispose so registered disposers still run.
type StateBase struct {
	element   *StatefulElement
	disposers []func()
	disposed  bool
}

// SetElement is called by the framework when the state is attached to and
// detached from its element.
func (s *StateBase) SetElement(element *StatefulElement) {
	s.element = element
}

// Context returns the BuildContext of the hosting element. It is nil before
// the state is attached and after unmount.
func (s *StateBase) Context() BuildContext {
	if s.element == nil {
		return nil
	}
	return s.element
}

// Mounted reports whether the state is attached to an element that can still
// rebuild.
func (s *StateBase) Mounted() bool {
	return s.element != nil && s.element.Lifecycle() != LifecycleDefunct
}

// SetState applies a synchronous mutation and schedules a rebuild. Calling it
// after Dispose, or on a state that was never attached, is a programming
// error and panics with a contract violation: callbacks that may outlive the
// widget must check Mounted first.
func (s *StateBase) SetState(mutate func()) {
	if s.disposed || s.element == nil {
		panic(contractViolation("core.SetState",
			"SetState called on a disposed or unattached state", s.element))
	}
	if mutate != nil {
		mutate()
	}
	s.element.MarkNeedsBuild()
}

// OnDispose registers a cleanup to run during Dispose, in reverse
// registration order.
func (s *StateBase) OnDispose(cleanup func()) {
	if cleanup == nil {
		return
	}
	s.disposers = append(s.disposers, cleanup)
}

// IsDisposed reports whether Dispose has run.
func (s *StateBase) IsDisposed() bool { return s.disposed }

func (s *StateBase) InitState() {}

func (s *StateBase) DidChangeDependencies() {}

func (s *StateBase) DidUpdateWidget(oldWidget StatefulWidget) {}

// Dispose runs the registered disposers, newest first.
func (s *StateBase) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for i := len(s.disposers) - 1; i >= 0; i-- {
		s.disposers[i]()
	}
	s.disposers = nil
}
