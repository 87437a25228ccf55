package core

// Disposable is anything owning resources that must be released when the
// owning state is disposed.
type Disposable interface {
	Dispose()
}

// UseController creates a controller and ties its lifetime to the state:
// the controller's Dispose runs automatically when the state is disposed.
// Call it from InitState.
func UseController[T Disposable](owner *StateBase, create func() T) T {
	controller := create()
	owner.OnDispose(controller.Dispose)
	return controller
}

// Managed lazily holds a disposable value owned by a state. The value is
// created on first Get and disposed with the state.
type Managed[T Disposable] struct {
	value   T
	created bool
}

// Get returns the managed value, creating and registering it on first use.
func (m *Managed[T]) Get(owner *StateBase, create func() T) T {
	if !m.created {
		m.value = create()
		m.created = true
		owner.OnDispose(m.value.Dispose)
	}
	return m.value
}

// Ok reports whether the value has been created.
func (m *Managed[T]) Ok() bool { return m.created }
