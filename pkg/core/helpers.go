package core

// StatelessBase supplies the Widget boilerplate for stateless widgets. Embed
// it and implement Build.
type StatelessBase struct {
	KeyValue Key
}

func (b StatelessBase) CreateElement() Element { return NewStatelessElement() }

func (b StatelessBase) Key() Key { return b.KeyValue }

// StatefulBase supplies the Widget boilerplate for stateful widgets. Embed it
// and implement CreateState.
type StatefulBase struct {
	KeyValue Key
}

func (b StatefulBase) CreateElement() Element { return NewStatefulElement() }

func (b StatefulBase) Key() Key { return b.KeyValue }

// ProxyBase supplies the Widget boilerplate for proxy widgets. Embed it,
// store the child, and implement ChildWidget.
type ProxyBase struct {
	KeyValue Key
}

func (b ProxyBase) CreateElement() Element { return NewProxyElement() }

func (b ProxyBase) Key() Key { return b.KeyValue }

// InheritedBase supplies the Widget boilerplate for inherited widgets. Embed
// it and implement ChildWidget and UpdateShouldNotify.
type InheritedBase struct {
	KeyValue Key
}

func (b InheritedBase) CreateElement() Element { return NewInheritedElement() }

func (b InheritedBase) Key() Key { return b.KeyValue }

// RenderNodeBase supplies the Widget boilerplate for render node widgets.
// Embed it and implement CreateRenderNode and UpdateRenderNode.
type RenderNodeBase struct {
	KeyValue Key
}

func (b RenderNodeBase) CreateElement() Element { return NewRenderNodeElement() }

func (b RenderNodeBase) Key() Key { return b.KeyValue }

// Builder is an inline stateless widget defined by a closure.
type Builder struct {
	StatelessBase
	BuildFunc func(ctx BuildContext) Widget
}

func (b Builder) Build(ctx BuildContext) Widget { return b.BuildFunc(ctx) }

// Stateful is an inline stateful widget: NewState supplies the state object.
// It saves declaring a widget type when the widget itself carries no
// configuration.
type Stateful[S State] struct {
	KeyValue Key
	NewState func() S
}

func (w Stateful[S]) CreateElement() Element { return NewStatefulElement() }

func (w Stateful[S]) Key() Key { return w.KeyValue }

func (w Stateful[S]) CreateState() State { return w.NewState() }
