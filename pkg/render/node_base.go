package render

// NodeBase provides base behavior for render nodes: parent tracking and
// attach/detach bookkeeping against a Host. Embed it in concrete node types.
type NodeBase struct {
	parent   Node
	host     *Host
	attached bool
	self     Node // set lazily so subtree walks reach the outer type
}

// SetSelf records the outer node so attach/detach can walk the subtree
// through the outer type's ChildVisitor implementation. Optional; when unset,
// only this node is tracked.
func (n *NodeBase) SetSelf(self Node) {
	n.self = self
}

// Parent returns the parent node.
func (n *NodeBase) Parent() Node {
	return n.parent
}

// SetParent records the parent reference.
func (n *NodeBase) SetParent(parent Node) {
	n.parent = parent
}

// Attached reports whether the node is connected to a host.
func (n *NodeBase) Attached() bool {
	return n.attached
}

// Host returns the host this node is attached to, or nil.
func (n *NodeBase) Host() *Host {
	return n.host
}

// Attach connects this node and its visible subtree to the host.
func (n *NodeBase) Attach(host *Host) {
	if n.attached && n.host == host {
		return
	}
	n.host = host
	n.attached = true
	if host != nil {
		tracked := n.self
		if tracked == nil {
			tracked = nodeOnly{n}
		}
		host.NodeAttached(tracked)
	}
	if visitor, ok := n.self.(ChildVisitor); ok {
		visitor.VisitChildren(func(child Node) {
			child.Attach(host)
		})
	}
}

// Detach disconnects this node and its visible subtree from the host.
func (n *NodeBase) Detach() {
	if !n.attached {
		return
	}
	n.attached = false
	if n.host != nil {
		tracked := n.self
		if tracked == nil {
			tracked = nodeOnly{n}
		}
		n.host.NodeDetached(tracked)
	}
	if visitor, ok := n.self.(ChildVisitor); ok {
		visitor.VisitChildren(func(child Node) {
			child.Detach()
		})
	}
	n.host = nil
}

// MarkNeedsUpdate schedules this node for a configuration re-apply.
func (n *NodeBase) MarkNeedsUpdate() {
	if n.host == nil {
		return
	}
	tracked := n.self
	if tracked == nil {
		tracked = nodeOnly{n}
	}
	n.host.ScheduleUpdate(tracked)
}

// nodeOnly wraps a bare NodeBase so it can be tracked when SetSelf was
// never called.
type nodeOnly struct {
	*NodeBase
}

// ContainerBase is a NodeBase with an ordered child list. It implements
// MultiChildContainer with previous-sibling addressed splicing so the element
// tree can reorder children without touching unrelated siblings.
type ContainerBase struct {
	NodeBase
	children []Node
}

// Children returns the ordered child list.
func (c *ContainerBase) Children() []Node {
	return c.children
}

// VisitChildren calls the visitor for each child in order.
func (c *ContainerBase) VisitChildren(visitor func(Node)) {
	for _, child := range c.children {
		visitor(child)
	}
}

// InsertChildAfter inserts child immediately after the given sibling.
func (c *ContainerBase) InsertChildAfter(child, after Node) {
	index := 0
	if after != nil {
		index = c.indexOf(after) + 1
	}
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	if c.attached && child != nil {
		child.Attach(c.host)
	}
}

// MoveChildAfter moves an existing child immediately after the given sibling.
func (c *ContainerBase) MoveChildAfter(child, after Node) {
	from := c.indexOf(child)
	if from < 0 {
		return
	}
	c.children = append(c.children[:from], c.children[from+1:]...)
	to := 0
	if after != nil {
		to = c.indexOf(after) + 1
	}
	c.children = append(c.children, nil)
	copy(c.children[to+1:], c.children[to:])
	c.children[to] = child
}

// RemoveChild removes the child from the list.
func (c *ContainerBase) RemoveChild(child Node) {
	index := c.indexOf(child)
	if index < 0 {
		return
	}
	c.children = append(c.children[:index], c.children[index+1:]...)
	if child != nil && child.Attached() {
		child.Detach()
	}
}

func (c *ContainerBase) indexOf(node Node) int {
	for i, child := range c.children {
		if child == node {
			return i
		}
	}
	return -1
}
