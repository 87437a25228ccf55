// Package render defines the contract between the element tree and the
// backing render tree.
//
// The reconciliation core in pkg/core never inspects render nodes beyond this
// surface: render-backed widgets create and update nodes, and the element that
// owns the nearest backing node performs structural maintenance through the
// container capability interfaces. Layout, painting, and hit-testing live
// behind this boundary and are not part of this module.
package render

// Node is the opaque backing object a render-backed element manages.
type Node interface {
	// Parent returns the parent node, or nil for a detached or root node.
	Parent() Node
	// SetParent records the parent reference. Called by the owning element
	// during structural maintenance.
	SetParent(parent Node)
	// Attached reports whether the node is connected to an active tree.
	Attached() bool
	// Attach connects this node (and its subtree) to the given host.
	Attach(host *Host)
	// Detach disconnects this node (and its subtree) from its host without
	// destroying it, so it can be re-attached if its element is reclaimed.
	Detach()
}

// SingleChildContainer is implemented by nodes that hold exactly one child.
type SingleChildContainer interface {
	SetChild(child Node)
}

// MultiChildContainer is implemented by nodes that hold an ordered child
// list. Insertion and movement are addressed by the previous sibling so the
// host can splice without touching unrelated children.
type MultiChildContainer interface {
	// InsertChildAfter inserts child immediately after the given sibling.
	// A nil sibling inserts at the front.
	InsertChildAfter(child, after Node)
	// MoveChildAfter moves an existing child immediately after the given
	// sibling. A nil sibling moves it to the front.
	MoveChildAfter(child, after Node)
	// RemoveChild removes the child from the list.
	RemoveChild(child Node)
}

// ChildVisitor is implemented by nodes that expose their children.
type ChildVisitor interface {
	VisitChildren(visitor func(Node))
}

// Host tracks the nodes attached to one render tree and the nodes whose
// configuration changed since the last flush. It is the reduced analogue of a
// full pipeline owner: the core only needs attach bookkeeping and an
// update-dirty set, so that is all this contract carries.
type Host struct {
	attached    map[Node]struct{}
	dirtyUpdate []Node
	dirtySet    map[Node]struct{}
}

// NewHost creates an empty Host.
func NewHost() *Host {
	return &Host{
		attached: make(map[Node]struct{}),
		dirtySet: make(map[Node]struct{}),
	}
}

// NodeAttached records that a node joined this host's tree.
func (h *Host) NodeAttached(node Node) {
	h.attached[node] = struct{}{}
}

// NodeDetached records that a node left this host's tree.
func (h *Host) NodeDetached(node Node) {
	delete(h.attached, node)
}

// AttachedCount returns the number of nodes currently attached.
func (h *Host) AttachedCount() int {
	return len(h.attached)
}

// ScheduleUpdate marks a node as having stale configuration.
func (h *Host) ScheduleUpdate(node Node) {
	if _, ok := h.dirtySet[node]; ok {
		return
	}
	h.dirtySet[node] = struct{}{}
	h.dirtyUpdate = append(h.dirtyUpdate, node)
}

// NeedsUpdate reports whether any node has stale configuration.
func (h *Host) NeedsUpdate() bool {
	return len(h.dirtyUpdate) > 0
}

// TakeDirty returns the update-dirty nodes and clears the set.
func (h *Host) TakeDirty() []Node {
	dirty := h.dirtyUpdate
	h.dirtyUpdate = nil
	clear(h.dirtySet)
	return dirty
}
