// Package core implements fern's retained-mode widget machinery: immutable
// widget configurations, the long-lived element tree they are reconciled
// into, stateful components, ambient data via inherited widgets, and the
// BuildOwner that drives build passes.
//
// The usual frame loop is:
//
//	owner := core.NewBuildOwner(host)
//	root := core.MountRoot(owner, app)
//	...
//	owner.BuildScope(root, nil)
//	owner.FinalizeTree()
//
// Everything in this package is single-goroutine per tree.
package core
