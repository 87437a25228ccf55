// Package errors provides structured error handling for the Fern framework core.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindBuild indicates a failure inside a widget build callback.
	KindBuild
	// KindContract indicates a programming-contract violation, such as
	// mutating state after disposal or registering duplicate global keys.
	KindContract
	// KindConsistency indicates an internal invariant violation in the
	// reconciler itself. These are never recoverable.
	KindConsistency
)

func (k ErrorKind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindContract:
		return "contract"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// BuildError represents a failure during a widget build or update callback.
// Build errors are recoverable: the framework reports them and substitutes a
// stand-in widget in place of the failed subtree.
type BuildError struct {
	// Widget is the type name of the widget whose build failed.
	Widget string
	// Element is the element type hosting the widget.
	Element string
	// Phase is the operation that failed ("build", "update-render").
	Phase string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s (%s): %v", e.Widget, e.Phase, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in %s (%s): %v", e.Widget, e.Phase, e.Err)
	}
	return fmt.Sprintf("unknown error in %s (%s)", e.Widget, e.Phase)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ContractError represents a misuse of the framework API: calling SetState
// outside the mounted window, scheduling a rebuild of an unrelated element
// while the tree is locked, or activating two elements with the same global
// key. The mutation in progress is aborted; the process may continue.
type ContractError struct {
	// Op is the operation that detected the violation (e.g. "core.SetState").
	Op string
	// Description explains the violated contract.
	Description string
	// Chain describes the offending element chain, innermost first.
	Chain string
	// StackTrace contains the call stack at the time of the violation.
	StackTrace string
	// Timestamp is when the violation was detected.
	Timestamp time.Time
}

func (e *ContractError) Error() string {
	if e.Chain != "" {
		return fmt.Sprintf("%s: %s\n  element chain: %s", e.Op, e.Description, e.Chain)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Description)
}

// ConsistencyError represents a broken internal invariant of the reconciler:
// a dirty element surviving a build scope, a re-entrant build scope, or two
// simultaneously active elements holding the same global key at tree
// finalization. Consistency errors abort the enclosing build scope.
type ConsistencyError struct {
	// Op is the operation that detected the inconsistency.
	Op string
	// Description explains the broken invariant.
	Description string
	// Chains describes the offending element chains, when known.
	Chains []string
	// StackTrace contains the call stack at the time of detection.
	StackTrace string
	// Timestamp is when the inconsistency was detected.
	Timestamp time.Time
}

func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Description)
	for _, chain := range e.Chains {
		msg += "\n  element chain: " + chain
	}
	return msg
}

// ErrorHandler receives errors reported by the framework core.
type ErrorHandler interface {
	// HandleBuildError is called when a widget build fails.
	HandleBuildError(err *BuildError)
	// HandleContractError is called when an API contract is violated.
	HandleContractError(err *ContractError)
	// HandleConsistencyError is called when an internal invariant breaks.
	HandleConsistencyError(err *ConsistencyError)
}
