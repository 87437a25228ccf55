package core

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Key controls whether an existing element can be reused for a new widget
// during reconciliation. Two widgets are update-compatible only when they
// share a concrete type and equal keys (see canUpdateWidget).
//
// All key types shipped by this package are comparable, so key equality is
// plain ==; KeysEqual wraps that with nil handling and a guard for custom
// non-comparable implementations.
type Key interface {
	// HashCode returns a hash consistent with key equality: equal keys must
	// return equal hashes.
	HashCode() uint64
}

// KeysEqual reports whether two keys are equal. Two nil keys are equal.
// Non-comparable keys are never equal to anything.
func KeysEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// isComparable reports whether == is safe on the value. The check is against
// the dynamic value, not just its type: a comparable struct holding a slice
// in an interface field would still panic under ==.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

var uniqueKeySeq atomic.Uint64

// UniqueKey is equal only to itself. Use it to force a widget to never be
// update-compatible with any other widget. Always used as *UniqueKey.
type UniqueKey struct {
	label string
	hash  uint64
}

// NewUniqueKey creates a key equal only to itself. The label is only for
// diagnostics.
func NewUniqueKey(label string) *UniqueKey {
	id := uniqueKeySeq.Add(1)
	return &UniqueKey{
		label: label,
		hash:  xxhash.Sum64String(fmt.Sprintf("unique:%d", id)),
	}
}

func (k *UniqueKey) HashCode() uint64 { return k.hash }

func (k *UniqueKey) String() string {
	if k.label != "" {
		return fmt.Sprintf("UniqueKey(%s)", k.label)
	}
	return "UniqueKey"
}

// ValueKey is equal to another ValueKey of the same type parameter holding an
// equal value.
type ValueKey[T comparable] struct {
	Value T
}

func (k ValueKey[T]) HashCode() uint64 {
	return xxhash.Sum64String(fmt.Sprintf("value:%T:%v", k.Value, k.Value))
}

func (k ValueKey[T]) String() string {
	return fmt.Sprintf("ValueKey(%v)", k.Value)
}

// ObjectKey is equal to another ObjectKey wrapping the identical underlying
// object (reference identity, not value equality). Wrap a pointer.
type ObjectKey struct {
	Object any
}

func (k ObjectKey) HashCode() uint64 {
	return hashIdentity("object", k.Object)
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("ObjectKey(%T)", k.Object)
}

// GlobalKey is a key that must be unique across the whole active tree at any
// instant. A widget carrying a global key can be moved to a new parent within
// a single build pass while keeping its element (and state) alive; the
// owner's registry maps each global key to its currently mounted element.
//
// Duplicate detection is deferred: registering a key already held by another
// element is only flagged, and the conflict is verified at FinalizeTree so a
// key freed and re-claimed in the same pass is not a false positive.
type GlobalKey interface {
	Key
	globalKeyMarker()
}

// LabeledGlobalKey is a GlobalKey equal only to itself. Always used as
// *LabeledGlobalKey, via NewGlobalKey.
type LabeledGlobalKey struct {
	label string
	hash  uint64
}

// NewGlobalKey creates a global key equal only to itself. The label is only
// for diagnostics.
func NewGlobalKey(label string) *LabeledGlobalKey {
	id := uniqueKeySeq.Add(1)
	return &LabeledGlobalKey{
		label: label,
		hash:  xxhash.Sum64String(fmt.Sprintf("global:%d", id)),
	}
}

func (k *LabeledGlobalKey) HashCode() uint64 { return k.hash }

func (k *LabeledGlobalKey) globalKeyMarker() {}

func (k *LabeledGlobalKey) String() string {
	if k.label != "" {
		return fmt.Sprintf("GlobalKey(%s)", k.label)
	}
	return "GlobalKey"
}

// GlobalObjectKey is a GlobalKey equal to another GlobalObjectKey wrapping
// the identical underlying object.
type GlobalObjectKey struct {
	Object any
}

func (k GlobalObjectKey) HashCode() uint64 {
	return hashIdentity("globalobject", k.Object)
}

func (k GlobalObjectKey) globalKeyMarker() {}

func (k GlobalObjectKey) String() string {
	return fmt.Sprintf("GlobalObjectKey(%T)", k.Object)
}

// hashIdentity hashes reference identity for pointer-shaped values and falls
// back to the value's formatted form otherwise.
func hashIdentity(prefix string, v any) uint64 {
	if v == nil {
		return xxhash.Sum64String(prefix + ":nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return xxhash.Sum64String(fmt.Sprintf("%s:%x", prefix, rv.Pointer()))
	}
	return xxhash.Sum64String(fmt.Sprintf("%s:%T:%v", prefix, v, v))
}
