package hazptr

import (
	"sync/atomic"
	"unsafe"
)

// Pointer[T] is the typed atomic-pointer convenience spec.md §1 names as
// an external collaborator ("the higher-level atomic-pointer wrapper that
// the data-structure author uses for typed loads/stores"). It is supplied
// here because Go's generics make it nearly free and every reference data
// structure in internal/examples needs it immediately; it never appears
// in the core reclamation path (HazardCell and Registry stay in terms of
// unsafe.Pointer throughout).
type Pointer[T any] struct {
	raw unsafe.Pointer
}

// NewPointer wraps an initial value (possibly nil).
func NewPointer[T any](v *T) Pointer[T] {
	return Pointer[T]{raw: unsafe.Pointer(v)}
}

// Raw exposes the underlying *unsafe.Pointer for use with Protection.Protect.
func (p *Pointer[T]) Raw() *unsafe.Pointer { return &p.raw }

// Load returns the current value without any hazard protection; callers
// that intend to dereference the result across a point where it could be
// retired must go through Protection.Protect instead.
func (p *Pointer[T]) Load() *T {
	return (*T)(atomic.LoadPointer(&p.raw))
}

// Store unconditionally replaces the pointer. This is the source.load's
// complement; it is the data-structure author's job to ensure the old
// value, if any, is retired only after this store is visible to
// protecting readers (spec.md §4.4's retire precondition).
func (p *Pointer[T]) Store(v *T) {
	atomic.StorePointer(&p.raw, unsafe.Pointer(v))
}

// CompareAndSwap atomically replaces old with new, reporting success.
// Data-structure authors unlink nodes with this, not with Store, so the
// CAS failure path can retry against a concurrently-updated value.
func (p *Pointer[T]) CompareAndSwap(old, new *T) bool {
	return atomic.CompareAndSwapPointer(&p.raw, unsafe.Pointer(old), unsafe.Pointer(new))
}

// ProtectTyped runs the load-and-verify protocol against p and returns a
// typed result, or nil if p was empty.
func ProtectTyped[T any](prot *Protection, p *Pointer[T]) *T {
	return (*T)(prot.Protect(&p.raw))
}
