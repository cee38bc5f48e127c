// Package hazptr implements hazard-pointer based concurrent memory
// reclamation: a process-wide registry of publication slots, a per-
// goroutine local state, and the protect/retire/scan protocol that lets
// lock-free data structures share heap-allocated records across goroutines
// without a tracing garbage collector watching raw pointers for them.
//
// A reader protects a pointer before dereferencing it:
//
//	guard := local.Protection()
//	p := guard.Protect(&source)
//	if p == nil {
//		return // source was empty
//	}
//	defer guard.Release()
//	// p is safe to dereference until Release
//
// A writer retires a record after unlinking it from shared state:
//
//	local.Retire(unsafe.Pointer(old), func(p unsafe.Pointer) {
//		(*Node)(p).free()
//	}, nil)
//
// The registry, local state, and scan engine are the subject of this
// package. The typed atomic-pointer convenience (Pointer[T]) and the
// reference Treiber stack / ordered set under internal/examples are
// collaborators, not the core.
package hazptr
