// Package examples contains reference collaborators used to exercise and
// test the hazptr core. Nothing here is imported by hazptr itself.
package examples

import (
	"unsafe"

	"github.com/google/uuid"

	"hazptr"
)

// Node is a single Treiber stack element. Tag is a UUID assigned at push
// time so a stress test can name a node in its logs after it has been
// reclaimed, when its address is no longer meaningful.
type Node struct {
	Tag   uuid.UUID
	Value any
	next  hazptr.Pointer[Node]
}

// Stack is a lock-free Treiber stack built on hazptr.Pointer and the
// hazptr reclamation protocol: Pop unlinks the head node via CAS and
// retires it instead of freeing it outright, so a concurrent Pop that
// already protected the old head can still read it safely.
type Stack struct {
	head   hazptr.Pointer[Node]
	access hazptr.LocalAccess
}

// NewStack returns a Stack whose Pop retires through access. Pass
// hazptr.Implicit() to use the calling goroutine's implicit Local, or
// hazptr.Explicit(l) to drive it with a specific one.
func NewStack(access hazptr.LocalAccess) *Stack {
	return &Stack{access: access}
}

// Push adds value to the top of the stack.
func (s *Stack) Push(value any) {
	n := &Node{Tag: uuid.New(), Value: value}
	for {
		old := s.head.Load()
		n.next.Store(old)
		if s.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// Pop removes and returns the top value, or nil, false if the stack is
// empty. The unlinked node is handed to the reclamation protocol rather
// than freed directly.
func (s *Stack) Pop() (any, bool) {
	guard, err := hazptr.AcquireProtection(s.access)
	if err != nil {
		return nil, false
	}
	defer guard.Release()

	for {
		old := (*Node)(guard.Protect(s.head.Raw()))
		if old == nil {
			return nil, false
		}
		next := old.next.Load()
		if s.head.CompareAndSwap(old, next) {
			value := old.Value
			tag := old.Tag
			hazptr.Retire(s.access, unsafe.Pointer(old), func(unsafe.Pointer) {}, tag)
			return value, true
		}
	}
}
