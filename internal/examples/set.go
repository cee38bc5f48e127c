package examples

import (
	"sync/atomic"
	"unsafe"

	"hazptr"
)

// setNode is a single element of the ordered set's sorted singly-linked
// list. Logical deletion is a separate atomic flag rather than a tagged
// low bit in next: Go's garbage collector requires every pointer-typed
// field to hold a canonical pointer or nil, so the classic Harris-set
// trick of stealing next's low bit doesn't translate here. Erase sets
// deleted before unlinking, and any traversal that meets a deleted node
// helps finish the unlink before continuing, the same "notice stale
// state, help finish it, retry" idiom the pack's
// LockFreeQueue.Enqueue/Dequeue CAS-and-retry loops use.
type setNode struct {
	key     int
	deleted int32
	next    hazptr.Pointer[setNode]
}

// Set is a lock-free ordered set of ints, kept sorted so a traversal can
// stop early. Deletions mark a node before unlinking it, so a concurrent
// insert that is mid-CAS against the same node fails instead of
// resurrecting a removed key.
type Set struct {
	head   hazptr.Pointer[setNode]
	access hazptr.LocalAccess
}

// NewSet returns an empty Set whose mutators retire through access.
func NewSet(access hazptr.LocalAccess) *Set {
	return &Set{access: access}
}

// find returns the predecessor (nil if key belongs before the head) and
// the first node whose key is >= key, both protected by guard for the
// caller's remaining use of them. It physically unlinks any deleted node
// it steps over along the way.
func (s *Set) find(guard *hazptr.Protection, key int) (pred, curr *setNode) {
retry:
	pred = nil
	curr = (*setNode)(guard.Protect(s.head.Raw()))

	for curr != nil {
		if atomic.LoadInt32(&curr.deleted) != 0 {
			next := curr.next.Load()
			var predPtr *hazptr.Pointer[setNode]
			if pred == nil {
				predPtr = &s.head
			} else {
				predPtr = &pred.next
			}
			if !predPtr.CompareAndSwap(curr, next) {
				goto retry
			}
			hazptr.Retire(s.access, unsafe.Pointer(curr), func(unsafe.Pointer) {}, nil)
			curr = next
			continue
		}

		if curr.key >= key {
			return pred, curr
		}
		pred = curr
		curr = (*setNode)(guard.Protect(curr.next.Raw()))
	}
	return pred, nil
}

// Insert adds key if absent, reporting whether it was added.
func (s *Set) Insert(key int) bool {
	guard, err := hazptr.AcquireProtection(s.access)
	if err != nil {
		return false
	}
	defer guard.Release()

	for {
		pred, curr := s.find(guard, key)
		if curr != nil && curr.key == key {
			return false
		}

		n := &setNode{key: key}
		n.next.Store(curr)

		var predPtr *hazptr.Pointer[setNode]
		if pred == nil {
			predPtr = &s.head
		} else {
			predPtr = &pred.next
		}
		if predPtr.CompareAndSwap(curr, n) {
			return true
		}
		// lost the race against a concurrent insert/delete; retry.
	}
}

// Erase removes key, reporting whether it was present.
func (s *Set) Erase(key int) bool {
	guard, err := hazptr.AcquireProtection(s.access)
	if err != nil {
		return false
	}
	defer guard.Release()

	for {
		pred, curr := s.find(guard, key)
		if curr == nil || curr.key != key {
			return false
		}

		if !atomic.CompareAndSwapInt32(&curr.deleted, 0, 1) {
			continue // someone else is already erasing curr; retry find
		}

		next := curr.next.Load()
		var predPtr *hazptr.Pointer[setNode]
		if pred == nil {
			predPtr = &s.head
		} else {
			predPtr = &pred.next
		}
		if predPtr.CompareAndSwap(curr, next) {
			hazptr.Retire(s.access, unsafe.Pointer(curr), func(unsafe.Pointer) {}, nil)
		}
		// if the unlink CAS lost, the next find() helps finish it.
		return true
	}
}

// Find reports whether key is present.
func (s *Set) Find(key int) bool {
	guard, err := hazptr.AcquireProtection(s.access)
	if err != nil {
		return false
	}
	defer guard.Release()

	_, curr := s.find(guard, key)
	return curr != nil && curr.key == key
}
