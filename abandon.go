package hazptr

import (
	"sync/atomic"
	"unsafe"

	"hazptr/hazconfig"
	"hazptr/hazlog"
)

// abandonedNode is one lock-free stack node in a Global's abandoned list
// (one list per Global) (spec.md §4.6 item 3: "a process-global abandoned-records list
// (singly-linked, lock-free push)").
type abandonedNode struct {
	records []RetiredRecord
	next    unsafe.Pointer // *abandonedNode, atomic
}

// abandonedList is a Treiber-stack-shaped lock-free push/pop list holding
// residue handed off by goroutines that exited with a non-empty retired
// buffer.
type abandonedList struct {
	head unsafe.Pointer // *abandonedNode, atomic
}

func newAbandonedList() *abandonedList {
	return &abandonedList{}
}

// push deposits a whole batch of residue in one node, so a single
// exiting goroutine's residue reclaims as one unit rather than
// interleaving with other goroutines' pushes.
func (a *abandonedList) push(records []RetiredRecord) {
	if len(records) == 0 {
		return
	}
	node := &abandonedNode{records: records}
	for {
		head := atomic.LoadPointer(&a.head)
		node.next = head
		if atomic.CompareAndSwapPointer(&a.head, head, unsafe.Pointer(node)) {
			return
		}
	}
}

// drain pops nodes off the list until at least limit records have been
// collected (or the list is empty), bounding a single caller's latency
// (spec.md §4.6 item 4: "a bounded number of entries"). It may return
// more than limit records since nodes are popped whole.
func (a *abandonedList) drain(limit int) []RetiredRecord {
	if limit <= 0 {
		limit = hazconfig.DefaultAbandonDrainBatch
	}
	var out []RetiredRecord
	for len(out) < limit {
		head := atomic.LoadPointer(&a.head)
		if head == nil {
			break
		}
		node := (*abandonedNode)(head)
		if !atomic.CompareAndSwapPointer(&a.head, head, node.next) {
			continue
		}
		out = append(out, node.records...)
	}
	return out
}

// abandon implements the AbandonPath run when a Local is closed
// (spec.md §4.6):
//  1. release every cached Thread-reserved cell back to Free;
//  2. perform a final scan;
//  3. if anything remains, deposit it in the Global's abandoned list
//     (or leak it, under the per-thread garbage policy);
//  4. subsequent Retire/Scan calls from any Local drain a bounded number
//     of entries from the abandoned list before proceeding (see
//     Local.drainAbandoned).
func abandon(l *Local) {
	for _, c := range l.cache {
		c.release()
	}
	l.cache = nil

	runScan(l)

	if l.retired.len() == 0 {
		return
	}

	if l.global.cfg.GarbagePolicy == hazconfig.PerThread {
		hazlog.TraceIf("abandon", "leaking %d records under per-thread policy", l.retired.len())
		l.retired.records = nil
		return
	}

	hazlog.TraceIf("abandon", "depositing %d residual records", l.retired.len())
	l.global.abandoned.push(l.retired.records)
	l.retired.records = nil
}
