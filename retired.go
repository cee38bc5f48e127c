package hazptr

import "unsafe"

// Deleter is a type-erased destructor for a retired record: it accepts
// only the raw address, never an owning pointer, since the retirer has
// already relinquished ownership by unlinking (spec.md §9).
type Deleter func(unsafe.Pointer)

// RetiredRecord is one record pending reclamation: a raw address, its
// deleter, and optional caller metadata (spec.md §3). It is created by
// retire, held in the owner's retiredBuffer, and reclaimed by exactly one
// ScanEngine pass.
type RetiredRecord struct {
	Addr unsafe.Pointer
	Del  Deleter
	Meta any
}

// retiredBuffer is a goroutine-local, bounded-growth list of records
// pending reclamation. Strictly local: no other goroutine reads or writes
// it while the owner is alive (spec.md §5). Precondition on every pushed
// address, the caller's responsibility and not checkable here: addr has
// already been unlinked from every shared location via a memory-ordered
// store a protecting reader would detect on re-verify.
type retiredBuffer struct {
	records []RetiredRecord
}

func (b *retiredBuffer) push(addr unsafe.Pointer, del Deleter, meta any) {
	b.records = append(b.records, RetiredRecord{Addr: addr, Del: del, Meta: meta})
}

func (b *retiredBuffer) len() int { return len(b.records) }

// drainFrom absorbs externally-supplied records (e.g. from the abandoned
// list) into this buffer. Every record of src is absorbed; it returns
// len(src).
func (b *retiredBuffer) drainFrom(src []RetiredRecord) int {
	b.records = append(b.records, src...)
	return len(src)
}
