package hazptr

import (
	"sync/atomic"
	"unsafe"

	"hazptr/hazconfig"
)

// segment is a fixed-size, address-stable block of HazardCells plus an
// atomic link to the next segment (spec.md §3: "recommended 31 cells + one
// next pointer"). Segments are appended, never freed or moved, so a
// published *HazardCell reference stays valid for the registry's lifetime.
type segment struct {
	cells []HazardCell
	next  unsafe.Pointer // *segment, atomic
}

func newSegment(size int) *segment {
	return &segment{cells: make([]HazardCell, size)}
}

// Registry is the segmented, append-only collection of HazardCells shared
// by every Local that reclaims against it (spec.md §4.1). It supports
// concurrent acquisition of a free cell and lock-free iteration; cells are
// never moved and the cell set never shrinks.
type Registry struct {
	head        unsafe.Pointer // *segment, atomic
	segmentSize int

	segmentCount int64 // atomic, for Stats
}

// NewRegistry creates a Registry with one initial segment of segmentSize
// cells. A non-positive segmentSize falls back to the package default.
func NewRegistry(segmentSize int) *Registry {
	if segmentSize <= 0 {
		segmentSize = hazconfig.DefaultSegmentSize
	}
	r := &Registry{segmentSize: segmentSize, segmentCount: 1}
	first := newSegment(segmentSize)
	r.head = unsafe.Pointer(first)
	return r
}

// Acquire returns a cell in Reserved state for the calling goroutine.
// Lock-free in the worst case, wait-free amortized: it walks existing
// segments for a Free cell, and only allocates a new segment when every
// existing cell is owned (spec.md §4.1).
func (r *Registry) Acquire() *HazardCell {
	for {
		for seg := r.loadHead(); seg != nil; seg = seg.loadNext() {
			for i := range seg.cells {
				cell := &seg.cells[i]
				if cell.tryAcquire() {
					return cell
				}
			}
		}
		r.growSegment()
	}
}

// growSegment appends one new segment to the tail of the list, CAS'ing
// the list's current tail next-pointer from nil to the new segment. If
// another goroutine wins the race, the loser's segment is simply
// discarded (garbage collected); the caller retries the scan in Acquire,
// which will now see the winner's segment.
func (r *Registry) growSegment() {
	newSeg := newSegment(r.segmentSize)
	last := r.loadHead()
	for next := last.loadNext(); next != nil; next = last.loadNext() {
		last = next
	}
	if atomic.CompareAndSwapPointer(&last.next, nil, unsafe.Pointer(newSeg)) {
		atomic.AddInt64(&r.segmentCount, 1)
	}
}

func (r *Registry) loadHead() *segment {
	return (*segment)(atomic.LoadPointer(&r.head))
}

func (s *segment) loadNext() *segment {
	return (*segment)(atomic.LoadPointer(&s.next))
}

// ForEach walks every cell ever allocated, in segment order. It holds no
// lock: a segment appended after ForEach begins may or may not be seen by
// this call, and both outcomes are safe (spec.md §4.1) because a newly
// appended cell can only protect an address allocated after the scan
// began, which by the retire-happens-before contract cannot already be in
// the buffer being scanned. fn returning false stops the walk early.
func (r *Registry) ForEach(fn func(*HazardCell) bool) {
	for seg := r.loadHead(); seg != nil; seg = seg.loadNext() {
		for i := range seg.cells {
			if !fn(&seg.cells[i]) {
				return
			}
		}
	}
}

// Stats summarizes the registry's current shape, useful for tests and for
// an operator polling this library's health from the outside.
type Stats struct {
	Segments int
	Cells    int
	Free     int
}

// Stats returns a snapshot of the registry's segment/cell/free counts.
func (r *Registry) Stats() Stats {
	var st Stats
	st.Segments = int(atomic.LoadInt64(&r.segmentCount))
	r.ForEach(func(c *HazardCell) bool {
		st.Cells++
		if c.isFree() {
			st.Free++
		}
		return true
	})
	return st
}
