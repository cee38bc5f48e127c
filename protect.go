package hazptr

import (
	"sync/atomic"
	"unsafe"
)

// fenceWord is a throwaway word used only to force a full sequentially
// consistent fence. Go's sync/atomic gives per-location ordering but the
// verifying re-load needs the publish (setProtected) totally ordered
// against the retirer's unlink and the scanner's snapshot read across
// two different memory locations (spec.md §4.3); a successful CAS here
// forces that on every architecture Go targets, the same trick this
// teacher's lock-free caches use where an explicit fence primitive isn't
// exposed by the language.
var fenceWord int32

func fullFence() {
	for {
		old := atomic.LoadInt32(&fenceWord)
		if atomic.CompareAndSwapInt32(&fenceWord, old, old+1) {
			return
		}
	}
}

// Protection is the RAII-style handle returned by a Local's protection:
// it owns a Thread-reserved HazardCell and clears it when Release is
// called (spec.md §4.3 "the Protection handle"). A Protection must not be
// used by more than one goroutine and must not outlive its owning Local.
type Protection struct {
	local *Local
	cell  *HazardCell
}

// Protection acquires a fresh Protection handle backed by one cached (or
// freshly borrowed) HazardCell (spec.md §6 "protection()/guard()").
func (l *Local) Protection() *Protection {
	return &Protection{local: l, cell: l.acquireCell()}
}

// Protect is the load-and-verify protocol (spec.md §4.3): it loads
// source, tentatively publishes that value, forces a full fence, then
// re-reads source. If the re-read matches, the hazard is live and the
// address is returned; otherwise the source changed and the loop
// retries. A nil return means source was empty.
func (p *Protection) Protect(source *unsafe.Pointer) unsafe.Pointer {
	for {
		candidate := atomic.LoadPointer(source)
		if candidate == nil {
			return nil
		}

		p.cell.setProtected(candidate)
		fullFence()

		verify := atomic.LoadPointer(source)
		if verify == candidate {
			return candidate
		}
		// source moved between the tentative load and the publish;
		// candidate may already be retired elsewhere. Retry with the
		// now-current value.
	}
}

// Cell returns the HazardCell backing this Protection, mainly so tests
// and the registry's own Stats-driven assertions can identify which cell
// a given handle was given without reaching into Local's internals.
func (p *Protection) Cell() *HazardCell { return p.cell }

// Release clears the handle's cell (Protected -> Thread-reserved) and
// returns it to the owning Local's warm cache, or frees it back to the
// registry when that cache is full (spec.md §6
// "handle.release()/drop"). Under count-release mode this also drives the
// scan-threshold counter. A Protection must not be used again after
// Release.
func (p *Protection) Release() {
	if p.cell == nil {
		return
	}
	p.local.releaseCell(p.cell)
	p.cell = nil
	p.local.onGuardReleased()
}
