package hazptr

import (
	"fmt"
	"unsafe"

	"hazptr/hazconfig"
	"hazptr/hazlog"
)

// Local is a goroutine's private facade onto a Global: it owns a hazard
// cache (reusable Thread-reserved cells), a retired buffer, a scan
// scratch set, and the threshold counters, and borrows cells from the
// Global's Registry (spec.md §3 "LocalState"). Local is not safe for
// concurrent use by more than one goroutine at a time; that's the point,
// since spec.md §5 requires RetiredBuffers to be strictly goroutine-local.
type Local struct {
	global   *Global
	registry *Registry // g.RegistryFor(structureKey), resolved once at construction

	cache   []*HazardCell // released cells kept warm for reuse
	retired retiredBuffer
	scratch hazardSnapshot

	opsCount   int32
	guardCount int32

	closed bool
}

// NewLocal creates a Local tied to g, for the explicit-reference
// LocalAccess variant (spec.md §6: "callers create a Local tied to a
// Global and pass it explicitly"). It acquires cells from g's shared
// Registry; callers that want an isolated per-data-structure registry
// under hazconfig.PerStructureRegistry should use NewLocalFor instead.
func NewLocal(g *Global) (*Local, error) {
	return NewLocalFor(g, nil)
}

// NewLocalFor creates a Local tied to g that acquires cells from
// g.RegistryFor(structureKey) (spec.md §9's HazardPolicy variant). Pass
// the data structure instance itself (or any value stable and unique to
// it) as structureKey to get an isolated registry under
// hazconfig.PerStructureRegistry; pass nil, equivalent to NewLocal, to
// always use g's shared registry.
func NewLocalFor(g *Global, structureKey any) (*Local, error) {
	if g == nil {
		return nil, fmt.Errorf("hazptr: NewLocal requires a non-nil Global")
	}
	return &Local{
		global:   g,
		registry: g.RegistryFor(structureKey),
		cache:    make([]*HazardCell, 0, g.cfg.GuardCacheSize),
	}, nil
}

// acquireCell returns a Thread-reserved cell, reusing one from the warm
// cache when available and borrowing a fresh Reserved cell from the
// registry otherwise.
func (l *Local) acquireCell() *HazardCell {
	if n := len(l.cache); n > 0 {
		c := l.cache[n-1]
		l.cache = l.cache[:n-1]
		return c
	}
	c := l.registry.Acquire()
	c.markThreadReserved()
	return c
}

// releaseCell clears a cell's published pointer and either keeps it warm
// in the cache (up to its configured capacity) or frees it back to the
// registry for another goroutine to claim.
func (l *Local) releaseCell(c *HazardCell) {
	c.clear()
	if len(l.cache) < cap(l.cache) {
		l.cache = append(l.cache, c)
		return
	}
	c.release()
}

// Retire enqueues addr for eventual reclamation (spec.md §4.4). The
// caller asserts, as an unchecked precondition, that addr has already
// been unlinked from every shared location using a memory-ordered store
// a protecting reader would detect on re-verify. meta is optional caller
// metadata carried alongside the record.
func (l *Local) Retire(addr unsafe.Pointer, del Deleter, meta any) {
	l.retired.push(addr, del, meta)
	l.drainAbandoned()

	if l.global.cfg.CountMode == hazconfig.ByRetire {
		l.opsCount++
		if l.opsCount >= l.global.cfg.ScanThreshold {
			l.opsCount = 0
			runScan(l)
		}
	}
}

// onGuardReleased is called by Protection.Release; under count-release
// mode it drives the same threshold machinery Retire drives under
// by-retire mode (spec.md §4.4).
func (l *Local) onGuardReleased() {
	if l.global.cfg.CountMode != hazconfig.ByRelease {
		return
	}
	l.guardCount++
	if l.guardCount >= l.global.cfg.ScanThreshold {
		l.guardCount = 0
		runScan(l)
	}
}

// Scan forces an immediate ScanEngine pass regardless of the threshold
// counters, returning the number of records reclaimed. Like Retire, it
// first drains a bounded number of entries from the Global's abandoned
// list (spec.md §4.6 item 4), so a caller that only ever calls Scan still
// eventually reclaims residue another goroutine's Close left behind.
func (l *Local) Scan() int {
	l.drainAbandoned()
	return runScan(l)
}

// Pending returns how many retired records are still awaiting
// reclamation.
func (l *Local) Pending() int {
	return l.retired.len()
}

// drainAbandoned pulls a bounded number of entries from the Global's
// abandoned list into this Local's retired buffer (spec.md §4.6 item 4),
// so residue left by an exited goroutine eventually reclaims.
func (l *Local) drainAbandoned() {
	batch := l.global.abandoned.drain(l.global.cfg.AbandonDrainBatch)
	if len(batch) > 0 {
		l.retired.drainFrom(batch)
		hazlog.TraceIf("abandon", "drained %d abandoned records", len(batch))
	}
}

// Close runs the AbandonPath (spec.md §4.6): release every cached cell,
// perform a final scan, and hand off any residue to the Global's
// abandoned list (or leak it, under the per-thread garbage policy). Close
// must be called exactly once, typically via defer, before a goroutine
// that owns this Local returns. Go has no portable goroutine-exit hook
// equivalent to pthread TLS destructors, so unlike the ambient-TLS source
// this Close is never implicit.
func (l *Local) Close() {
	if l.closed {
		return
	}
	l.closed = true
	abandon(l)
}
