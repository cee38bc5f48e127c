package hazptr

import (
	"sort"
	"unsafe"

	"hazptr/hazlog"
)

// hazardSnapshot is the ScanEngine's scan-scratch set: a sorted slice of
// raw addresses currently published somewhere in the registry (spec.md
// §4.5 step 3: "sorted vector of raw addresses... cache-friendlier for
// the typical small sizes").
type hazardSnapshot struct {
	addrs []uintptr
}

func (s *hazardSnapshot) reset() {
	s.addrs = s.addrs[:0]
}

func (s *hazardSnapshot) insert(p unsafe.Pointer) {
	s.addrs = append(s.addrs, uintptr(p))
}

func (s *hazardSnapshot) finish() {
	sort.Slice(s.addrs, func(i, j int) bool { return s.addrs[i] < s.addrs[j] })
}

func (s *hazardSnapshot) contains(p unsafe.Pointer) bool {
	a := uintptr(p)
	i := sort.Search(len(s.addrs), func(i int) bool { return s.addrs[i] >= a })
	return i < len(s.addrs) && s.addrs[i] == a
}

// takeSnapshot walks the registry and records every currently protected
// address into scratch. Ordering: the per-cell load is acquire; combined
// with the release store in HazardCell.setProtected, the scanner observes
// every address that was protected before the scanner's own last
// synchronization point (spec.md §4.5 "Ordering").
func takeSnapshot(reg *Registry, scratch *hazardSnapshot) {
	scratch.reset()
	reg.ForEach(func(c *HazardCell) bool {
		if p, ok := c.loadProtected(); ok {
			scratch.insert(p)
		}
		return true
	})
	scratch.finish()
}

// runScan performs one ScanEngine pass for local: snapshot the registry,
// partition the retired buffer against the snapshot, reclaim the
// unprotected subset, keep the rest (spec.md §4.5). Returns the number of
// records reclaimed.
func runScan(local *Local) int {
	takeSnapshot(local.registry, &local.scratch)

	src := local.retired.records
	kept := src[:0]
	reclaimed := 0
	for _, rec := range src {
		if local.scratch.contains(rec.Addr) {
			kept = append(kept, rec)
			continue
		}
		rec.Del(rec.Addr)
		reclaimed++
	}
	local.retired.records = kept

	if reclaimed > 0 {
		hazlog.TraceIf("scan", "reclaimed %d records, %d still hazardous", reclaimed, len(kept))
	} else {
		hazlog.TraceIf("scan", "reclaimed nothing, %d still pending", len(kept))
	}
	return reclaimed
}
