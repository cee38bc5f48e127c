package hazptr

import (
	"testing"
	"unsafe"

	"hazptr/hazconfig"
)

func newTestGlobal(t *testing.T, cfg *hazconfig.Config) *Global {
	t.Helper()
	if cfg == nil {
		cfg = &hazconfig.Config{
			ScanThreshold:     hazconfig.DefaultScanThreshold,
			CountMode:         hazconfig.ByRetire,
			GarbagePolicy:     hazconfig.Shared,
			HazardPolicy:      hazconfig.SharedRegistry,
			SegmentSize:       hazconfig.DefaultSegmentSize,
			AbandonDrainBatch: hazconfig.DefaultAbandonDrainBatch,
			GuardCacheSize:    hazconfig.DefaultGuardCacheSize,
			LogLevel:          "error",
		}
	}
	g, err := NewGlobal(cfg)
	if err != nil {
		t.Fatalf("NewGlobal: %v", err)
	}
	return g
}

func TestRetireNoScanBelowThreshold(t *testing.T) {
	cfg := &hazconfig.Config{
		ScanThreshold: 100, CountMode: hazconfig.ByRetire, GarbagePolicy: hazconfig.Shared,
		HazardPolicy: hazconfig.SharedRegistry, SegmentSize: 31, AbandonDrainBatch: 32,
		GuardCacheSize: 4, LogLevel: "error",
	}
	g := newTestGlobal(t, cfg)
	l, err := NewLocal(g)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	var x int
	deleted := false
	for i := 0; i < 99; i++ {
		l.Retire(unsafe.Pointer(&x), func(unsafe.Pointer) { deleted = true }, nil)
	}
	if deleted {
		t.Fatal("no scan should have run before the 100th retire")
	}
	if l.Pending() != 99 {
		t.Fatalf("expected 99 pending records, got %d", l.Pending())
	}

	l.Retire(unsafe.Pointer(&x), func(unsafe.Pointer) { deleted = true }, nil)
	if !deleted {
		t.Fatal("expected a scan on the 100th retire")
	}
}

func TestThresholdOneScansEveryRetire(t *testing.T) {
	cfg := &hazconfig.Config{
		ScanThreshold: 1, CountMode: hazconfig.ByRetire, GarbagePolicy: hazconfig.Shared,
		HazardPolicy: hazconfig.SharedRegistry, SegmentSize: 31, AbandonDrainBatch: 32,
		GuardCacheSize: 4, LogLevel: "error",
	}
	g := newTestGlobal(t, cfg)
	l, _ := NewLocal(g)

	var x int
	reclaimed := 0
	l.Retire(unsafe.Pointer(&x), func(unsafe.Pointer) { reclaimed++ }, nil)
	if reclaimed != 1 {
		t.Fatalf("expected immediate reclamation with threshold 1, got %d", reclaimed)
	}
	if l.Pending() != 0 {
		t.Fatalf("expected no pending records, got %d", l.Pending())
	}
}

func TestUnprotectedRetiredRecordIsReclaimed(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	var x int
	reclaimed := false
	l.Retire(unsafe.Pointer(&x), func(unsafe.Pointer) { reclaimed = true }, nil)
	l.Scan()

	if !reclaimed {
		t.Fatal("an address with no live hazard should be reclaimed on scan")
	}
}

func TestProtectedRetiredRecordSurvivesScan(t *testing.T) {
	g := newTestGlobal(t, nil)
	writer, _ := NewLocal(g)
	reader, _ := NewLocal(g)

	var x int
	addr := unsafe.Pointer(&x)
	source := addr

	guard := reader.Protection()
	got := guard.Protect(&source)
	if got != addr {
		t.Fatalf("expected to protect %p, got %p", addr, got)
	}

	reclaimed := false
	writer.Retire(addr, func(unsafe.Pointer) { reclaimed = true }, nil)
	writer.Scan()

	if reclaimed {
		t.Fatal("a record protected by a live hazard must not be reclaimed")
	}
	if writer.Pending() != 1 {
		t.Fatalf("expected the record to remain pending, got %d", writer.Pending())
	}

	guard.Release()
	writer.Scan()
	if !reclaimed {
		t.Fatal("expected reclamation once the hazard was released")
	}
}

func TestRetireZeroAndScanIsNoOp(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	if n := l.Scan(); n != 0 {
		t.Fatalf("expected scanning an empty buffer to reclaim nothing, got %d", n)
	}
}
