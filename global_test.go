package hazptr

import (
	"testing"

	"hazptr/hazconfig"
)

func TestRegistryForSharedPolicyIgnoresStructureKey(t *testing.T) {
	g := newTestGlobal(t, nil) // SharedRegistry by default

	type structA struct{}
	type structB struct{}
	a, b := &structA{}, &structB{}

	if got := g.RegistryFor(a); got != g.Registry() {
		t.Fatal("expected SharedRegistry to hand out the shared registry regardless of structureKey")
	}
	if got := g.RegistryFor(b); got != g.Registry() {
		t.Fatal("expected SharedRegistry to hand out the shared registry regardless of structureKey")
	}
}

func TestRegistryForPerStructurePolicyIsolatesKeys(t *testing.T) {
	cfg := &hazconfig.Config{
		ScanThreshold: hazconfig.DefaultScanThreshold, CountMode: hazconfig.ByRetire,
		GarbagePolicy: hazconfig.Shared, HazardPolicy: hazconfig.PerStructureRegistry,
		SegmentSize: hazconfig.DefaultSegmentSize, AbandonDrainBatch: hazconfig.DefaultAbandonDrainBatch,
		GuardCacheSize: hazconfig.DefaultGuardCacheSize, LogLevel: "error",
	}
	g := newTestGlobal(t, cfg)

	type structA struct{}
	type structB struct{}
	a, b := &structA{}, &structB{}

	ra := g.RegistryFor(a)
	rb := g.RegistryFor(b)
	if ra == rb {
		t.Fatal("expected distinct structureKeys to get distinct registries under PerStructureRegistry")
	}
	if got := g.RegistryFor(a); got != ra {
		t.Fatal("expected RegistryFor to be stable across calls for the same structureKey")
	}
	if got := g.RegistryFor(nil); got != g.Registry() {
		t.Fatal("expected a nil structureKey to always fall back to the shared registry")
	}
}

func TestNewLocalForUsesIsolatedRegistry(t *testing.T) {
	cfg := &hazconfig.Config{
		ScanThreshold: hazconfig.DefaultScanThreshold, CountMode: hazconfig.ByRetire,
		GarbagePolicy: hazconfig.Shared, HazardPolicy: hazconfig.PerStructureRegistry,
		SegmentSize: hazconfig.DefaultSegmentSize, AbandonDrainBatch: hazconfig.DefaultAbandonDrainBatch,
		GuardCacheSize: hazconfig.DefaultGuardCacheSize, LogLevel: "error",
	}
	g := newTestGlobal(t, cfg)

	type structA struct{}
	key := &structA{}

	l, err := NewLocalFor(g, key)
	if err != nil {
		t.Fatalf("NewLocalFor: %v", err)
	}
	if l.registry != g.RegistryFor(key) {
		t.Fatal("expected Local to acquire cells from the registry bound to its structureKey")
	}
	if l.registry == g.Registry() {
		t.Fatal("expected Local's isolated registry to differ from the Global's shared registry")
	}
}
