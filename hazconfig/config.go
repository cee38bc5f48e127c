// Package hazconfig provides the startup-time configuration surface for the
// hazptr reclamation engine.
//
// Unlike a long-running service's configuration, hazptr's configuration is
// evaluated exactly once (spec.md §4.7: "threads do not reconfigure at
// runtime") and read from environment variables only. There is no
// database-backed or flag-based tier, since the engine has no process
// lifecycle of its own to hang a CLI or config-reload signal off of.
package hazconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CountMode selects what drives the scan-threshold counter.
type CountMode string

const (
	// ByRetire increments the counter on every retire call (default).
	ByRetire CountMode = "by-retire"
	// ByRelease increments the counter on every hazard release instead.
	ByRelease CountMode = "by-release"
)

// GarbagePolicy selects where abandoned residue accumulates.
type GarbagePolicy string

const (
	// PerThread leaks undrained residue locally (local-garbage-only).
	PerThread GarbagePolicy = "per-thread"
	// Shared deposits residue into a process-wide abandoned list for any
	// other Local to drain. This is the default.
	Shared GarbagePolicy = "shared"
)

// HazardPolicy selects whether hazard cells live in one registry shared by
// every data structure, or one registry per data structure instance.
type HazardPolicy string

const (
	// SharedRegistry is the default: one HazardRegistry for the process.
	SharedRegistry HazardPolicy = "shared"
	// PerStructureRegistry gives each data structure its own registry.
	PerStructureRegistry HazardPolicy = "per-structure"
)

// DefaultScanThreshold is used when HAZPTR_SCAN_THRESHOLD is unset, per
// spec.md §6: "Absent ⇒ 100."
const DefaultScanThreshold = 100

// DefaultSegmentSize matches spec.md §3's "recommended 31 cells".
const DefaultSegmentSize = 31

// DefaultAbandonDrainBatch bounds how many abandoned entries a single
// retire/scan call will drain (spec.md §4.6 item 4: "a bounded number").
const DefaultAbandonDrainBatch = 32

// DefaultGuardCacheSize is how many released hazard cells a Local keeps
// warm for reuse before releasing them back to the registry.
const DefaultGuardCacheSize = 4

// defaultCountMode and defaultNoAutoTLS are the fallback values Load uses
// when their environment variables are unset. They are package vars, not
// consts, so the count_release and no_auto_tls build tags (build_tags.go,
// build_tags_no_auto_tls.go) can override them in an init func without touching Load itself.
var (
	defaultCountMode = ByRetire
	defaultNoAutoTLS = false
)

// Config holds the resolved configuration for one Global/Local pairing.
//
// All values have sensible defaults and are overridden by environment
// variables read once at Load time. There is no runtime reconfiguration.
type Config struct {
	// ScanThreshold is how many counted ops trigger a scan.
	// Environment: HAZPTR_SCAN_THRESHOLD
	// Default: 100
	ScanThreshold int32

	// CountMode selects by-retire (default) or by-release counting.
	// Environment: HAZPTR_COUNT_MODE
	// Default: "by-retire"
	CountMode CountMode

	// GarbagePolicy selects where AbandonPath deposits undrained residue.
	// Environment: HAZPTR_GARBAGE_POLICY
	// Default: "shared"
	GarbagePolicy GarbagePolicy

	// HazardPolicy selects shared vs per-structure registries.
	// Environment: HAZPTR_HAZARD_POLICY
	// Default: "shared"
	HazardPolicy HazardPolicy

	// SegmentSize is the number of cells per registry segment.
	// Environment: HAZPTR_SEGMENT_SIZE
	// Default: 31
	SegmentSize int

	// AbandonDrainBatch bounds entries drained from the abandoned list
	// per retire/scan call.
	// Environment: HAZPTR_ABANDON_DRAIN_BATCH
	// Default: 32
	AbandonDrainBatch int

	// GuardCacheSize is how many released cells a Local keeps warm.
	// Environment: HAZPTR_GUARD_CACHE_SIZE
	// Default: 4
	GuardCacheSize int

	// LogLevel sets hazlog's minimum level.
	// Environment: HAZPTR_LOG_LEVEL
	// Default: "info"
	LogLevel string

	// NoAutoTLS selects the explicit-reference LocalAccess variant instead
	// of the ambient goroutine-keyed one (spec.md §6's "no-automatic-
	// thread-local" build mode).
	// Environment: HAZPTR_NO_AUTO_TLS
	// Default: false
	NoAutoTLS bool
}

// Load builds a Config from environment variables, falling back to the
// documented defaults, and validates each selection on its own: count
// mode, garbage policy and hazard policy must be known values, and the
// scan threshold and segment size must be at least 1. No check relates
// one selection to another.
func Load() (*Config, error) {
	cfg := &Config{
		ScanThreshold:     int32(getEnvInt("HAZPTR_SCAN_THRESHOLD", DefaultScanThreshold)),
		CountMode:         CountMode(getEnv("HAZPTR_COUNT_MODE", string(defaultCountMode))),
		GarbagePolicy:     GarbagePolicy(getEnv("HAZPTR_GARBAGE_POLICY", string(Shared))),
		HazardPolicy:      HazardPolicy(getEnv("HAZPTR_HAZARD_POLICY", string(SharedRegistry))),
		SegmentSize:       getEnvInt("HAZPTR_SEGMENT_SIZE", DefaultSegmentSize),
		AbandonDrainBatch: getEnvInt("HAZPTR_ABANDON_DRAIN_BATCH", DefaultAbandonDrainBatch),
		GuardCacheSize:    getEnvInt("HAZPTR_GUARD_CACHE_SIZE", DefaultGuardCacheSize),
		LogLevel:          getEnv("HAZPTR_LOG_LEVEL", "info"),
		NoAutoTLS:         getEnvBool("HAZPTR_NO_AUTO_TLS", defaultNoAutoTLS),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CountMode {
	case ByRetire, ByRelease:
	default:
		return fmt.Errorf("hazconfig: invalid count mode %q", c.CountMode)
	}
	switch c.GarbagePolicy {
	case PerThread, Shared:
	default:
		return fmt.Errorf("hazconfig: invalid garbage policy %q", c.GarbagePolicy)
	}
	switch c.HazardPolicy {
	case SharedRegistry, PerStructureRegistry:
	default:
		return fmt.Errorf("hazconfig: invalid hazard policy %q", c.HazardPolicy)
	}
	if c.ScanThreshold < 1 {
		return fmt.Errorf("hazconfig: scan threshold must be >= 1, got %d", c.ScanThreshold)
	}
	if c.SegmentSize < 1 {
		return fmt.Errorf("hazconfig: segment size must be >= 1, got %d", c.SegmentSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return defaultValue
}
