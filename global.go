package hazptr

import (
	"fmt"
	"sync"

	"hazptr/hazconfig"
	"hazptr/hazlog"
)

// Global is the shared state a family of Locals reclaims against: the
// HazardRegistry and this Global's abandoned-records list (spec.md §9:
// "a Global owned by the library... plus thread-local handles; in the
// explicit-reference mode, the caller owns the Global and LocalStates are
// bounded by its lifetime").
type Global struct {
	cfg       *hazconfig.Config
	registry  *Registry
	abandoned *abandonedList

	// structureRegistries holds one Registry per structureKey, lazily
	// created, used only under hazconfig.PerStructureRegistry.
	structureRegistries sync.Map // any -> *Registry
}

// NewGlobal creates a Global from cfg. A nil cfg loads configuration from
// the environment via hazconfig.Load, matching spec.md §4.7's "evaluated
// once" contract. Callers that want multiple independently-configured
// Globals in one process must build distinct *hazconfig.Config values
// themselves.
func NewGlobal(cfg *hazconfig.Config) (*Global, error) {
	if cfg == nil {
		loaded, err := hazconfig.Load()
		if err != nil {
			return nil, fmt.Errorf("hazptr: %w", err)
		}
		cfg = loaded
	}
	if err := hazlog.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("hazptr: %w", err)
	}
	hazlog.Configure() // picks up HAZPTR_TRACE_SUBSYSTEMS, if set
	return &Global{
		cfg:       cfg,
		registry:  NewRegistry(cfg.SegmentSize),
		abandoned: newAbandonedList(),
	}, nil
}

// Registry returns the Global's shared HazardRegistry, mainly for callers
// that want to poll Stats() without threading a Local through. Under
// hazconfig.PerStructureRegistry this is still the shared registry used
// by Locals created without a structure key; it does not include any
// per-structure registries handed out by RegistryFor.
func (g *Global) Registry() *Registry { return g.registry }

// RegistryFor returns the Registry a Local bound to structureKey should
// acquire hazard cells from (spec.md §9: "a tagged variant on Global and
// LocalState" selecting "where hazards live: shared vs per-data-
// structure"). Under hazconfig.SharedRegistry, the default, every key
// maps to the one process-wide Registry. Under
// hazconfig.PerStructureRegistry, each distinct non-nil structureKey gets
// its own Registry, created lazily on first use, so one data structure's
// hazard traffic is never visible to another's scan; a nil structureKey
// always falls back to the shared registry regardless of policy, since
// there is no structure instance to isolate.
func (g *Global) RegistryFor(structureKey any) *Registry {
	if g.cfg.HazardPolicy != hazconfig.PerStructureRegistry || structureKey == nil {
		return g.registry
	}
	if v, ok := g.structureRegistries.Load(structureKey); ok {
		return v.(*Registry)
	}
	fresh := NewRegistry(g.cfg.SegmentSize)
	actual, _ := g.structureRegistries.LoadOrStore(structureKey, fresh)
	return actual.(*Registry)
}

var (
	defaultGlobalOnce sync.Once
	defaultGlobal     *Global
	defaultGlobalErr  error
)

// DefaultGlobal returns the process-wide Global backing the implicit
// LocalAccess variant, building it from the environment on first use.
func DefaultGlobal() (*Global, error) {
	defaultGlobalOnce.Do(func() {
		defaultGlobal, defaultGlobalErr = NewGlobal(nil)
	})
	return defaultGlobal, defaultGlobalErr
}
