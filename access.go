package hazptr

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unsafe"
)

// LocalAccess abstracts how a caller obtains the Local it operates
// against: the ambient, goroutine-keyed implicit store, or an explicit
// reference the caller threads through its own call stack (spec.md §9:
// "a LocalAccess capability with two variants: implicit... and
// explicit"). The ProtectionProtocol and Retire are polymorphic over this
// capability via the package-level helpers below.
type LocalAccess interface {
	local() (*Local, error)
}

type implicitAccess struct{}

func (implicitAccess) local() (*Local, error) { return implicitLocal() }

type explicitAccess struct{ l *Local }

func (e explicitAccess) local() (*Local, error) { return e.l, nil }

// Implicit returns a LocalAccess backed by the ambient per-goroutine
// store, keyed on a goroutine id the same way hazlog tags its log lines.
// This is the default access mode (spec.md §6, "environments with
// automatic thread-locals"). Under the no-automatic-thread-local build
// mode (HAZPTR_NO_AUTO_TLS=true or the no_auto_tls build tag), the
// returned LocalAccess fails on first use; callers in that mode must
// build a Local with NewLocal and use Explicit instead.
func Implicit() LocalAccess { return implicitAccess{} }

// Explicit returns a LocalAccess wrapping a caller-owned Local, for
// environments without automatic thread-locals, or callers who simply
// prefer to thread state explicitly (spec.md §6, "callers create a Local
// tied to a Global and pass it explicitly").
func Explicit(l *Local) LocalAccess { return explicitAccess{l: l} }

var implicitLocals sync.Map // goroutine id (int64) -> *Local

// implicitLocal returns (creating if necessary) the calling goroutine's
// Local against the process-wide DefaultGlobal. It fails under the
// no-automatic-thread-local build mode (spec.md §6), since that mode
// names exactly one legal way to obtain a Local: caller-supplied,
// via Explicit.
func implicitLocal() (*Local, error) {
	gid := goroutineID()
	if v, ok := implicitLocals.Load(gid); ok {
		return v.(*Local), nil
	}

	g, err := DefaultGlobal()
	if err != nil {
		return nil, err
	}
	return implicitLocalFor(g, gid)
}

// implicitLocalFor does the actual no-automatic-thread-local check and
// Local creation/caching for g and gid, split out from implicitLocal so
// the check can be exercised directly against a hand-built Global
// without going through the DefaultGlobal process-wide singleton.
func implicitLocalFor(g *Global, gid int64) (*Local, error) {
	if g.cfg.NoAutoTLS {
		return nil, fmt.Errorf("hazptr: implicit access is disabled under the no-automatic-thread-local build mode; create a Local with NewLocal and use Explicit instead")
	}

	l, err := NewLocal(g)
	if err != nil {
		return nil, err
	}
	implicitLocals.Store(gid, l)
	return l, nil
}

// Done runs the AbandonPath for the calling goroutine's implicit Local,
// if one was ever created, and forgets it. Callers using the implicit
// access mode should `defer hazptr.Done()` near the top of any goroutine
// that calls Protect/Retire, since Go, unlike the ambient-TLS source this
// library is modeled on, has no portable hook that runs when a goroutine
// returns.
func Done() {
	gid := goroutineID()
	if v, ok := implicitLocals.LoadAndDelete(gid); ok {
		v.(*Local).Close()
	}
}

// goroutineID extracts the current goroutine id from the runtime stack
// dump. Used only to key the implicit Local store, never for
// correctness: two goroutines never observe the same id concurrently.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := strings.Fields(string(buf[:n]))[1]
	id, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("hazptr: unexpected goroutine id format: %q", field))
	}
	return id
}

// AcquireProtection acquires a fresh Protection handle via access
// (spec.md §6 "protection()/guard()").
func AcquireProtection(access LocalAccess) (*Protection, error) {
	l, err := access.local()
	if err != nil {
		return nil, err
	}
	return l.Protection(), nil
}

// Retire enqueues addr for eventual reclamation via access (spec.md §6
// "retire(address, deleter)").
func Retire(access LocalAccess, addr unsafe.Pointer, del Deleter, meta any) error {
	l, err := access.local()
	if err != nil {
		return err
	}
	l.Retire(addr, del, meta)
	return nil
}
