package hazptr

import (
	"testing"
	"unsafe"
)

func TestProtectNilSource(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	var source unsafe.Pointer
	guard := l.Protection()
	defer guard.Release()

	if got := guard.Protect(&source); got != nil {
		t.Fatalf("expected nil for an empty source, got %p", got)
	}
}

func TestProtectReturnsVerifiedAddress(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	var x int
	source := unsafe.Pointer(&x)
	guard := l.Protection()
	defer guard.Release()

	got := guard.Protect(&source)
	if got != unsafe.Pointer(&x) {
		t.Fatalf("expected %p, got %p", &x, got)
	}
}

func TestProtectUsesSourceValueCurrentAtCall(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	var a, b int
	source := unsafe.Pointer(&a)

	guard := l.Protection()
	defer guard.Release()

	// change the source to a different address after the guard is taken
	// but before Protect is called; Protect must publish and return the
	// value current when it runs, not the source's earlier value.
	source = unsafe.Pointer(&b)
	got := guard.Protect(&source)
	if got != unsafe.Pointer(&b) {
		t.Fatalf("expected to protect the latest value %p, got %p", &b, got)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := newTestGlobal(t, nil)
	l, _ := NewLocal(g)

	guard := l.Protection()
	guard.Release()
	guard.Release() // must not panic or double-free the cell
}
