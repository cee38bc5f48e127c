package examples

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hazptr"
	"hazptr/hazconfig"
)

func newTestAccess(t *testing.T) hazptr.LocalAccess {
	t.Helper()
	g, err := hazptr.NewGlobal(&hazconfig.Config{
		ScanThreshold: hazconfig.DefaultScanThreshold, CountMode: hazconfig.ByRetire,
		GarbagePolicy: hazconfig.Shared, HazardPolicy: hazconfig.SharedRegistry,
		SegmentSize: hazconfig.DefaultSegmentSize, AbandonDrainBatch: hazconfig.DefaultAbandonDrainBatch,
		GuardCacheSize: hazconfig.DefaultGuardCacheSize, LogLevel: "error",
	})
	require.NoError(t, err)
	l, err := hazptr.NewLocal(g)
	require.NoError(t, err)
	return hazptr.Explicit(l)
}

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack(newTestAccess(t))

	s.Push(1)
	s.Push(2)
	s.Push(3)

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := s.Pop()
	require.False(t, ok, "expected an empty stack after draining every push")
}

func TestStackPopTagsAreUnique(t *testing.T) {
	s := NewStack(newTestAccess(t))
	s.Push("a")
	s.Push("b")

	tags := map[uuid.UUID]bool{}
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		top := s.head.Load()
		require.NotNil(t, top)
		tags[top.Tag] = true
		v, ok := s.Pop()
		require.True(t, ok)
		seen[v.(string)] = true
	}
	require.Len(t, seen, 2)
	require.Len(t, tags, 2)
}
