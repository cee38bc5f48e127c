package examples

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetInsertFindErase(t *testing.T) {
	s := NewSet(newTestAccess(t))

	require.True(t, s.Insert(5))
	require.False(t, s.Insert(5), "inserting an existing key must report false")
	require.True(t, s.Find(5))
	require.False(t, s.Find(6))

	require.True(t, s.Erase(5))
	require.False(t, s.Find(5))
	require.False(t, s.Erase(5), "erasing an absent key must report false")
}

func TestSetKeepsSortedTraversalStoppingEarly(t *testing.T) {
	s := NewSet(newTestAccess(t))
	for _, k := range []int{30, 10, 20} {
		require.True(t, s.Insert(k))
	}

	require.True(t, s.Find(10))
	require.True(t, s.Find(20))
	require.True(t, s.Find(30))
	require.False(t, s.Find(25))
}

func TestSetEraseUnlinksForSubsequentInsert(t *testing.T) {
	s := NewSet(newTestAccess(t))
	require.True(t, s.Insert(1))
	require.True(t, s.Erase(1))
	require.True(t, s.Insert(1), "the key must be insertable again once erased")
	require.True(t, s.Find(1))
}
