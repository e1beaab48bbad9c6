package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guardia-tools/notekeeper/internal/common"
)

func TestManager_ActivateAndClear(t *testing.T) {
	m := NewManager()
	require.Nil(t, m.Current())

	key := []byte("0123456789abcdef0123456789abcdef")
	s := m.Activate("alice", key)

	require.Equal(t, "alice", s.UserID())
	require.Equal(t, key, s.Key())
	require.Same(t, s, m.Current())
	require.True(t, m.Active(s))

	m.Clear()
	require.Nil(t, m.Current())
	require.False(t, m.Active(s))
}

func TestManager_ActivateCopiesKey(t *testing.T) {
	m := NewManager()
	key := []byte("0123456789abcdef0123456789abcdef")
	s := m.Activate("alice", key)

	common.WipeByteArray(key)
	require.NotEqual(t, key, s.Key(), "session keeps its own copy")
}

func TestManager_ReplacementInvalidatesOldSession(t *testing.T) {
	m := NewManager()
	s1 := m.Activate("alice", []byte("key-one"))
	s2 := m.Activate("alice", []byte("key-two"))

	require.False(t, m.Active(s1))
	require.True(t, m.Active(s2))
	require.Greater(t, s2.Version(), s1.Version())
}

func TestManager_ActiveNilSession(t *testing.T) {
	m := NewManager()
	require.False(t, m.Active(nil))
}
