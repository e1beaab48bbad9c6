// Package session holds the one piece of shared mutable state in the core:
// the active derived key. It is wrapped in an immutable Session value that
// is replaced wholesale on unlock and cleared wholesale on logout, so
// readers always observe either the previous complete key or the new one,
// never a mix.
package session

import "sync/atomic"

// Session is an immutable snapshot of an unlocked state: one user, one
// derived key, one version number. Never mutate a Session; replace it
// through the Manager.
//
// The key buffer is intentionally not zeroed when a session is replaced: a
// reader that loaded the old Session may still be inside an encrypt call,
// and wiping the shared slice under it would silently produce ciphertext
// under a zeroed key. Replaced sessions are simply released to the garbage
// collector. Buffers with a single owner (typed passwords, cache exports)
// are wiped at their owning call sites instead.
type Session struct {
	userID  string
	version uint64
	key     []byte
}

// UserID returns the user this session was unlocked for.
func (s *Session) UserID() string { return s.userID }

// Version returns the monotonically increasing unlock counter.
func (s *Session) Version() uint64 { return s.version }

// Key returns the derived key bytes. Callers must treat the slice as
// read-only; it is shared by everything holding this Session.
func (s *Session) Key() []byte { return s.key }

// Manager owns the current Session pointer. All swaps are atomic.
type Manager struct {
	current atomic.Pointer[Session]
	version atomic.Uint64
}

func NewManager() *Manager {
	return &Manager{}
}

// Activate installs a new session for userID with the given key, replacing
// any previous one. The key slice is copied; the caller may wipe its copy.
func (m *Manager) Activate(userID string, key []byte) *Session {
	k := make([]byte, len(key))
	copy(k, key)
	s := &Session{
		userID:  userID,
		version: m.version.Add(1),
		key:     k,
	}
	m.current.Store(s)
	return s
}

// Clear drops the current session. Safe to call when already locked.
func (m *Manager) Clear() {
	m.current.Store(nil)
}

// Current returns the active session, or nil when locked.
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// Active reports whether s is still the installed session. Long-running
// loops such as a migration batch call this before each step so a logout
// mid-flight aborts the remainder.
func (m *Manager) Active(s *Session) bool {
	return s != nil && m.current.Load() == s
}
