// Package services wires the crypto primitives, the session state and the
// record store into the three user-facing flows: unlocking, record
// read/write and the legacy migration.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/guardia-tools/notekeeper/internal/biometric"
	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/keys"
	"github.com/guardia-tools/notekeeper/internal/logging"
	"github.com/guardia-tools/notekeeper/internal/session"
)

// SecretPrompter obtains the user's password. Implementations must not
// retain the returned bytes; the unlock flow owns and wipes them.
type SecretPrompter interface {
	ReadSecret(ctx context.Context, prompt string) ([]byte, error)
}

// ConsentPrompter asks the user a yes/no question, e.g. whether to enroll
// the platform authenticator after a successful password unlock.
type ConsentPrompter interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// UnlockService establishes and tears down sessions. The order of unlock
// paths is fixed: cached key behind a biometric presence check first, then
// the password, then locked.
type UnlockService struct {
	keys     *keys.Service
	sessions *session.Manager
	cache    *session.KeyCache
	gate     *biometric.Gate
	secrets  SecretPrompter
	consent  ConsentPrompter
	log      logging.Logger
}

func NewUnlockService(
	keySvc *keys.Service,
	sessions *session.Manager,
	cache *session.KeyCache,
	gate *biometric.Gate,
	secrets SecretPrompter,
	consent ConsentPrompter,
	log logging.Logger,
) *UnlockService {
	if log == nil {
		log = logging.Nop{}
	}
	return &UnlockService{
		keys:     keySvc,
		sessions: sessions,
		cache:    cache,
		gate:     gate,
		secrets:  secrets,
		consent:  consent,
		log:      log,
	}
}

// Unlock establishes a session for userID.
//
// Fast path: a registered credential plus a cached key. The presence check
// runs first; only on success is the cached key released. An assertion
// failure, a missing cache entry or a missing credential all fall through
// to the password path silently.
//
// Password path: the typed password is stretched against the user's salt
// and the result becomes both the active session key and the cache entry
// for the next fast-path unlock. A wrong password is not detectable here;
// it surfaces as decryption failures downstream.
//
// Returns common.ErrLocked when no path produced a key.
func (s *UnlockService) Unlock(ctx context.Context, userID string) (*session.Session, error) {
	if s.gate != nil && s.gate.Authenticate(ctx, userID) {
		key, err := s.cache.Take(userID)
		if err == nil {
			sess := s.sessions.Activate(userID, key)
			common.WipeByteArray(key)
			s.log.Info(ctx, "unlocked via cached key", "user", userID, "session", sess.Version())
			return sess, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "cached key unusable, falling back to password", "user", userID, "error", err)
		}
	}

	sess, err := s.unlockWithPassword(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.offerEnrollment(ctx, userID)
	return sess, nil
}

func (s *UnlockService) unlockWithPassword(ctx context.Context, userID string) (*session.Session, error) {
	if s.secrets == nil {
		return nil, common.ErrLocked
	}
	secret, err := s.secrets.ReadSecret(ctx, "Password: ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLocked, err)
	}
	if len(secret) == 0 {
		return nil, common.ErrLocked
	}
	defer common.WipeByteArray(secret)

	key, err := s.keys.DeriveForUser(ctx, userID, secret)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	if err := s.cache.Put(userID, key); err != nil {
		// the session still works, only the next fast path is lost
		s.log.Warn(ctx, "failed to cache session key", "user", userID, "error", err)
	}

	sess := s.sessions.Activate(userID, key)
	s.log.Info(ctx, "unlocked via password", "user", userID, "session", sess.Version())
	return sess, nil
}

// offerEnrollment proposes biometric enrollment once, strictly after a
// successful password unlock. Declines and ceremony failures are logged
// and swallowed; the session is already established.
func (s *UnlockService) offerEnrollment(ctx context.Context, userID string) {
	if s.gate == nil || s.consent == nil || s.gate.Registered(ctx, userID) {
		return
	}
	ok, err := s.consent.Confirm(ctx, "Enable biometric unlock for this device?")
	if err != nil || !ok {
		return
	}
	if _, err := s.gate.Register(ctx, userID, userID); err != nil {
		s.log.Warn(ctx, "biometric enrollment failed", "user", userID, "error", err)
	}
}

// Logout drops the session and the cached key. The biometric credential
// stays registered; without a cache entry it cannot release anything until
// the next password unlock repopulates the cache.
func (s *UnlockService) Logout(ctx context.Context) {
	if cur := s.sessions.Current(); cur != nil {
		s.cache.Drop(cur.UserID())
		s.log.Info(ctx, "logged out", "user", cur.UserID(), "session", cur.Version())
	}
	s.sessions.Clear()
}
