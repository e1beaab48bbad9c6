// Package keys manages the per-user salt lifecycle and turns a user secret
// into the session's symmetric key.
package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/guardia-tools/notekeeper/internal/codec"
	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/cryptox"
	"github.com/guardia-tools/notekeeper/internal/logging"
	"github.com/guardia-tools/notekeeper/internal/store"
)

// SaltSettingKey is the record-store settings key holding the user's salt,
// Base64-encoded on the wire.
const SaltSettingKey = "crypto.salt"

// Service provides salt management and key derivation against the record
// store's per-user settings area.
type Service struct {
	store store.Store
	log   logging.Logger
}

func NewService(st store.Store, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{store: st, log: log}
}

// GetOrCreateSalt returns the user's salt, generating and persisting a fresh
// 16-byte one on first use. The salt is immutable once created: every later
// derivation for this user must use these exact bytes or produce an
// unrelated key.
//
// The create path is read-then-write and deliberately not atomic: if two
// sessions race the very first unlock, the last write wins and one of them
// derives against a salt that was immediately replaced. That session fails
// its first decrypt and retries; nothing is corrupted because no data has
// been written under the losing salt yet.
func (s *Service) GetOrCreateSalt(ctx context.Context, userID string) ([]byte, error) {
	encoded, err := s.store.GetSetting(ctx, userID, SaltSettingKey)
	if err == nil {
		salt, err := codec.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("stored salt for %s is not valid Base64: %w", userID, err)
		}
		return salt, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	if err := s.store.PutSetting(ctx, userID, SaltSettingKey, codec.Encode(salt)); err != nil {
		return nil, fmt.Errorf("failed to persist salt: %w", err)
	}
	s.log.Info(ctx, "created salt for user", "user", userID)
	return salt, nil
}

// Derive stretches the secret with the given salt into the session key.
// It fails only on platform cryptographic failure, never on a wrong
// password: wrongness is undetectable here and only surfaces later as a
// decryption failure.
func (s *Service) Derive(secret, salt []byte) ([]byte, error) {
	return cryptox.DeriveKey(secret, salt)
}

// DeriveForUser resolves the user's salt and derives the key in one step.
// The secret is not consumed; the caller remains responsible for wiping it.
func (s *Service) DeriveForUser(ctx context.Context, userID string, secret []byte) ([]byte, error) {
	salt, err := s.GetOrCreateSalt(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Derive(secret, salt)
}
