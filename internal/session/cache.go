package session

import (
	"fmt"
	"sync"

	"github.com/guardia-tools/notekeeper/internal/codec"
	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/cryptox"
)

// KeyCache holds an exportable copy of the derived key for the lifetime of
// a device session, so a returning user can unlock via a biometric presence
// check instead of retyping the password. Keys are stored Base64-encoded,
// at most one entry per user.
//
// Security model, accepted boundary: once a key is cached, a successful
// presence check is sufficient to release it. The biometric factor buys
// convenience, not key secrecy — anything that can read this process's
// memory defeats it regardless of biometric state. The cache therefore
// lives strictly in process memory and is dropped on logout or exit.
type KeyCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewKeyCache() *KeyCache {
	return &KeyCache{entries: make(map[string]string)}
}

// Put exports the key's raw bytes into the cache, replacing any previous
// entry for userID.
func (c *KeyCache) Put(userID string, key []byte) error {
	if len(key) != cryptox.KeySize {
		return fmt.Errorf("refusing to cache key of %d bytes, want %d", len(key), cryptox.KeySize)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = codec.Encode(key)
	return nil
}

// Take re-imports the cached key for userID. Returns common.ErrNotFound
// when no entry exists. The entry stays cached so the next presence check
// can release it again; it disappears only via Drop or Clear.
func (c *KeyCache) Take(userID string) ([]byte, error) {
	c.mu.Lock()
	encoded, ok := c.entries[userID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session key for %s: %w", userID, common.ErrNotFound)
	}

	key, err := codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("cached key for %s is corrupt: %w", userID, err)
	}
	return key, nil
}

// Drop removes the entry for userID, e.g. on logout.
func (c *KeyCache) Drop(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Clear removes every entry.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}
