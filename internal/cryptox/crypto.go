// Package cryptox implements the cryptographic core: password-based key
// derivation and the authenticated envelope cipher used for every record
// read and write.
package cryptox

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/guardia-tools/notekeeper/internal/common"
)

const (
	// KeySize is the derived AES key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the per-user salt length in bytes.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12

	// Iterations is the fixed PBKDF2 iteration count. Changing it changes
	// every derived key, so it is part of the stored-data format.
	Iterations = 100_000
)

// DeriveKey stretches a user secret into a 256-bit AES key using
// PBKDF2-HMAC-SHA256 with the fixed iteration count.
//
// The same (secret, salt) pair always yields a bit-identical key; any
// difference in either input yields a computationally unrelated key. There
// is no way to detect a wrong password here: wrongness only surfaces later
// as a Decrypt failure.
func DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", common.ErrDerivation)
	}
	return pbkdf2.Key(secret, salt, Iterations, KeySize, sha256.New), nil
}
