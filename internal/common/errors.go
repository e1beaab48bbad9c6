// Package common defines shared constants and sentinel errors used across
// the notekeeper encryption core. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Crypto errors.
	ErrDerivation        = errors.New("key derivation failed")
	ErrEncryption        = errors.New("encryption failed")
	ErrDecryption        = errors.New("decryption failed")
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// Store-level errors.
	ErrNotFound = errors.New("not found")

	// Biometric gate errors.
	ErrNoCredential      = errors.New("no credential registered")
	ErrCeremonyCancelled = errors.New("ceremony cancelled by user")
	ErrUnsupported       = errors.New("platform authenticator unsupported")
	ErrPlatform          = errors.New("platform authenticator error")

	// Unlock errors. ErrLocked means no key could be obtained at all:
	// the user supplied no password and has no working biometric path.
	ErrLocked = errors.New("no key available, session remains locked")
)
