package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/guardia-tools/notekeeper/internal/codec"
	"github.com/guardia-tools/notekeeper/internal/common"
)

// EnvelopeDelimiter separates the nonce and ciphertext halves of an
// envelope. The wire format is "<base64 nonce>:<base64 ciphertext+tag>",
// exactly one delimiter.
const EnvelopeDelimiter = ":"

// Encrypt serializes payload to its canonical string form (JSON, unless the
// payload already is a string), draws a fresh random nonce and seals the
// result with AES-GCM-256. Two calls with identical input produce different
// envelopes because the nonce is fresh per call.
func Encrypt(payload any, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrEncryption, KeySize, len(key))
	}

	var plaintext []byte
	if s, ok := payload.(string); ok {
		plaintext = []byte(s)
	} else {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrEncryption, err)
		}
		plaintext = b
	}

	nonce := common.GenerateRandByteArray(NonceSize)

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return codec.Encode(nonce) + EnvelopeDelimiter + codec.Encode(ciphertext), nil
}

// Decrypt opens an envelope produced by Encrypt and returns the payload:
// a map[string]any when the plaintext parses as a JSON object, the raw
// decrypted string otherwise. Both structured and plain-string payloads go
// through this one code path.
//
// A structurally invalid envelope yields common.ErrMalformedEnvelope. A
// wrong key, tampered ciphertext or truncated data yield
// common.ErrDecryption; GCM authentication makes these indistinguishable,
// and this error is the only way a caller learns the active key is wrong.
func Decrypt(envelope string, key []byte) (any, error) {
	plaintext, err := open(envelope, key)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(plaintext, &v); err != nil {
		return string(plaintext), nil
	}
	return v, nil
}

// DecryptInto opens an envelope and unmarshals the decrypted JSON into v.
// Used when the payload shape is known, e.g. a record's sensitive fields.
func DecryptInto(envelope string, key []byte, v any) error {
	plaintext, err := open(envelope, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: payload is not the expected shape: %v", common.ErrDecryption, err)
	}
	return nil
}

// IsEncrypted reports whether value looks like an envelope: exactly one
// delimiter with both halves matching the Base64 alphabet.
//
// This is a best-effort legacy/encrypted discriminator, not a security
// boundary. False positives and negatives are possible for malformed or
// attacker-controlled legacy data; callers must treat classification
// failure as "legacy", never as "encrypted".
func IsEncrypted(value string) bool {
	parts := strings.Split(value, EnvelopeDelimiter)
	if len(parts) != 2 {
		return false
	}
	return codec.LooksEncoded(parts[0]) && codec.LooksEncoded(parts[1])
}

func open(envelope string, key []byte) ([]byte, error) {
	parts := strings.Split(envelope, EnvelopeDelimiter)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected 2 parts, got %d", common.ErrMalformedEnvelope, len(parts))
	}

	nonce, err := codec.Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce encoding: %v", common.ErrMalformedEnvelope, err)
	}
	ciphertext, err := codec.Decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding: %v", common.ErrMalformedEnvelope, err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrMalformedEnvelope, NonceSize, len(nonce))
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
