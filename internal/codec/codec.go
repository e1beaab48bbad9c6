// Package codec provides the Base64 text encoding used by the envelope wire
// format and the session key cache. Standard alphabet, padded, strict.
package codec

import (
	"encoding/base64"
	"regexp"
)

// base64Pattern matches one or more standard-alphabet Base64 characters
// followed by optional padding. It deliberately does not validate length,
// matching the lenient classifier the stored data was written against.
var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

// Encode encodes bytes to standard Base64 with padding.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode decodes standard Base64 (with padding) to bytes.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// LooksEncoded reports whether s is plausibly Base64 text. This is a
// heuristic for classifying stored values, not a validity check: a short
// plain word like "abc" also matches.
func LooksEncoded(s string) bool {
	return base64Pattern.MatchString(s)
}
