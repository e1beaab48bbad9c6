// Package models defines the record types shared by the store, the cipher
// and the migration engine.
package models

import "time"

// EncryptedVersion is the current envelope format version, stored alongside
// the envelope (not inside it) so the format can change later.
const EncryptedVersion = 1

// Sensitive is the canonical payload shape of a record's protected fields.
// It is what gets serialized, encrypted and stored as the envelope.
type Sensitive struct {
	Location       string `json:"interventionLocation"`
	DocumentNumber string `json:"documentNumber"`
	FullName       string `json:"fullName"`
	BirthPlace     string `json:"birthPlace"`
	Birthdate      string `json:"birthdate"`
	ParentsName    string `json:"parentsName"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	BodyHTML       string `json:"factsHtml"`
	BodyText       string `json:"factsText"`
}

// IsZero reports whether every sensitive field is empty.
func (s Sensitive) IsZero() bool {
	return s == Sensitive{}
}

// Record is one logical note. Identifier, tags and creation time are always
// stored in clear. The sensitive payload is either present in clear with no
// flag (a legacy record) or replaced by the envelope plus the encrypted
// flag and version. A record transitions legacy → encrypted exactly once
// and never back.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`

	IsEncrypted      bool   `json:"isEncrypted"`
	EncryptedVersion int    `json:"encryptedVersion"`
	EncryptedData    string `json:"encryptedData"`

	// Plaintext sensitive fields, populated only on legacy records.
	Sensitive Sensitive `json:"sensitive"`
}

// IsLegacy reports whether the record still carries plaintext sensitive
// fields. The explicit flag is the per-record source of truth; the
// cryptox.IsEncrypted string heuristic only classifies a single value.
func (r Record) IsLegacy() bool {
	return !r.IsEncrypted
}

// Patch is a partial record update as consumed by the store. Nil fields are
// left untouched.
type Patch struct {
	IsEncrypted      *bool      `json:"isEncrypted,omitempty"`
	EncryptedVersion *int       `json:"encryptedVersion,omitempty"`
	EncryptedData    *string    `json:"encryptedData,omitempty"`
	Sensitive        *Sensitive `json:"sensitive,omitempty"`
	Tags             *[]string  `json:"tags,omitempty"`
}

// EncryptedPatch builds the single update that flips a record to its
// encrypted form: flag and version set, envelope written, every plaintext
// sensitive field cleared.
func EncryptedPatch(envelope string) Patch {
	enc := true
	version := EncryptedVersion
	empty := Sensitive{}
	return Patch{
		IsEncrypted:      &enc,
		EncryptedVersion: &version,
		EncryptedData:    &envelope,
		Sensitive:        &empty,
	}
}

// Apply copies the patch onto r.
func (p Patch) Apply(r *Record) {
	if p.IsEncrypted != nil {
		r.IsEncrypted = *p.IsEncrypted
	}
	if p.EncryptedVersion != nil {
		r.EncryptedVersion = *p.EncryptedVersion
	}
	if p.EncryptedData != nil {
		r.EncryptedData = *p.EncryptedData
	}
	if p.Sensitive != nil {
		r.Sensitive = *p.Sensitive
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
}
