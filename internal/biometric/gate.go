// Package biometric implements the platform-credential gate: an explicit
// registration ceremony binding a device authenticator to a user, and an
// assertion ceremony proving presence at the device.
//
// The gate never holds key material. A successful assertion only authorizes
// release of the session key cache entry; it proves presence, not knowledge
// of the derived key.
package biometric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/localstore"
	"github.com/guardia-tools/notekeeper/internal/logging"
)

// Credential is an opaque platform-issued descriptor bound to one user.
// Only its public identifier is persisted, and only locally — it never
// enters the shared record store.
type Credential struct {
	ID           string    `json:"id"`
	RawID        string    `json:"rawId"`
	Type         string    `json:"type"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Authenticator abstracts the platform create-credential / get-assertion
// ceremony API. The host injects an implementation; the gate's contract
// stays a boolean outcome plus typed failure reasons, independent of how
// the host presents prompts.
type Authenticator interface {
	// Available reports whether the platform has a usable authenticator.
	Available() bool

	// CreateCredential runs the attestation ceremony. Failures are reported
	// as common.ErrCeremonyCancelled, common.ErrUnsupported or
	// common.ErrPlatform (possibly wrapped).
	CreateCredential(ctx context.Context, userID, displayName string) (Credential, error)

	// Assert runs the assertion ceremony against a stored credential and
	// returns nil iff the platform confirms user presence/verification.
	// common.ErrNoCredential means the platform revoked the credential.
	Assert(ctx context.Context, cred Credential) error
}

// DefaultCeremonyTimeout bounds how long a ceremony may sit unanswered
// before it is treated as declined.
const DefaultCeremonyTimeout = 60 * time.Second

const credentialKeyPrefix = "biometric_credential_"

// Gate ties the platform authenticator to locally persisted credential
// descriptors.
type Gate struct {
	auth    Authenticator
	creds   localstore.Repository
	timeout time.Duration
	log     logging.Logger
}

func NewGate(auth Authenticator, creds localstore.Repository, timeout time.Duration, log logging.Logger) *Gate {
	if timeout <= 0 {
		timeout = DefaultCeremonyTimeout
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Gate{auth: auth, creds: creds, timeout: timeout, log: log}
}

// Register runs the attestation ceremony and persists the resulting
// credential descriptor. Callers must only offer it after a successful
// password unlock in the same session; it never substitutes for proving
// knowledge of the password the first time.
func (g *Gate) Register(ctx context.Context, userID, displayName string) (Credential, error) {
	if !g.auth.Available() {
		return Credential{}, common.ErrUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cred, err := g.auth.CreateCredential(ctx, userID, displayName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Credential{}, fmt.Errorf("%w: ceremony timed out", common.ErrCeremonyCancelled)
		}
		return Credential{}, err
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", common.ErrPlatform, err)
	}
	if err := g.creds.Set(ctx, credentialKey(userID), data); err != nil {
		return Credential{}, fmt.Errorf("failed to persist credential: %w", err)
	}

	g.log.Info(ctx, "registered platform credential", "user", userID, "credential", cred.ID)
	return cred, nil
}

// Authenticate returns true iff a credential is registered for userID and
// the platform confirms user presence. With no registered credential it
// returns false immediately, without prompting. A ceremony that fails,
// times out or is dismissed also yields false: the caller falls back to
// the password path, never an error surface.
func (g *Gate) Authenticate(ctx context.Context, userID string) bool {
	cred, ok := g.storedCredential(ctx, userID)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.auth.Assert(ctx, cred); err != nil {
		if errors.Is(err, common.ErrNoCredential) {
			// platform revoked it; treat as no credential from now on
			g.log.Warn(ctx, "platform revoked credential, removing descriptor", "user", userID)
			_ = g.creds.Delete(ctx, credentialKey(userID))
		} else {
			g.log.Info(ctx, "biometric assertion declined", "user", userID, "reason", err)
		}
		return false
	}
	return true
}

// Registered reports whether a credential descriptor is stored for userID.
func (g *Gate) Registered(ctx context.Context, userID string) bool {
	_, ok := g.storedCredential(ctx, userID)
	return ok
}

// Remove deletes the stored credential descriptor, e.g. on explicit user
// opt-out. Removing an absent credential is not an error.
func (g *Gate) Remove(ctx context.Context, userID string) error {
	return g.creds.Delete(ctx, credentialKey(userID))
}

func (g *Gate) storedCredential(ctx context.Context, userID string) (Credential, bool) {
	data, err := g.creds.Get(ctx, credentialKey(userID))
	if err != nil {
		return Credential{}, false
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// unreadable descriptor is as good as none
		g.log.Warn(ctx, "corrupt credential descriptor, ignoring", "user", userID, "error", err)
		return Credential{}, false
	}
	return cred, true
}

func credentialKey(userID string) string {
	return credentialKeyPrefix + userID
}
