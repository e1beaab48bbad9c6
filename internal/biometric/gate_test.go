package biometric

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/localstore"
	"github.com/guardia-tools/notekeeper/internal/logging"
)

type fakeAuthenticator struct {
	available bool
	createErr error
	assertErr error

	created    Credential
	assertCred Credential
	assertN    int
	createN    int

	assertDelay time.Duration
}

func (f *fakeAuthenticator) Available() bool { return f.available }

func (f *fakeAuthenticator) CreateCredential(ctx context.Context, userID, displayName string) (Credential, error) {
	f.createN++
	if f.createErr != nil {
		return Credential{}, f.createErr
	}
	f.created = Credential{
		ID:           "cred-" + userID,
		RawID:        "cmF3LWlk",
		Type:         "platform",
		RegisteredAt: time.Now().UTC(),
	}
	return f.created, nil
}

func (f *fakeAuthenticator) Assert(ctx context.Context, cred Credential) error {
	f.assertN++
	f.assertCred = cred
	if f.assertDelay > 0 {
		select {
		case <-time.After(f.assertDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.assertErr
}

func newTestGate(t *testing.T, auth *fakeAuthenticator, timeout time.Duration) *Gate {
	t.Helper()
	return NewGate(auth, localstore.NewMemoryRepository(), timeout, logging.Nop{})
}

func TestGateRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	gate := newTestGate(t, auth, 0)

	require.False(t, gate.Registered(ctx, "u1"))

	cred, err := gate.Register(ctx, "u1", "User One")
	require.NoError(t, err)
	require.Equal(t, "cred-u1", cred.ID)
	require.True(t, gate.Registered(ctx, "u1"))

	require.True(t, gate.Authenticate(ctx, "u1"))
	require.Equal(t, cred.ID, auth.assertCred.ID)
}

func TestGateAuthenticateWithoutCredential(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	gate := newTestGate(t, auth, 0)

	require.False(t, gate.Authenticate(ctx, "nobody"))
	require.Zero(t, auth.assertN, "must not prompt when no credential is registered")
}

func TestGateRegisterUnsupported(t *testing.T) {
	ctx := context.Background()
	gate := newTestGate(t, &fakeAuthenticator{available: false}, 0)

	_, err := gate.Register(ctx, "u1", "User One")
	require.ErrorIs(t, err, common.ErrUnsupported)
	require.False(t, gate.Registered(ctx, "u1"))
}

func TestGateRegisterCancelled(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true, createErr: common.ErrCeremonyCancelled}
	gate := newTestGate(t, auth, 0)

	_, err := gate.Register(ctx, "u1", "User One")
	require.ErrorIs(t, err, common.ErrCeremonyCancelled)
	require.False(t, gate.Registered(ctx, "u1"))
}

func TestGateAuthenticateDeclined(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	gate := newTestGate(t, auth, 0)

	_, err := gate.Register(ctx, "u1", "User One")
	require.NoError(t, err)

	auth.assertErr = common.ErrCeremonyCancelled
	require.False(t, gate.Authenticate(ctx, "u1"))

	// credential stays registered after a mere decline
	require.True(t, gate.Registered(ctx, "u1"))
}

func TestGateAuthenticateTimeout(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true, assertDelay: time.Second}
	gate := newTestGate(t, auth, 20*time.Millisecond)

	_, err := gate.Register(ctx, "u1", "User One")
	require.NoError(t, err)

	start := time.Now()
	require.False(t, gate.Authenticate(ctx, "u1"))
	require.Less(t, time.Since(start), time.Second)
}

func TestGateAuthenticateRevokedRemovesDescriptor(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	gate := newTestGate(t, auth, 0)

	_, err := gate.Register(ctx, "u1", "User One")
	require.NoError(t, err)

	auth.assertErr = common.ErrNoCredential
	require.False(t, gate.Authenticate(ctx, "u1"))
	require.False(t, gate.Registered(ctx, "u1"))

	// second attempt falls straight through without a ceremony
	before := auth.assertN
	require.False(t, gate.Authenticate(ctx, "u1"))
	require.Equal(t, before, auth.assertN)
}

func TestGateRemove(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	gate := newTestGate(t, auth, 0)

	_, err := gate.Register(ctx, "u1", "User One")
	require.NoError(t, err)

	require.NoError(t, gate.Remove(ctx, "u1"))
	require.False(t, gate.Registered(ctx, "u1"))

	require.NoError(t, gate.Remove(ctx, "u1"), "removing an absent credential is not an error")
}

func TestGateCorruptDescriptorIgnored(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthenticator{available: true}
	repo := localstore.NewMemoryRepository()
	gate := NewGate(auth, repo, 0, logging.Nop{})

	require.NoError(t, repo.Set(ctx, "biometric_credential_u1", []byte("{not json")))

	require.False(t, gate.Registered(ctx, "u1"))
	require.False(t, gate.Authenticate(ctx, "u1"))
	require.Zero(t, auth.assertN)
}
