package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/guardia-tools/notekeeper/internal/biometric"
	"github.com/guardia-tools/notekeeper/internal/common"
)

// ConsoleAuthenticator implements the biometric ceremony as a terminal
// confirmation, for hosts without a real platform authenticator. The
// presence check degrades to "the person at the keyboard pressed y"; the
// gate's flow and failure semantics stay identical.
type ConsoleAuthenticator struct {
	reader *bufio.Reader
	out    io.Writer
}

var _ biometric.Authenticator = (*ConsoleAuthenticator)(nil)

func NewConsoleAuthenticator(reader *bufio.Reader, out io.Writer) *ConsoleAuthenticator {
	return &ConsoleAuthenticator{reader: reader, out: out}
}

func (a *ConsoleAuthenticator) Available() bool { return true }

func (a *ConsoleAuthenticator) CreateCredential(ctx context.Context, userID, displayName string) (biometric.Credential, error) {
	ok, err := a.confirm(ctx, fmt.Sprintf("Register this device for quick unlock of %q?", displayName))
	if err != nil {
		return biometric.Credential{}, fmt.Errorf("%w: %w", common.ErrPlatform, err)
	}
	if !ok {
		return biometric.Credential{}, common.ErrCeremonyCancelled
	}
	raw, err := common.MakeRandHexString(16)
	if err != nil {
		return biometric.Credential{}, fmt.Errorf("%w: %w", common.ErrPlatform, err)
	}
	return biometric.Credential{
		ID:           uuid.NewString(),
		RawID:        raw,
		Type:         "console",
		RegisteredAt: time.Now().UTC(),
	}, nil
}

func (a *ConsoleAuthenticator) Assert(ctx context.Context, cred biometric.Credential) error {
	ok, err := a.confirm(ctx, "Confirm presence to unlock")
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrPlatform, err)
	}
	if !ok {
		return common.ErrCeremonyCancelled
	}
	return nil
}

// confirm reads the answer on a goroutine so the ceremony still honors the
// context deadline even while blocked on stdin.
func (a *ConsoleAuthenticator) confirm(ctx context.Context, prompt string) (bool, error) {
	type result struct {
		ok  bool
		err error
	}
	ch := make(chan result, 1)
	go func() {
		answer, err := GetSimpleText(a.reader, prompt+" [y/N]", a.out)
		ch <- result{ok: answer == "y" || answer == "yes", err: err}
	}()

	select {
	case r := <-ch:
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
