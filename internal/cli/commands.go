package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/models"
)

func (a *App) unlockCmd(ctx context.Context) {
	if a.isUnlocked() {
		fmt.Fprintln(a.out, "Already unlocked.")
		return
	}
	userID, err := GetSimpleText(a.reader, "User id", a.out)
	if err != nil || userID == "" {
		return
	}

	sess, err := a.unlock.Unlock(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrLocked) {
			fmt.Fprintln(a.out, "Still locked: no key available.")
			return
		}
		fmt.Fprintln(a.out, "Unlock failed:", err)
		return
	}
	a.attach(ctx, sess.UserID())
	fmt.Fprintln(a.out, "Unlocked.")
}

func (a *App) logout(ctx context.Context) {
	a.detachAll()
	a.unlock.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
}

func (a *App) list(ctx context.Context) {
	if !a.isUnlocked() {
		fmt.Fprintln(a.out, "Unlock first.")
		return
	}
	views := a.records.Views(ctx, a.snapshot())
	if len(views) == 0 {
		fmt.Fprintln(a.out, "No records.")
		return
	}
	for _, v := range views {
		name := v.Sensitive.FullName
		if v.Unreadable {
			name = "<unable to decrypt>"
		}
		fmt.Fprintf(a.out, "%s  [%s]  %s\n", v.Record.ID, strings.Join(v.Record.Tags, ","), name)
	}
}

func (a *App) add(ctx context.Context) {
	if !a.isUnlocked() {
		fmt.Fprintln(a.out, "Unlock first.")
		return
	}

	tagsLine, err := GetSimpleText(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return
	}
	var tags []string
	for _, tag := range strings.Split(tagsLine, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	var s models.Sensitive
	if s.FullName, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		return
	}
	if s.DocumentNumber, err = GetSimpleText(a.reader, "Document number", a.out); err != nil {
		return
	}
	if s.Phone, err = GetSimpleText(a.reader, "Phone", a.out); err != nil {
		return
	}
	if s.BodyText, err = GetMultiline(a.reader, "Notes", a.out); err != nil {
		return
	}

	id, err := a.records.Save(ctx, tags, s)
	if err != nil {
		fmt.Fprintln(a.out, "Save failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Saved record", id)
}

func (a *App) delete(ctx context.Context, id string) {
	if !a.isUnlocked() {
		fmt.Fprintln(a.out, "Unlock first.")
		return
	}
	if err := a.records.Delete(ctx, id); err != nil {
		fmt.Fprintln(a.out, "Delete failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Deleted.")
}

func (a *App) biometrics(ctx context.Context, action string) {
	cur := a.sessions.Current()
	if cur == nil {
		fmt.Fprintln(a.out, "Unlock first.")
		return
	}

	switch action {
	case "on":
		if _, err := a.gate.Register(ctx, cur.UserID(), cur.UserID()); err != nil {
			switch {
			case errors.Is(err, common.ErrUnsupported):
				fmt.Fprintln(a.out, "No platform authenticator available.")
			case errors.Is(err, common.ErrCeremonyCancelled):
				fmt.Fprintln(a.out, "Cancelled.")
			default:
				fmt.Fprintln(a.out, "Enrollment failed:", err)
			}
			return
		}
		fmt.Fprintln(a.out, "Biometric unlock enabled.")
	case "off":
		if err := a.gate.Remove(ctx, cur.UserID()); err != nil {
			fmt.Fprintln(a.out, "Failed to remove credential:", err)
			return
		}
		fmt.Fprintln(a.out, "Biometric unlock disabled.")
	default:
		fmt.Fprintln(a.out, "Usage: biometrics on|off")
	}
}
