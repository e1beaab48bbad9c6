package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if cur := a.sessions.Current(); cur != nil {
		return fmt.Sprintf("(%s)", cur.UserID())
	}
	return "(locked)"
}

// root runs the REPL until EOF or an explicit exit.
func (a *App) root(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "nk %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				fmt.Fprintln(a.out, "Available commands: (l)ist, add, delete <id>, biometrics on|off, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: unlock, exit")
			}

		case "unlock":
			a.unlockCmd(ctx)

		case "l", "list":
			a.list(ctx)

		case "add":
			a.add(ctx)

		case "delete":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: delete <id>")
				continue
			}
			a.delete(ctx, args[0])

		case "biometrics":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: biometrics on|off")
				continue
			}
			a.biometrics(ctx, args[0])

		case "logout":
			a.logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
