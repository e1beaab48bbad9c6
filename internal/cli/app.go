// Package cli implements the interactive terminal front end: an unlock
// prompt, a small REPL over the record store, and terminal-backed
// implementations of the prompting and ceremony interfaces.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/guardia-tools/notekeeper/internal/biometric"
	"github.com/guardia-tools/notekeeper/internal/config"
	"github.com/guardia-tools/notekeeper/internal/keys"
	"github.com/guardia-tools/notekeeper/internal/localstore"
	"github.com/guardia-tools/notekeeper/internal/logging"
	"github.com/guardia-tools/notekeeper/internal/models"
	"github.com/guardia-tools/notekeeper/internal/services"
	"github.com/guardia-tools/notekeeper/internal/session"
	"github.com/guardia-tools/notekeeper/internal/store"
)

type App struct {
	config *config.Config
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	store    store.Store
	sessions *session.Manager
	unlock   *services.UnlockService
	records  *services.RecordService
	migrator *services.Migrator
	gate     *biometric.Gate

	mu     sync.Mutex
	latest []models.Record
	detach []func()
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := store.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(db)

	reader := bufio.NewReader(os.Stdin)
	out := io.Writer(os.Stdout)
	prompter := NewTerminalPrompter(reader, out)
	gate := biometric.NewGate(
		NewConsoleAuthenticator(reader, out),
		localstore.NewSQLiteRepository(db),
		cfg.BiometricTimeout,
		log,
	)
	sessions := session.NewManager()

	return &App{
		config:   cfg,
		log:      log,
		reader:   reader,
		out:      out,
		store:    st,
		sessions: sessions,
		unlock: services.NewUnlockService(
			keys.NewService(st, log), sessions, session.NewKeyCache(),
			gate, prompter, prompter, log,
		),
		records:  services.NewRecordService(st, sessions, log),
		migrator: services.NewMigrator(st, sessions, log),
		gate:     gate,
	}, nil
}

func (a *App) isUnlocked() bool {
	return a.sessions.Current() != nil
}

// attach subscribes the view snapshot and the migrator to the unlocked
// user's record stream.
func (a *App) attach(ctx context.Context, userID string) {
	unsub := a.store.Subscribe(userID,
		func(records []models.Record) {
			a.mu.Lock()
			a.latest = records
			a.mu.Unlock()
		},
		func(err error) {
			a.log.Error(ctx, "record stream failed", "user", userID, "error", err)
		},
	)
	a.detach = append(a.detach, unsub, a.migrator.Run(ctx, userID))
}

func (a *App) detachAll() {
	for _, stop := range a.detach {
		stop()
	}
	a.detach = nil
	a.mu.Lock()
	a.latest = nil
	a.mu.Unlock()
}

func (a *App) snapshot() []models.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to notekeeper (type 'help' for commands)")
	a.unlockCmd(ctx)
	a.root(ctx)
	a.detachAll()
}
