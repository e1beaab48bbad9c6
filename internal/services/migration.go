package services

import (
	"context"
	"sync"

	"github.com/guardia-tools/notekeeper/internal/cryptox"
	"github.com/guardia-tools/notekeeper/internal/logging"
	"github.com/guardia-tools/notekeeper/internal/models"
	"github.com/guardia-tools/notekeeper/internal/session"
	"github.com/guardia-tools/notekeeper/internal/store"
)

// Migrator upgrades legacy plaintext records to encrypted form. It attaches
// to the store's snapshot stream and, on every snapshot, encrypts whatever
// legacy records it shows, one at a time. The per-record encrypted flag
// makes the pass idempotent: an already-flagged record is skipped, so
// re-deliveries and overlapping passes converge instead of looping.
//
// Failure policy is per record. A record that fails to encrypt or to write
// is logged and left legacy; the pass continues and the record is retried
// naturally on the next snapshot.
type Migrator struct {
	store    store.Store
	sessions *session.Manager
	log      logging.Logger

	// serializes passes so overlapping snapshot deliveries never interleave
	mu sync.Mutex
}

func NewMigrator(st store.Store, sessions *session.Manager, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.Nop{}
	}
	return &Migrator{store: st, sessions: sessions, log: log}
}

// Run attaches the migrator to the user's snapshot stream. Each delivered
// snapshot triggers one migration pass under the session active at that
// moment. The returned stop function detaches it; a logout also stops any
// in-flight pass at the next record boundary.
func (m *Migrator) Run(ctx context.Context, userID string) (stop func()) {
	return m.store.Subscribe(userID,
		func(records []models.Record) {
			m.migrate(ctx, userID, records)
		},
		func(err error) {
			m.log.Error(ctx, "record snapshot stream failed", "user", userID, "error", err)
		},
	)
}

func (m *Migrator) migrate(ctx context.Context, userID string, records []models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.sessions.Current()
	if sess == nil || sess.UserID() != userID {
		return
	}

	var migrated, failed int
	for _, r := range records {
		if !r.IsLegacy() {
			continue
		}
		// a logout invalidates the key; stop before touching the next record
		if !m.sessions.Active(sess) {
			m.log.Info(ctx, "session ended, stopping migration pass", "user", userID, "migrated", migrated)
			return
		}

		envelope, err := cryptox.Encrypt(r.Sensitive, sess.Key())
		if err != nil {
			failed++
			m.log.Error(ctx, "failed to encrypt legacy record", "record", r.ID, "error", err)
			continue
		}
		if err := m.store.UpdateRecord(ctx, userID, r.ID, models.EncryptedPatch(envelope)); err != nil {
			failed++
			m.log.Error(ctx, "failed to store encrypted record", "record", r.ID, "error", err)
			continue
		}
		migrated++
	}

	if migrated > 0 || failed > 0 {
		m.log.Info(ctx, "migration pass finished",
			"user", userID, "migrated", migrated, "failed", failed)
	}
}
