package services

import (
	"context"
	"fmt"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/cryptox"
	"github.com/guardia-tools/notekeeper/internal/logging"
	"github.com/guardia-tools/notekeeper/internal/models"
	"github.com/guardia-tools/notekeeper/internal/session"
	"github.com/guardia-tools/notekeeper/internal/store"
)

// View is one record prepared for display: clear fields straight from the
// record, sensitive fields resolved from plaintext (legacy) or by opening
// the envelope.
type View struct {
	Record    models.Record
	Sensitive models.Sensitive

	// Unreadable marks an encrypted record whose envelope could not be
	// opened with the current key (or there is no session). The clear
	// fields still render; only the sensitive part is withheld.
	Unreadable bool
}

// RecordService writes records in their encrypted form and resolves store
// snapshots into displayable views. All writes of sensitive data go through
// Encrypt; plaintext sensitive fields are written only as the empty value.
type RecordService struct {
	store    store.Store
	sessions *session.Manager
	log      logging.Logger
}

func NewRecordService(st store.Store, sessions *session.Manager, log logging.Logger) *RecordService {
	if log == nil {
		log = logging.Nop{}
	}
	return &RecordService{store: st, sessions: sessions, log: log}
}

// Save encrypts the sensitive payload and creates the record already in
// encrypted form, so it never exists in the store as a legacy row.
func (s *RecordService) Save(ctx context.Context, tags []string, sensitive models.Sensitive) (string, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return "", common.ErrLocked
	}

	envelope, err := cryptox.Encrypt(sensitive, sess.Key())
	if err != nil {
		return "", err
	}

	id, err := s.store.CreateRecord(ctx, sess.UserID(), models.Record{
		Tags:             tags,
		IsEncrypted:      true,
		EncryptedVersion: models.EncryptedVersion,
		EncryptedData:    envelope,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create record: %w", err)
	}
	return id, nil
}

// Update re-encrypts the sensitive payload and applies it together with the
// new tags as one patch.
func (s *RecordService) Update(ctx context.Context, recordID string, tags []string, sensitive models.Sensitive) error {
	sess := s.sessions.Current()
	if sess == nil {
		return common.ErrLocked
	}

	envelope, err := cryptox.Encrypt(sensitive, sess.Key())
	if err != nil {
		return err
	}

	patch := models.EncryptedPatch(envelope)
	patch.Tags = &tags
	if err := s.store.UpdateRecord(ctx, sess.UserID(), recordID, patch); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// Delete removes a record by id.
func (s *RecordService) Delete(ctx context.Context, recordID string) error {
	sess := s.sessions.Current()
	if sess == nil {
		return common.ErrLocked
	}
	return s.store.DeleteRecord(ctx, sess.UserID(), recordID)
}

// Views resolves a store snapshot for display. Legacy records render their
// plaintext as-is. Encrypted records are opened with the current session
// key; a record that fails to open is returned Unreadable rather than
// aborting the whole snapshot, so one bad envelope never blanks the list.
func (s *RecordService) Views(ctx context.Context, records []models.Record) []View {
	sess := s.sessions.Current()

	views := make([]View, 0, len(records))
	for _, r := range records {
		v := View{Record: r}
		switch {
		case r.IsLegacy():
			v.Sensitive = r.Sensitive
		case sess == nil:
			v.Unreadable = true
		default:
			if err := cryptox.DecryptInto(r.EncryptedData, sess.Key(), &v.Sensitive); err != nil {
				s.log.Warn(ctx, "failed to open record envelope", "record", r.ID, "error", err)
				v.Sensitive = models.Sensitive{}
				v.Unreadable = true
			}
		}
		views = append(views, v)
	}
	return views
}
