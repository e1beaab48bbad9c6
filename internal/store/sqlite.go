package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/dbx"
	"github.com/guardia-tools/notekeeper/internal/models"
	"github.com/guardia-tools/notekeeper/internal/store/migrations"
)

// SQLiteStore is the Store implementation backed by the local SQLite file.
// Tags and legacy sensitive fields are stored as JSON text columns.
type SQLiteStore struct {
	db       *sql.DB
	notifier *notifier
}

var _ Store = (*SQLiteStore)(nil)

// InitDatabase opens (or creates) the SQLite file at dsn and brings the
// schema up to date with the embedded goose migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, notifier: newNotifier()}
}

func (s *SQLiteStore) GetSetting(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s/%s: %w", userID, key, common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) PutSetting(ctx context.Context, userID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, key, value, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`, userID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put setting[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, userID string, r models.Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	sensitive, err := json.Marshal(r.Sensitive)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sensitive fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, user_id, tags, created_at, is_encrypted, encrypted_version, encrypted_data, sensitive)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, userID, string(tags), r.CreatedAt, boolToInt(r.IsEncrypted), r.EncryptedVersion, r.EncryptedData, string(sensitive))
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	s.emit(ctx, userID)
	return r.ID, nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, userID, recordID string, patch models.Patch) error {
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, user_id, tags, created_at, is_encrypted, encrypted_version, encrypted_data, sensitive
			 FROM records WHERE user_id = ? AND id = ?`, userID, recordID)

		r, err := scanRecord(row)
		if err != nil {
			return err
		}
		patch.Apply(&r)

		tags, err := json.Marshal(r.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		sensitive, err := json.Marshal(r.Sensitive)
		if err != nil {
			return fmt.Errorf("failed to marshal sensitive fields: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE records SET tags = ?, is_encrypted = ?, encrypted_version = ?, encrypted_data = ?, sensitive = ?
			WHERE user_id = ? AND id = ?
		`, string(tags), boolToInt(r.IsEncrypted), r.EncryptedVersion, r.EncryptedData, string(sensitive), userID, recordID)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, userID)
	return nil
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, userID, recordID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE user_id = ? AND id = ?`, userID, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}

	s.emit(ctx, userID)
	return nil
}

func (s *SQLiteStore) Subscribe(userID string, onSnapshot func([]models.Record), onError func(error)) func() {
	unsubscribe := s.notifier.subscribe(userID, onSnapshot, onError)
	s.emit(context.Background(), userID)
	return unsubscribe
}

// emit queries the user's full record set and fans it out to subscribers.
func (s *SQLiteStore) emit(ctx context.Context, userID string) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		s.notifier.publishError(userID, err)
		return
	}
	s.notifier.publish(userID, snap)
}

func (s *SQLiteStore) snapshot(ctx context.Context, userID string) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tags, created_at, is_encrypted, encrypted_version, encrypted_data, sensitive
		FROM records WHERE user_id = ? ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var (
		r         models.Record
		tags      string
		encrypted int
		sensitive string
	)
	err := row.Scan(&r.ID, &r.UserID, &tags, &r.CreatedAt, &encrypted, &r.EncryptedVersion, &r.EncryptedData, &sensitive)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("record: %w", common.ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	r.IsEncrypted = encrypted != 0
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return r, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(sensitive), &r.Sensitive); err != nil {
		return r, fmt.Errorf("failed to unmarshal sensitive fields: %w", err)
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
