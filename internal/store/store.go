// Package store defines the record store contract the encryption core is
// built against, plus its SQLite and in-memory implementations.
//
// The store is an external collaborator from the core's point of view:
// settings live under a per-user settings area, records are created and
// updated by id, and every committed write re-delivers a full snapshot of
// the owning user's records to active subscribers.
package store

import (
	"context"

	"github.com/guardia-tools/notekeeper/internal/models"
)

// Store is the abstract record store consumed by the key derivation service,
// the record service and the migration engine.
type Store interface {
	// GetSetting reads a per-user setting. Returns common.ErrNotFound when
	// the setting is absent.
	GetSetting(ctx context.Context, userID, key string) (string, error)

	// PutSetting writes a per-user setting, overwriting any previous value.
	PutSetting(ctx context.Context, userID, key, value string) error

	// CreateRecord stores a new record and returns its id. A missing id is
	// assigned by the store.
	CreateRecord(ctx context.Context, userID string, r models.Record) (string, error)

	// UpdateRecord applies a partial update to one record.
	UpdateRecord(ctx context.Context, userID, recordID string, patch models.Patch) error

	// DeleteRecord removes a record by id.
	DeleteRecord(ctx context.Context, userID, recordID string) error

	// Subscribe registers a listener for the user's records. onSnapshot is
	// invoked with the full current record set after every committed write
	// under that user (including once right after subscribing); onError
	// reports delivery failures. The returned function cancels the
	// subscription; after it returns no further callbacks are delivered.
	Subscribe(userID string, onSnapshot func([]models.Record), onError func(error)) (unsubscribe func())
}
