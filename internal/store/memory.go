package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guardia-tools/notekeeper/internal/common"
	"github.com/guardia-tools/notekeeper/internal/models"
)

// MemoryStore is an in-memory Store used by tests and as a scratch backend.
// It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	settings map[string]map[string]string
	records  map[string]map[string]models.Record
	notifier *notifier

	// UpdateHook, when set, runs before every UpdateRecord commit. Tests use
	// it to inject write failures and to observe write counts.
	UpdateHook func(userID, recordID string, patch models.Patch) error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]map[string]string),
		records:  make(map[string]map[string]models.Record),
		notifier: newNotifier(),
	}
}

func (m *MemoryStore) GetSetting(ctx context.Context, userID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[userID][key]
	if !ok {
		return "", fmt.Errorf("setting %s/%s: %w", userID, key, common.ErrNotFound)
	}
	return v, nil
}

func (m *MemoryStore) PutSetting(ctx context.Context, userID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings[userID] == nil {
		m.settings[userID] = make(map[string]string)
	}
	m.settings[userID][key] = value
	return nil
}

func (m *MemoryStore) CreateRecord(ctx context.Context, userID string, r models.Record) (string, error) {
	m.mu.Lock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.UserID = userID
	if m.records[userID] == nil {
		m.records[userID] = make(map[string]models.Record)
	}
	m.records[userID][r.ID] = r
	snap := m.snapshotLocked(userID)
	m.mu.Unlock()

	m.notifier.publish(userID, snap)
	return r.ID, nil
}

func (m *MemoryStore) UpdateRecord(ctx context.Context, userID, recordID string, patch models.Patch) error {
	if m.UpdateHook != nil {
		if err := m.UpdateHook(userID, recordID, patch); err != nil {
			return err
		}
	}

	m.mu.Lock()
	r, ok := m.records[userID][recordID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	patch.Apply(&r)
	m.records[userID][recordID] = r
	snap := m.snapshotLocked(userID)
	m.mu.Unlock()

	m.notifier.publish(userID, snap)
	return nil
}

func (m *MemoryStore) DeleteRecord(ctx context.Context, userID, recordID string) error {
	m.mu.Lock()
	if _, ok := m.records[userID][recordID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	delete(m.records[userID], recordID)
	snap := m.snapshotLocked(userID)
	m.mu.Unlock()

	m.notifier.publish(userID, snap)
	return nil
}

func (m *MemoryStore) Subscribe(userID string, onSnapshot func([]models.Record), onError func(error)) func() {
	unsubscribe := m.notifier.subscribe(userID, onSnapshot, onError)

	// initial snapshot, like a live query delivers current state on attach
	m.mu.Lock()
	snap := m.snapshotLocked(userID)
	m.mu.Unlock()
	m.notifier.publish(userID, snap)

	return unsubscribe
}

// Snapshot returns the user's records, newest first. Intended for tests.
func (m *MemoryStore) Snapshot(userID string) []models.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(userID)
}

func (m *MemoryStore) snapshotLocked(userID string) []models.Record {
	out := make([]models.Record, 0, len(m.records[userID]))
	for _, r := range m.records[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
