package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble"
)

// Upload statuses.
const (
	StatusStored = "stored"
	StatusFailed = "failed"
)

// Record describes one media upload attempt.
type Record struct {
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	Filename    string    `json:"filename"`
	Provider    string    `json:"provider"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists upload records in Pebble, keyed by object key.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open upload store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores rec, stamping it with the current time if unset.
func (s *Store) Put(rec Record) error {
	if rec.Key == "" {
		return errors.New("upload record has no key")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal upload record: %w", err)
	}
	return s.db.Set([]byte(rec.Key), data, pebble.Sync)
}

// Get retrieves a record by key. A missing record is (nil, nil).
func (s *Store) Get(key string) (*Record, error) {
	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get upload record: %w", err)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload record: %w", err)
	}
	return &rec, nil
}

// Delete removes a record.
func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

// List returns all records in key order.
func (s *Store) List() ([]Record, error) {
	records := []Record{}
	err := s.each(func(_ []byte, rec Record) {
		records = append(records, rec)
	})
	return records, err
}

// CleanupOlderThan removes records older than maxAge and returns how many
// were deleted.
func (s *Store) CleanupOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	var keysToDelete [][]byte
	err := s.each(func(key []byte, rec Record) {
		if rec.Timestamp.Before(cutoff) {
			keysToDelete = append(keysToDelete, append([]byte(nil), key...))
		}
	})
	if err != nil {
		return 0, err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, key := range keysToDelete {
		if err := batch.Delete(key, nil); err != nil {
			return 0, fmt.Errorf("failed to delete old upload record: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return len(keysToDelete), nil
}

// CheckHealth performs a read to verify the database is accessible.
func (s *Store) CheckHealth() error {
	if s == nil || s.db == nil {
		return errors.New("upload store not initialized")
	}
	_, closer, err := s.db.Get([]byte("__health_check__"))
	if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if closer != nil {
		closer.Close()
	}
	return nil
}

func (s *Store) each(fn func(key []byte, rec Record)) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip invalid records
		}
		fn(iter.Key(), rec)
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iteration error: %w", err)
	}
	return nil
}
