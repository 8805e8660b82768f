// Package storage persists the tracker document: one serialized blob under one fixed key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultKey is the fixed key the document is stored under.
const DefaultKey = "dev-tracker-v1"

// DocumentStore reads and writes the single serialized document.
// Load reports a document that was never stored as ok=false with a nil error.
type DocumentStore interface {
	Load(ctx context.Context) (doc []byte, ok bool, err error)
	Save(ctx context.Context, doc []byte) error
}

// ErrQuotaExceeded is returned by stores that enforce a size limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MemoryStore is an in-memory DocumentStore. SaveErr, when set, is returned by every Save.
type MemoryStore struct {
	mu       sync.RWMutex
	doc      []byte
	stored   bool
	MaxBytes int
	SaveErr  error
	saves    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates an in-memory store holding doc.
func NewMemoryStoreWith(doc []byte) *MemoryStore {
	return &MemoryStore{doc: append([]byte(nil), doc...), stored: true}
}

func (s *MemoryStore) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.stored {
		return nil, false, nil
	}
	return append([]byte(nil), s.doc...), true, nil
}

func (s *MemoryStore) Save(_ context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.MaxBytes > 0 && len(doc) > s.MaxBytes {
		return fmt.Errorf("writing %d bytes: %w", len(doc), ErrQuotaExceeded)
	}
	s.doc = append([]byte(nil), doc...)
	s.stored = true
	s.saves++
	return nil
}

// Saves returns the number of successful writes.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
