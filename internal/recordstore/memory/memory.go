// Package memory provides an in-memory record store used in tests and
// single-process development setups.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/futautah-hue/balo-website/internal/recordstore/domain"
)

type Store struct {
	mu   sync.RWMutex
	sets map[string]domain.Collection
}

func New() *Store {
	return &Store{sets: make(map[string]domain.Collection)}
}

func (s *Store) Get(ctx context.Context, userID, set string) (domain.Collection, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	collection, ok := s.sets[key(userID, set)]
	if !ok {
		return nil, nil
	}
	return clone(collection), nil
}

func (s *Store) Put(ctx context.Context, userID, set string, collection domain.Collection) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets[key(userID, set)] = clone(collection)
	return nil
}

func key(userID, set string) string {
	return userID + "|" + set
}

// clone round-trips through JSON so callers never share nested field maps
// with the store, matching the isolation of the database-backed store.
func clone(collection domain.Collection) domain.Collection {
	if collection == nil {
		return nil
	}
	encoded, err := json.Marshal(collection)
	if err != nil {
		return nil
	}
	var copied domain.Collection
	if err := json.Unmarshal(encoded, &copied); err != nil {
		return nil
	}
	return copied
}
