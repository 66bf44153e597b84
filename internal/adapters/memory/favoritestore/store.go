package favoritestore

import (
	"context"
	"sync"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

// Store is an in-memory implementation of favoritestore.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	// docs holds one document per user; a present key with an empty set is an
	// emptied document, which is different from a document never created.
	docs map[domain.UserID]domain.FavoriteSet
}

func NewStore() *Store {
	return &Store{
		docs: make(map[domain.UserID]domain.FavoriteSet),
	}
}

func (s *Store) Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, favoritestore.Wrap(favoritestore.OpRead, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[user].Clone(), nil
}

func (s *Store) AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if err := ctx.Err(); err != nil {
		return favoritestore.Wrap(favoritestore.OpAdd, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create-if-absent: With on a nil set yields a fresh single-element set.
	s.docs[user] = s.docs[user].With(key)
	return nil
}

func (s *Store) RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if err := ctx.Err(); err != nil {
		return favoritestore.Wrap(favoritestore.OpRemove, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[user]
	if !ok {
		return nil
	}
	s.docs[user] = doc.Without(key)
	return nil
}

// HasDocument reports whether a document was ever created for user.
func (s *Store) HasDocument(user domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[user]
	return ok
}
