package favoritestore

import (
	"context"
	"net/http"

	"github.com/airportdex/favorite-sync/internal/adapters/httpapi"
	"github.com/airportdex/favorite-sync/internal/adapters/httpclient"
	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

// Store is a favoritestore.Store backed by the favorites HTTP API.
type Store struct {
	c *httpclient.Client
}

func NewStore(c *httpclient.Client) *Store {
	return &Store{c: c}
}

func (s *Store) Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	var doc httpapi.FavoritesDocument
	if err := s.c.Do(ctx, http.MethodGet, "/v1/favorites", nil, user, &doc); err != nil {
		return nil, favoritestore.Wrap(favoritestore.OpRead, err)
	}
	set := domain.FavoriteSet(doc.Favorites).Dedup()
	return set, nil
}

func (s *Store) AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	err := s.c.Do(ctx, http.MethodPut, httpclient.KeyPath(key), nil, user, nil)
	return favoritestore.Wrap(favoritestore.OpAdd, err)
}

func (s *Store) RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	err := s.c.Do(ctx, http.MethodDelete, httpclient.KeyPath(key), nil, user, nil)
	return favoritestore.Wrap(favoritestore.OpRemove, err)
}
