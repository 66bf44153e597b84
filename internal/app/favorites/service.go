package favorites

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

// Service is the server side of the remote favorite store: it validates keys
// against the catalog before they reach storage.
type Service struct {
	store   favoritestore.Store
	catalog catalog.Catalog
	log     *zap.Logger

	// MaxResolveKeys bounds a single ResolveEntities call.
	MaxResolveKeys int
}

func NewService(store favoritestore.Store, cat catalog.Catalog, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:          store,
		catalog:        cat,
		log:            log,
		MaxResolveKeys: 100,
	}
}

func (s *Service) ListFavorites(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	set, err := s.store.Read(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	return set, nil
}

// AddFavorite adds type/id to the user's document. Only entities known to the
// catalog can be favorited; adding an existing favorite succeeds.
func (s *Service) AddFavorite(ctx context.Context, user domain.UserID, entityType, id string) (domain.FavoriteKey, error) {
	key, err := parseKey(entityType, id)
	if err != nil {
		return domain.FavoriteKey{}, err
	}

	if _, err := s.catalog.Get(ctx, key); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return domain.FavoriteKey{}, &Error{
				Status:  404,
				Code:    "ENTITY_NOT_FOUND",
				Message: "No " + string(key.Type) + " exists with the given id.",
				Details: map[string]any{"key": key.String()},
			}
		}
		return domain.FavoriteKey{}, fmt.Errorf("catalog lookup: %w", err)
	}

	if err := s.store.AddElement(ctx, user, key); err != nil {
		return domain.FavoriteKey{}, fmt.Errorf("add favorite: %w", err)
	}
	s.log.Debug("favorite added", zap.String("user", string(user)), zap.Stringer("key", key))
	return key, nil
}

// RemoveFavorite removes type/id from the user's document. Removing an absent
// favorite succeeds, and so does removing a key the catalog no longer knows.
func (s *Service) RemoveFavorite(ctx context.Context, user domain.UserID, entityType, id string) (domain.FavoriteKey, error) {
	key, err := parseKey(entityType, id)
	if err != nil {
		return domain.FavoriteKey{}, err
	}
	if err := s.store.RemoveElement(ctx, user, key); err != nil {
		return domain.FavoriteKey{}, fmt.Errorf("remove favorite: %w", err)
	}
	s.log.Debug("favorite removed", zap.String("user", string(user)), zap.Stringer("key", key))
	return key, nil
}

// ResolveEntities looks up raw "type:id" keys. Unknown keys are skipped; malformed ones are a validation error.
func (s *Service) ResolveEntities(ctx context.Context, rawKeys []string) ([]domain.Entity, error) {
	if len(rawKeys) == 0 {
		return []domain.Entity{}, nil
	}
	if s.MaxResolveKeys > 0 && len(rawKeys) > s.MaxResolveKeys {
		return nil, validationError("key", fmt.Sprintf("at most %d keys per request", s.MaxResolveKeys))
	}
	keys := make([]domain.FavoriteKey, 0, len(rawKeys))
	for _, raw := range rawKeys {
		k, err := domain.ParseFavoriteKey(raw)
		if err != nil {
			return nil, validationError("key", err.Error())
		}
		keys = append(keys, k)
	}
	ents, err := s.catalog.Resolve(ctx, domain.FavoriteSet(keys).Dedup())
	if err != nil {
		return nil, fmt.Errorf("resolve entities: %w", err)
	}
	return ents, nil
}

func parseKey(entityType, id string) (domain.FavoriteKey, error) {
	t, err := domain.ParseEntityType(entityType)
	if err != nil {
		return domain.FavoriteKey{}, validationError("type", "must be one of: airport, airline")
	}
	key, err := domain.NewFavoriteKey(id, t)
	if err != nil {
		return domain.FavoriteKey{}, validationError("id", "must be non-empty")
	}
	return key, nil
}
