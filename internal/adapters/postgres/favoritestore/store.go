package favoritestore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

// Store is a Postgres implementation of favoritestore.Store. Each user owns one
// row in favorite_documents whose favorites column is a jsonb array of keys.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	if s.pool == nil {
		return nil, favoritestore.Wrap(favoritestore.OpRead, errors.New("nil postgres pool"))
	}
	var set domain.FavoriteSet
	err := s.pool.QueryRow(ctx, `
		SELECT favorites
		FROM favorite_documents
		WHERE user_id = $1
	`, string(user)).Scan(&set)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FavoriteSet{}, nil
		}
		return nil, favoritestore.Wrap(favoritestore.OpRead, err)
	}
	return set.Clone(), nil
}

func (s *Store) AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if s.pool == nil {
		return favoritestore.Wrap(favoritestore.OpAdd, errors.New("nil postgres pool"))
	}
	elem, err := json.Marshal(key)
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpAdd, err)
	}
	// Array-union: the row lock taken by ON CONFLICT makes the containment check and append atomic.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO favorite_documents (user_id, favorites)
		VALUES ($1, jsonb_build_array($2::jsonb))
		ON CONFLICT (user_id) DO UPDATE SET
			favorites = CASE
				WHEN favorite_documents.favorites @> jsonb_build_array($2::jsonb)
					THEN favorite_documents.favorites
				ELSE favorite_documents.favorites || jsonb_build_array($2::jsonb)
			END,
			updated_at = now()
	`, string(user), elem)
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpAdd, err)
	}
	return nil
}

func (s *Store) RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if s.pool == nil {
		return favoritestore.Wrap(favoritestore.OpRemove, errors.New("nil postgres pool"))
	}
	elem, err := json.Marshal(key)
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpRemove, err)
	}
	// A missing row matches nothing, which is the no-op we want.
	_, err = s.pool.Exec(ctx, `
		UPDATE favorite_documents
		SET favorites = COALESCE((
				SELECT jsonb_agg(t.elem ORDER BY t.ord)
				FROM jsonb_array_elements(favorite_documents.favorites) WITH ORDINALITY AS t(elem, ord)
				WHERE t.elem <> $2::jsonb
			), '[]'::jsonb),
			updated_at = now()
		WHERE user_id = $1
		  AND favorites @> jsonb_build_array($2::jsonb)
	`, string(user), elem)
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpRemove, err)
	}
	return nil
}
