package favoritestore

import (
	"context"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// Operation names used in RemoteStoreError.Op.
const (
	OpRead   = "read"
	OpAdd    = "add"
	OpRemove = "remove"
)

// Store is the authoritative per-user favorites document.
//
// Semantics every implementation must honor (see contracttest.RunFavoriteStore):
//   - Read on a user without a document returns an empty set, not an error.
//   - AddElement is an array-union: adding a present key is a no-op, and the
//     document is created when absent.
//   - RemoveElement is an array-remove: removing an absent key (or from an
//     absent document) is a no-op, not an error.
//   - Failures are *RemoteStoreError, or ErrSessionExpired for a rejected session.
type Store interface {
	Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error)
	AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error
	RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error
}
