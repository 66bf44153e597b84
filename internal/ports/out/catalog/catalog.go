package catalog

import (
	"context"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// Catalog resolves favorite keys into airport/airline detail payloads.
//
// Result ordering expectations:
// - Resolve returns entities in the order of the input keys and silently skips unknown keys.
type Catalog interface {
	Get(ctx context.Context, key domain.FavoriteKey) (domain.Entity, error)
	Resolve(ctx context.Context, keys []domain.FavoriteKey) ([]domain.Entity, error)
}
