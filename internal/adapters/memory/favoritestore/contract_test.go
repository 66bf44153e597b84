package favoritestore

import (
	"testing"

	"github.com/airportdex/favorite-sync/internal/adapters/contracttest"
	favoritestoreport "github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

func TestContract_FavoriteStore(t *testing.T) {
	contracttest.RunFavoriteStore(t, func(t *testing.T) (favoritestoreport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
