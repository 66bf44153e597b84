package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/airportdex/favorite-sync/internal/domain"
	catalogport "github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	favoritestoreport "github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

type CleanupFunc = func()

type FavoriteStoreFactory func(t *testing.T) (favoritestoreport.Store, CleanupFunc)

// CatalogFactory must return a catalog containing exactly the seed entities
// (plus whatever else the backend already holds).
type CatalogFactory func(t *testing.T, seed []domain.Entity) (catalogport.Catalog, CleanupFunc)

// newUser returns a user id that is unique per run so shared databases don't leak state between tests.
func newUser(prefix string) domain.UserID {
	return domain.UserID(prefix + "-" + uuid.NewString())
}

func RunFavoriteStore(t *testing.T, newStore FavoriteStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	ist := domain.FavoriteKey{ID: "IST", Type: domain.EntityAirport}
	tk := domain.FavoriteKey{ID: "TK", Type: domain.EntityAirline}
	pcAirline := domain.FavoriteKey{ID: "PC", Type: domain.EntityAirline}
	pcAirport := domain.FavoriteKey{ID: "PC", Type: domain.EntityAirport}

	// Read without a document is an empty set.
	u1 := newUser("u1")
	got, err := store.Read(ctx, u1)
	if err != nil {
		t.Fatalf("Read (no document): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read (no document)=%v, want empty", got)
	}

	// Remove on a missing document is a no-op.
	if err := store.RemoveElement(ctx, u1, ist); err != nil {
		t.Fatalf("RemoveElement (no document): %v", err)
	}

	// Add creates the document; adding twice never duplicates.
	if err := store.AddElement(ctx, u1, ist); err != nil {
		t.Fatalf("AddElement ist: %v", err)
	}
	if err := store.AddElement(ctx, u1, ist); err != nil {
		t.Fatalf("AddElement ist again: %v", err)
	}
	if err := store.AddElement(ctx, u1, tk); err != nil {
		t.Fatalf("AddElement tk: %v", err)
	}
	got, err = store.Read(ctx, u1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 || got[0] != ist || got[1] != tk {
		t.Fatalf("Read after adds=%v, want [airport:IST airline:TK] in insertion order", got)
	}

	// Structural equality: same id, different type are distinct keys.
	if err := store.AddElement(ctx, u1, pcAirline); err != nil {
		t.Fatalf("AddElement pc airline: %v", err)
	}
	if err := store.RemoveElement(ctx, u1, pcAirport); err != nil {
		t.Fatalf("RemoveElement pc airport (absent): %v", err)
	}
	got, err = store.Read(ctx, u1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Contains(pcAirline) || got.Contains(pcAirport) || len(got) != 3 {
		t.Fatalf("Read after type-distinct ops=%v", got)
	}

	// Remove present key.
	if err := store.RemoveElement(ctx, u1, ist); err != nil {
		t.Fatalf("RemoveElement ist: %v", err)
	}
	if err := store.RemoveElement(ctx, u1, ist); err != nil {
		t.Fatalf("RemoveElement ist again: %v", err)
	}
	got, err = store.Read(ctx, u1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Contains(ist) || len(got) != 2 {
		t.Fatalf("Read after remove=%v", got)
	}

	// Documents are per user.
	u2 := newUser("u2")
	got, err = store.Read(ctx, u2)
	if err != nil {
		t.Fatalf("Read u2: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read u2=%v, want empty", got)
	}

	// A document emptied by removals reads as empty, not as an error.
	if err := store.RemoveElement(ctx, u1, tk); err != nil {
		t.Fatalf("RemoveElement tk: %v", err)
	}
	if err := store.RemoveElement(ctx, u1, pcAirline); err != nil {
		t.Fatalf("RemoveElement pc: %v", err)
	}
	got, err = store.Read(ctx, u1)
	if err != nil {
		t.Fatalf("Read emptied: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read emptied=%v, want empty", got)
	}
}

func RunCatalog(t *testing.T, newCatalog CatalogFactory) {
	t.Helper()
	ctx := context.Background()

	icao := "LTFM"
	seed := []domain.Entity{
		{
			Key:     domain.FavoriteKey{ID: "IST", Type: domain.EntityAirport},
			Airport: &domain.Airport{Code: "IST", ICAO: &icao, Name: "Istanbul Airport", City: "Istanbul", Country: "TR"},
		},
		{
			Key:     domain.FavoriteKey{ID: "TK", Type: domain.EntityAirline},
			Airline: &domain.Airline{Code: "TK", Name: "Turkish Airlines", Country: "TR"},
		},
	}

	cat, cleanup := newCatalog(t, seed)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	got, err := cat.Get(ctx, seed[0].Key)
	if err != nil {
		t.Fatalf("Get ist: %v", err)
	}
	if got.Key != seed[0].Key || got.Airport == nil || got.Airport.Name != "Istanbul Airport" {
		t.Fatalf("Get ist=%+v", got)
	}
	if got.Airport.ICAO == nil || *got.Airport.ICAO != "LTFM" {
		t.Fatalf("Get ist ICAO=%v", got.Airport.ICAO)
	}

	if _, err := cat.Get(ctx, domain.FavoriteKey{ID: "TK", Type: domain.EntityAirport}); !errors.Is(err, catalogport.ErrNotFound) {
		t.Fatalf("Get airport:TK err=%v, want ErrNotFound", err)
	}

	// Resolve keeps input order and skips unknown keys.
	res, err := cat.Resolve(ctx, []domain.FavoriteKey{
		seed[1].Key,
		{ID: "ZZZ", Type: domain.EntityAirport},
		seed[0].Key,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res) != 2 || res[0].Key != seed[1].Key || res[1].Key != seed[0].Key {
		t.Fatalf("Resolve=%+v", res)
	}
	if res[0].Airline == nil || res[0].Airline.Name != "Turkish Airlines" {
		t.Fatalf("Resolve airline payload=%+v", res[0].Airline)
	}

	res, err = cat.Resolve(ctx, nil)
	if err != nil {
		t.Fatalf("Resolve(nil): %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("Resolve(nil)=%v, want empty", res)
	}
}
