package favsync

import (
	"testing"

	"github.com/airportdex/favorite-sync/internal/domain"
)

func TestReduce_AddAndRemoveAreIdempotent(t *testing.T) {
	t.Parallel()

	e := Entry{}
	e = reduce(e, AddKey{Key: keyIST})
	e = reduce(e, AddKey{Key: keyIST})
	if len(e.Keys) != 1 || !e.Contains(keyIST) {
		t.Fatalf("after double add keys=%v", e.Keys)
	}

	e = reduce(e, RemoveKey{Key: keyIST})
	e = reduce(e, RemoveKey{Key: keyIST})
	if len(e.Keys) != 0 {
		t.Fatalf("after double remove keys=%v", e.Keys)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	before := Entry{
		Keys:     domain.FavoriteSet{keyIST, keyTK},
		Entities: map[domain.FavoriteKey]domain.Entity{keyTK: {Key: keyTK}},
	}
	_ = reduce(before, RemoveKey{Key: keyTK})
	_ = reduce(before, AddKey{Key: keySAW})

	if len(before.Keys) != 2 || before.Keys[1] != keyTK {
		t.Fatalf("input keys mutated: %v", before.Keys)
	}
	if _, ok := before.Entities[keyTK]; !ok {
		t.Fatalf("input entities mutated")
	}
}

func TestReduce_ReplaceSetDedupsAndFiltersEntities(t *testing.T) {
	t.Parallel()

	e := Entry{Stale: true}
	e = reduce(e, ReplaceSet{
		Set: domain.FavoriteSet{keyIST, keyTK, keyIST},
		Entities: []domain.Entity{
			{Key: keyIST},
			{Key: keyPC},
		},
	})

	if !e.Loaded || e.Stale {
		t.Fatalf("Loaded=%v Stale=%v, want loaded and fresh", e.Loaded, e.Stale)
	}
	if len(e.Keys) != 2 || e.Keys[0] != keyIST || e.Keys[1] != keyTK {
		t.Fatalf("keys=%v, want [IST TK]", e.Keys)
	}
	if _, ok := e.Entities[keyPC]; ok {
		t.Fatalf("entity for non-member kept")
	}
	if _, ok := e.Entities[keyIST]; !ok {
		t.Fatalf("entity for member dropped")
	}
}

func TestInverse(t *testing.T) {
	t.Parallel()

	if _, ok := inverse(keyIST, true).(AddKey); !ok {
		t.Fatalf("inverse(wasMember=true) should re-add")
	}
	if _, ok := inverse(keyIST, false).(RemoveKey); !ok {
		t.Fatalf("inverse(wasMember=false) should remove")
	}
}
