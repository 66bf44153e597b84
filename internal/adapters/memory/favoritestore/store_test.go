package favoritestore

import (
	"context"
	"errors"
	"testing"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

func TestStore_AddCreatesDocumentLazily(t *testing.T) {
	t.Parallel()

	s := NewStore()
	user := domain.UserID("u1")
	ist := domain.FavoriteKey{ID: "IST", Type: domain.EntityAirport}

	if s.HasDocument(user) {
		t.Fatalf("HasDocument() before first add = true")
	}
	if err := s.RemoveElement(context.Background(), user, ist); err != nil {
		t.Fatalf("RemoveElement(no document) err=%v", err)
	}
	if s.HasDocument(user) {
		t.Fatalf("RemoveElement created a document")
	}

	if err := s.AddElement(context.Background(), user, ist); err != nil {
		t.Fatalf("AddElement() err=%v", err)
	}
	if !s.HasDocument(user) {
		t.Fatalf("HasDocument() after add = false")
	}

	if err := s.RemoveElement(context.Background(), user, ist); err != nil {
		t.Fatalf("RemoveElement() err=%v", err)
	}
	got, err := s.Read(context.Background(), user)
	if err != nil {
		t.Fatalf("Read() err=%v", err)
	}
	if len(got) != 0 || !s.HasDocument(user) {
		t.Fatalf("after remove: set=%v hasDocument=%v, want empty document kept", got, s.HasDocument(user))
	}
}

func TestStore_CanceledContextIsRemoteStoreError(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.AddElement(ctx, "u1", domain.FavoriteKey{ID: "TK", Type: domain.EntityAirline})
	var rse *favoritestore.RemoteStoreError
	if !errors.As(err, &rse) || rse.Op != favoritestore.OpAdd {
		t.Fatalf("AddElement(canceled) err=%v, want RemoteStoreError op=add", err)
	}
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	user := domain.UserID("u1")
	_ = s.AddElement(context.Background(), user, domain.FavoriteKey{ID: "SAW", Type: domain.EntityAirport})

	got, _ := s.Read(context.Background(), user)
	got[0].ID = "MUTATED"

	again, _ := s.Read(context.Background(), user)
	if again[0].ID != "SAW" {
		t.Fatalf("Read() aliased internal state: %v", again)
	}
}
