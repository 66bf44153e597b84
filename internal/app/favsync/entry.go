package favsync

import (
	"time"

	"github.com/airportdex/favorite-sync/internal/domain"
)

const scopeFavorites = "favorites"

// QueryKey identifies one cache entry.
type QueryKey struct {
	Scope  string
	UserID domain.UserID
}

// FavoritesQuery is the cache identity of a user's favorites, ["favorites", userID].
func FavoritesQuery(user domain.UserID) QueryKey {
	return QueryKey{Scope: scopeFavorites, UserID: user}
}

func (q QueryKey) String() string {
	return q.Scope + "/" + string(q.UserID)
}

// Entry is the local projection of a user's FavoriteSet plus resolved payloads.
type Entry struct {
	Keys     domain.FavoriteSet
	Entities map[domain.FavoriteKey]domain.Entity

	// Loaded is true once an authoritative read has been applied.
	Loaded   bool
	Stale    bool
	Fetching bool

	UpdatedAt time.Time
}

func (e Entry) Contains(k domain.FavoriteKey) bool {
	return e.Keys.Contains(k)
}

// Items returns entities in favorites order. Keys whose details have not been
// resolved yet are returned as a bare Entity carrying only the key.
func (e Entry) Items() []domain.Entity {
	out := make([]domain.Entity, 0, len(e.Keys))
	for _, k := range e.Keys {
		if ent, ok := e.Entities[k]; ok {
			out = append(out, domain.CloneEntity(ent))
			continue
		}
		out = append(out, domain.Entity{Key: k})
	}
	return out
}

func cloneEntry(e Entry) Entry {
	out := e
	out.Keys = e.Keys.Clone()
	out.Entities = cloneEntities(e.Entities)
	return out
}

func cloneEntities(m map[domain.FavoriteKey]domain.Entity) map[domain.FavoriteKey]domain.Entity {
	out := make(map[domain.FavoriteKey]domain.Entity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
