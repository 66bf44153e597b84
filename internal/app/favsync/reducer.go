package favsync

import (
	"fmt"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// Update is one of the closed set of cache update operations:
// AddKey, RemoveKey or ReplaceSet. Every write goes through reduce.
type Update interface {
	isUpdate()
}

// KeyUpdate is an Update that changes the membership of exactly one key.
// Only key updates can be written optimistically.
type KeyUpdate interface {
	Update
	FavoriteKey() domain.FavoriteKey
}

// AddKey marks Key as a favorite.
type AddKey struct{ Key domain.FavoriteKey }

// RemoveKey unmarks Key and drops its resolved payload.
type RemoveKey struct{ Key domain.FavoriteKey }

// ReplaceSet installs an authoritative server read.
type ReplaceSet struct {
	Set      domain.FavoriteSet
	Entities []domain.Entity
}

func (AddKey) isUpdate()     {}
func (RemoveKey) isUpdate()  {}
func (ReplaceSet) isUpdate() {}

func (u AddKey) FavoriteKey() domain.FavoriteKey    { return u.Key }
func (u RemoveKey) FavoriteKey() domain.FavoriteKey { return u.Key }

// inverse returns the update that restores k's membership to wasMember.
func inverse(k domain.FavoriteKey, wasMember bool) KeyUpdate {
	if wasMember {
		return AddKey{Key: k}
	}
	return RemoveKey{Key: k}
}

// reduce applies u to e and returns the new entry. e is never mutated; slices
// and maps are copied on write.
func reduce(e Entry, u Update) Entry {
	switch u := u.(type) {
	case AddKey:
		e.Keys = e.Keys.With(u.Key)
	case RemoveKey:
		e.Keys = e.Keys.Without(u.Key)
		if _, ok := e.Entities[u.Key]; ok {
			e.Entities = cloneEntities(e.Entities)
			delete(e.Entities, u.Key)
		}
	case ReplaceSet:
		e.Keys = u.Set.Dedup()
		ents := make(map[domain.FavoriteKey]domain.Entity, len(u.Entities))
		for _, ent := range u.Entities {
			if e.Keys.Contains(ent.Key) {
				ents[ent.Key] = domain.CloneEntity(ent)
			}
		}
		e.Entities = ents
		e.Loaded = true
		e.Stale = false
	default:
		panic(fmt.Sprintf("favsync: unhandled cache update %T", u))
	}
	return e
}
