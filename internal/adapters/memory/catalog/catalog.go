package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
)

// Catalog is an in-memory implementation of catalog.Catalog.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	entities map[domain.FavoriteKey]domain.Entity
}

func NewCatalog() *Catalog {
	return &Catalog{
		entities: make(map[domain.FavoriteKey]domain.Entity),
	}
}

// NewSeededCatalog returns a catalog preloaded with a small set of airports and airlines.
func NewSeededCatalog() *Catalog {
	c := NewCatalog()
	for _, e := range SeedEntities() {
		c.Put(e)
	}
	return c
}

// Put stores whichever payload e carries; entities with neither payload are ignored.
func (c *Catalog) Put(e domain.Entity) {
	switch {
	case e.Airport != nil:
		c.PutAirport(*e.Airport)
	case e.Airline != nil:
		c.PutAirline(*e.Airline)
	}
}

func (c *Catalog) PutAirport(a domain.Airport) {
	key := domain.FavoriteKey{ID: domain.NormalizeEntityID(a.Code), Type: domain.EntityAirport}
	a.Code = key.ID
	a.Name = domain.NormalizeHumanName(a.Name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[key] = domain.CloneEntity(domain.Entity{Key: key, Airport: &a})
}

func (c *Catalog) PutAirline(a domain.Airline) {
	key := domain.FavoriteKey{ID: domain.NormalizeEntityID(a.Code), Type: domain.EntityAirline}
	a.Code = key.ID
	a.Name = domain.NormalizeHumanName(a.Name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[key] = domain.CloneEntity(domain.Entity{Key: key, Airline: &a})
}

func (c *Catalog) Get(ctx context.Context, key domain.FavoriteKey) (domain.Entity, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[key]
	if !ok {
		return domain.Entity{}, catalog.ErrNotFound
	}
	return domain.CloneEntity(e), nil
}

func (c *Catalog) Resolve(ctx context.Context, keys []domain.FavoriteKey) ([]domain.Entity, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Entity, 0, len(keys))
	for _, k := range keys {
		if e, ok := c.entities[k]; ok {
			out = append(out, domain.CloneEntity(e))
		}
	}
	return out, nil
}

// Keys lists every catalog key, airports first, then by id.
func (c *Catalog) Keys() []domain.FavoriteKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.FavoriteKey, 0, len(c.entities))
	for k := range c.entities {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type == domain.EntityAirport
		}
		return out[i].ID < out[j].ID
	})
	return out
}
