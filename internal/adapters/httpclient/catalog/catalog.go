package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/airportdex/favorite-sync/internal/adapters/httpapi"
	"github.com/airportdex/favorite-sync/internal/adapters/httpclient"
	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
)

// DefaultBatchSize matches the server's per-request key limit.
const DefaultBatchSize = 100

// Catalog resolves keys through GET /v1/entities. Large lookups are split into
// batches that are fetched concurrently.
type Catalog struct {
	c           *httpclient.Client
	batchSize   int
	parallelism int
}

func NewCatalog(c *httpclient.Client) *Catalog {
	return &Catalog{c: c, batchSize: DefaultBatchSize, parallelism: 4}
}

func (c *Catalog) Get(ctx context.Context, key domain.FavoriteKey) (domain.Entity, error) {
	ents, err := c.Resolve(ctx, []domain.FavoriteKey{key})
	if err != nil {
		return domain.Entity{}, err
	}
	if len(ents) == 0 {
		return domain.Entity{}, catalog.ErrNotFound
	}
	return ents[0], nil
}

func (c *Catalog) Resolve(ctx context.Context, keys []domain.FavoriteKey) ([]domain.Entity, error) {
	if len(keys) == 0 {
		return []domain.Entity{}, nil
	}
	var batches [][]domain.FavoriteKey
	for start := 0; start < len(keys); start += c.batchSize {
		end := min(start+c.batchSize, len(keys))
		batches = append(batches, keys[start:end])
	}

	results := make([][]domain.Entity, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, batch := range batches {
		g.Go(func() error {
			ents, err := c.resolveBatch(gctx, batch)
			if err != nil {
				return err
			}
			results[i] = ents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Entity, 0, len(keys))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (c *Catalog) resolveBatch(ctx context.Context, keys []domain.FavoriteKey) ([]domain.Entity, error) {
	q := url.Values{}
	for _, k := range keys {
		q.Add("key", k.String())
	}
	var resp httpapi.EntitiesResponse
	if err := c.c.Do(ctx, http.MethodGet, "/v1/entities", q, "", &resp); err != nil {
		return nil, fmt.Errorf("resolve entities: %w", err)
	}
	out := make([]domain.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if ent, ok := e.ToDomain(); ok {
			out = append(out, ent)
		}
	}
	return out, nil
}
