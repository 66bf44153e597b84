package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
)

// Catalog is a Postgres implementation of catalog.Catalog over the airports
// and airlines tables.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) Get(ctx context.Context, key domain.FavoriteKey) (domain.Entity, error) {
	if c.pool == nil {
		return domain.Entity{}, errors.New("nil postgres pool")
	}
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
	if c.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	if len(keys) == 0 {
		return []domain.Entity{}, nil
	}

	var airportCodes, airlineCodes []string
	for _, k := range keys {
		switch k.Type {
		case domain.EntityAirport:
			airportCodes = append(airportCodes, k.ID)
		case domain.EntityAirline:
			airlineCodes = append(airlineCodes, k.ID)
		}
	}

	found := make(map[domain.FavoriteKey]domain.Entity, len(keys))
	if len(airportCodes) > 0 {
		if err := c.loadAirports(ctx, airportCodes, found); err != nil {
			return nil, err
		}
	}
	if len(airlineCodes) > 0 {
		if err := c.loadAirlines(ctx, airlineCodes, found); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Entity, 0, len(keys))
	for _, k := range keys {
		if e, ok := found[k]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Catalog) loadAirports(ctx context.Context, codes []string, into map[domain.FavoriteKey]domain.Entity) error {
	rows, err := c.pool.Query(ctx, `
		SELECT code, icao, name, city, country
		FROM airports
		WHERE code = ANY($1)
	`, codes)
	if err != nil {
		return fmt.Errorf("query airports: %w", err)
	}
	airports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Airport, error) {
		var a domain.Airport
		err := row.Scan(&a.Code, &a.ICAO, &a.Name, &a.City, &a.Country)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("scan airports: %w", err)
	}
	for _, a := range airports {
		key := domain.FavoriteKey{ID: a.Code, Type: domain.EntityAirport}
		into[key] = domain.Entity{Key: key, Airport: &a}
	}
	return nil
}

func (c *Catalog) loadAirlines(ctx context.Context, codes []string, into map[domain.FavoriteKey]domain.Entity) error {
	rows, err := c.pool.Query(ctx, `
		SELECT code, icao, name, country, callsign
		FROM airlines
		WHERE code = ANY($1)
	`, codes)
	if err != nil {
		return fmt.Errorf("query airlines: %w", err)
	}
	airlines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Airline, error) {
		var a domain.Airline
		err := row.Scan(&a.Code, &a.ICAO, &a.Name, &a.Country, &a.Callsign)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("scan airlines: %w", err)
	}
	for _, a := range airlines {
		key := domain.FavoriteKey{ID: a.Code, Type: domain.EntityAirline}
		into[key] = domain.Entity{Key: key, Airline: &a}
	}
	return nil
}

// Upsert writes entities into the catalog tables in one transaction.
// Entities without a payload are skipped.
func (c *Catalog) Upsert(ctx context.Context, ents []domain.Entity) error {
	if c.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		for _, e := range ents {
			switch {
			case e.Airport != nil:
				a := e.Airport
				if _, err := tx.Exec(ctx, `
					INSERT INTO airports (code, icao, name, city, country)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (code) DO UPDATE SET
						icao = EXCLUDED.icao,
						name = EXCLUDED.name,
						city = EXCLUDED.city,
						country = EXCLUDED.country
				`,
					domain.NormalizeEntityID(a.Code),
					a.ICAO,
					domain.NormalizeHumanName(a.Name),
					a.City,
					a.Country,
				); err != nil {
					return fmt.Errorf("upsert airport %s: %w", a.Code, err)
				}
			case e.Airline != nil:
				a := e.Airline
				if _, err := tx.Exec(ctx, `
					INSERT INTO airlines (code, icao, name, country, callsign)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (code) DO UPDATE SET
						icao = EXCLUDED.icao,
						name = EXCLUDED.name,
						country = EXCLUDED.country,
						callsign = EXCLUDED.callsign
				`,
					domain.NormalizeEntityID(a.Code),
					a.ICAO,
					domain.NormalizeHumanName(a.Name),
					a.Country,
					a.Callsign,
				); err != nil {
					return fmt.Errorf("upsert airline %s: %w", a.Code, err)
				}
			}
		}
		return nil
	})
}
