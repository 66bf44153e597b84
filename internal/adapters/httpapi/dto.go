package httpapi

import (
	"github.com/oapi-codegen/nullable"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// ErrorResponse is the envelope every non-2xx response carries.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

// FavoritesDocument is the remote favorites document.
type FavoritesDocument struct {
	Favorites []domain.FavoriteKey `json:"favorites"`
}

type EntitiesResponse struct {
	Entities []Entity `json:"entities"`
}

type Entity struct {
	Key      string                    `json:"key"`
	ID       string                    `json:"id"`
	Type     domain.EntityType         `json:"type"`
	Name     string                    `json:"name"`
	ICAO     nullable.Nullable[string] `json:"icao,omitempty"`
	City     nullable.Nullable[string] `json:"city,omitempty"`
	Country  string                    `json:"country"`
	Callsign nullable.Nullable[string] `json:"callsign,omitempty"`
}

func entityFromDomain(e domain.Entity) Entity {
	out := Entity{
		Key:  e.Key.String(),
		ID:   e.Key.ID,
		Type: e.Key.Type,
	}
	switch {
	case e.Airport != nil:
		out.Name = e.Airport.Name
		out.ICAO = nullableString(e.Airport.ICAO)
		out.City = nullable.NewNullableWithValue(e.Airport.City)
		out.Country = e.Airport.Country
	case e.Airline != nil:
		out.Name = e.Airline.Name
		out.ICAO = nullableString(e.Airline.ICAO)
		out.Country = e.Airline.Country
		out.Callsign = nullableString(e.Airline.Callsign)
	}
	return out
}

// ToDomain rebuilds the domain entity. Entries with an unknown type or key
// yield ok=false.
func (e Entity) ToDomain() (domain.Entity, bool) {
	key, err := domain.NewFavoriteKey(e.ID, e.Type)
	if err != nil {
		return domain.Entity{}, false
	}
	icao := stringFromNullable(e.ICAO)
	switch key.Type {
	case domain.EntityAirport:
		city, _ := e.City.Get()
		return domain.Entity{Key: key, Airport: &domain.Airport{
			Code:    key.ID,
			ICAO:    icao,
			Name:    e.Name,
			City:    city,
			Country: e.Country,
		}}, true
	case domain.EntityAirline:
		return domain.Entity{Key: key, Airline: &domain.Airline{
			Code:     key.ID,
			ICAO:     icao,
			Name:     e.Name,
			Country:  e.Country,
			Callsign: stringFromNullable(e.Callsign),
		}}, true
	default:
		return domain.Entity{}, false
	}
}

func nullableString(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(*p)
}

func stringFromNullable(n nullable.Nullable[string]) *string {
	if !n.IsSpecified() || n.IsNull() {
		return nil
	}
	v, err := n.Get()
	if err != nil {
		return nil
	}
	return &v
}
