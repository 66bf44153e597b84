package catalog

import "github.com/airportdex/favorite-sync/internal/domain"

func strPtr(s string) *string { return &s }

var seedAirports = []domain.Airport{
	{Code: "IST", ICAO: strPtr("LTFM"), Name: "Istanbul Airport", City: "Istanbul", Country: "TR"},
	{Code: "SAW", ICAO: strPtr("LTFJ"), Name: "Sabiha Gökçen International Airport", City: "Istanbul", Country: "TR"},
	{Code: "ESB", ICAO: strPtr("LTAC"), Name: "Esenboğa International Airport", City: "Ankara", Country: "TR"},
	{Code: "AYT", ICAO: strPtr("LTAI"), Name: "Antalya Airport", City: "Antalya", Country: "TR"},
	{Code: "ADB", ICAO: strPtr("LTBJ"), Name: "Adnan Menderes Airport", City: "Izmir", Country: "TR"},
	{Code: "LHR", ICAO: strPtr("EGLL"), Name: "Heathrow Airport", City: "London", Country: "GB"},
	{Code: "FRA", ICAO: strPtr("EDDF"), Name: "Frankfurt Airport", City: "Frankfurt", Country: "DE"},
	{Code: "JFK", ICAO: strPtr("KJFK"), Name: "John F. Kennedy International Airport", City: "New York", Country: "US"},
}

var seedAirlines = []domain.Airline{
	{Code: "TK", ICAO: strPtr("THY"), Name: "Turkish Airlines", Country: "TR", Callsign: strPtr("TURKISH")},
	{Code: "PC", ICAO: strPtr("PGT"), Name: "Pegasus Airlines", Country: "TR", Callsign: strPtr("SUNTURK")},
	{Code: "XQ", ICAO: strPtr("SXS"), Name: "SunExpress", Country: "TR", Callsign: strPtr("SUNEXPRESS")},
	{Code: "AJ", ICAO: strPtr("AJA"), Name: "AJet", Country: "TR"},
	{Code: "LH", ICAO: strPtr("DLH"), Name: "Lufthansa", Country: "DE", Callsign: strPtr("LUFTHANSA")},
	{Code: "BA", ICAO: strPtr("BAW"), Name: "British Airways", Country: "GB", Callsign: strPtr("SPEEDBIRD")},
}

// SeedEntities returns the built-in airports and airlines, airports first.
func SeedEntities() []domain.Entity {
	out := make([]domain.Entity, 0, len(seedAirports)+len(seedAirlines))
	for _, a := range seedAirports {
		key := domain.FavoriteKey{ID: a.Code, Type: domain.EntityAirport}
		out = append(out, domain.CloneEntity(domain.Entity{Key: key, Airport: &a}))
	}
	for _, a := range seedAirlines {
		key := domain.FavoriteKey{ID: a.Code, Type: domain.EntityAirline}
		out = append(out, domain.CloneEntity(domain.Entity{Key: key, Airline: &a}))
	}
	return out
}
