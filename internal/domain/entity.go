package domain

// Airport is the detail payload shown for a favorited airport.
type Airport struct {
	Code    string
	ICAO    *string
	Name    string
	City    string
	Country string
}

// Airline is the detail payload shown for a favorited airline.
type Airline struct {
	Code     string
	ICAO     *string
	Name     string
	Country  string
	Callsign *string
}

// Entity is a resolved favorite: its key plus exactly one of Airport/Airline.
type Entity struct {
	Key     FavoriteKey
	Airport *Airport
	Airline *Airline
}

// Name returns the display name of whichever payload is set.
func (e Entity) Name() string {
	switch {
	case e.Airport != nil:
		return e.Airport.Name
	case e.Airline != nil:
		return e.Airline.Name
	default:
		return e.Key.ID
	}
}

// CloneEntity deep-copies optional fields so callers can't mutate cached payloads.
func CloneEntity(e Entity) Entity {
	out := e
	if e.Airport != nil {
		a := *e.Airport
		a.ICAO = cloneStringPtr(e.Airport.ICAO)
		out.Airport = &a
	}
	if e.Airline != nil {
		a := *e.Airline
		a.ICAO = cloneStringPtr(e.Airline.ICAO)
		a.Callsign = cloneStringPtr(e.Airline.Callsign)
		out.Airline = &a
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
