package domain

import "strings"

// NormalizeEntityID trims leading/trailing whitespace and drops internal whitespace runs.
// Entity ids (IATA/ICAO style codes) never contain spaces, so " I S T " and "IST" are the same key.
func NormalizeEntityID(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for airport/airline display names loaded into the catalog.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
