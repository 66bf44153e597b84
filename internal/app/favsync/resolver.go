package favsync

import "github.com/airportdex/favorite-sync/internal/domain"

// IsFavorite reports whether key is a favorite according to the current cache
// entry for q. It never performs I/O. A missing entry resolves to false.
func IsFavorite(c *Cache, q QueryKey, key domain.FavoriteKey) bool {
	if c == nil {
		return false
	}
	return c.contains(q, key)
}
