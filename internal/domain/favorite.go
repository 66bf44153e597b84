package domain

import (
	"errors"
	"fmt"
	"strings"
)

// EntityType is the kind of entity a user can favorite.
type EntityType string

const (
	EntityAirport EntityType = "airport"
	EntityAirline EntityType = "airline"
)

var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrEmptyEntityID     = errors.New("entity id must be non-empty")
)

// ParseEntityType accepts "airport" or "airline" (case-insensitive).
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(strings.ToLower(strings.TrimSpace(s))) {
	case EntityAirport:
		return EntityAirport, nil
	case EntityAirline:
		return EntityAirline, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityType, s)
	}
}

func (t EntityType) Valid() bool {
	return t == EntityAirport || t == EntityAirline
}

// FavoriteKey identifies a favorite-able entity.
//
// It is a comparable value type: two keys are equal when both ID and Type match,
// so it can be used directly as a map key.
type FavoriteKey struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`
}

// NewFavoriteKey validates and normalizes a key built from caller input.
func NewFavoriteKey(id string, t EntityType) (FavoriteKey, error) {
	if !t.Valid() {
		return FavoriteKey{}, fmt.Errorf("%w: %q", ErrInvalidEntityType, string(t))
	}
	id = NormalizeEntityID(id)
	if id == "" {
		return FavoriteKey{}, ErrEmptyEntityID
	}
	return FavoriteKey{ID: id, Type: t}, nil
}

// ParseFavoriteKey parses the text form produced by FavoriteKey.String ("airport:IST").
func ParseFavoriteKey(s string) (FavoriteKey, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return FavoriteKey{}, fmt.Errorf("malformed favorite key %q (want type:id)", s)
	}
	t, err := ParseEntityType(typ)
	if err != nil {
		return FavoriteKey{}, err
	}
	return NewFavoriteKey(id, t)
}

func (k FavoriteKey) String() string {
	return string(k.Type) + ":" + k.ID
}

// FavoriteSet is the persisted list of favorites for one user.
//
// Invariant: no duplicate keys. Order is insertion order.
type FavoriteSet []FavoriteKey

func (s FavoriteSet) Contains(k FavoriteKey) bool {
	for _, e := range s {
		if e == k {
			return true
		}
	}
	return false
}

// With returns a copy of s with k appended, unless k is already present (array-union).
func (s FavoriteSet) With(k FavoriteKey) FavoriteSet {
	out := s.Clone()
	if s.Contains(k) {
		return out
	}
	return append(out, k)
}

// Without returns a copy of s with every occurrence of k removed (array-remove).
func (s FavoriteSet) Without(k FavoriteKey) FavoriteSet {
	out := make(FavoriteSet, 0, len(s))
	for _, e := range s {
		if e != k {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a copy that never aliases s. A nil set clones to an empty set.
func (s FavoriteSet) Clone() FavoriteSet {
	out := make(FavoriteSet, len(s))
	copy(out, s)
	return out
}

// Dedup drops repeated keys, keeping the first occurrence.
func (s FavoriteSet) Dedup() FavoriteSet {
	seen := make(map[FavoriteKey]struct{}, len(s))
	out := make(FavoriteSet, 0, len(s))
	for _, e := range s {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
