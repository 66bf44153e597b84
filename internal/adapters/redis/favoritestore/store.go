package favoritestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

const defaultPrefix = "favsync"

// Store is a Redis implementation of favoritestore.Store.
//
// Each user's document is a sorted set of "type:id" members scored by a
// per-user insertion counter, so reads come back in first-insert order.
// Redis drops empty sorted sets, which reads the same as an emptied document.
type Store struct {
	client *redis.Client
	prefix string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys; defaults to "favsync".
	Prefix string
}

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewStore(rdb, opts.Prefix), nil
}

func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) setKey(user domain.UserID) string {
	return s.prefix + ":favorites:" + string(user)
}

func (s *Store) seqKey(user domain.UserID) string {
	return s.prefix + ":favorites-seq:" + string(user)
}

func (s *Store) Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	if s.client == nil {
		return nil, favoritestore.Wrap(favoritestore.OpRead, errors.New("nil redis client"))
	}
	members, err := s.client.ZRange(ctx, s.setKey(user), 0, -1).Result()
	if err != nil {
		return nil, favoritestore.Wrap(favoritestore.OpRead, err)
	}
	out := make(domain.FavoriteSet, 0, len(members))
	for _, m := range members {
		k, err := domain.ParseFavoriteKey(m)
		if err != nil {
			return nil, favoritestore.Wrap(favoritestore.OpRead, fmt.Errorf("corrupt member %q: %w", m, err))
		}
		out = append(out, k)
	}
	return out, nil
}

func (s *Store) AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if s.client == nil {
		return favoritestore.Wrap(favoritestore.OpAdd, errors.New("nil redis client"))
	}
	seq, err := s.client.Incr(ctx, s.seqKey(user)).Result()
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpAdd, err)
	}
	// NX keeps the original score of an existing member, and with it its position.
	err = s.client.ZAddNX(ctx, s.setKey(user), redis.Z{Score: float64(seq), Member: key.String()}).Err()
	if err != nil {
		return favoritestore.Wrap(favoritestore.OpAdd, err)
	}
	return nil
}

func (s *Store) RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if s.client == nil {
		return favoritestore.Wrap(favoritestore.OpRemove, errors.New("nil redis client"))
	}
	if err := s.client.ZRem(ctx, s.setKey(user), key.String()).Err(); err != nil {
		return favoritestore.Wrap(favoritestore.OpRemove, err)
	}
	return nil
}
