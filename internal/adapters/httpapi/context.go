package httpapi

import (
	"context"

	"github.com/airportdex/favorite-sync/internal/domain"
)

type userKey struct{}

func WithUser(ctx context.Context, user domain.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(userKey{}).(domain.UserID)
	return v, ok && v != ""
}
