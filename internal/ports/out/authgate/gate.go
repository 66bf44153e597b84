package authgate

import "github.com/airportdex/favorite-sync/internal/domain"

// Gate reports whether a user session is active. Authentication itself is
// opaque to the sync engine.
type Gate interface {
	// CurrentUser returns the signed-in user, or false when no session is active.
	CurrentUser() (domain.UserID, bool)

	// OnSessionExpired registers fn to run when the session expires outside of
	// a favorites call (e.g. a token refresh failed). The returned func unregisters it.
	OnSessionExpired(fn func()) (cancel func())

	// EndSession tears the session down. It does not fire OnSessionExpired callbacks.
	EndSession()
}
