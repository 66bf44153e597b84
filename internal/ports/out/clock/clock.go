package clock

import "time"

// Clock stamps cache entries and failure events, and drives token expiry checks.
// Implementations return UTC times.
type Clock interface {
	Now() time.Time
}
