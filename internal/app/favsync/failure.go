package favsync

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// Failure is published on the side channel whenever a toggle does not stick.
// UIs may use it to show a generic "action failed" indicator.
type Failure struct {
	MutationID     uuid.UUID
	Key            domain.FavoriteKey
	Op             string
	Err            error
	SessionExpired bool
	At             time.Time
}

type failureFeed struct {
	ch  chan Failure
	log *zap.Logger
}

func newFailureFeed(size int, log *zap.Logger) *failureFeed {
	return &failureFeed{ch: make(chan Failure, size), log: log}
}

// publish never blocks; a full buffer drops the event.
func (f *failureFeed) publish(ev Failure) {
	select {
	case f.ch <- ev:
	default:
		f.log.Warn("failure feed full; dropping event",
			zap.Stringer("key", ev.Key),
			zap.String("mutation_id", ev.MutationID.String()),
		)
	}
}
