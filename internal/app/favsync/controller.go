package favsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/authgate"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	clockport "github.com/airportdex/favorite-sync/internal/ports/out/clock"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
	"github.com/airportdex/favorite-sync/internal/ports/out/navigation"
)

// Outcome is how a single toggle settled.
type Outcome int

const (
	OutcomeAdded Outcome = iota + 1
	OutcomeRemoved
	OutcomeRolledBack
	OutcomeSessionExpired
	// OutcomeSkipped: a mutation for the same key was already in flight.
	OutcomeSkipped
	// OutcomeRedirected: no active session; the user was sent to sign in.
	OutcomeRedirected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeRemoved:
		return "removed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeSessionExpired:
		return "session_expired"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Result is delivered once per Toggle call.
type Result struct {
	Key     domain.FavoriteKey
	Outcome Outcome
	// IsFavorite is the key's membership once the toggle settled.
	IsFavorite bool
	// Err is set for OutcomeRolledBack and OutcomeSessionExpired.
	Err error
}

// Controller is the toggle state machine.
//
// Per key: NOT_FAVORITE -> PENDING_ADD -> FAVORITE | NOT_FAVORITE (rollback),
// FAVORITE -> PENDING_REMOVE -> NOT_FAVORITE | FAVORITE (rollback), and any
// toggle while PENDING_* is a no-op.
type Controller struct {
	cache   *Cache
	store   favoritestore.Store
	catalog catalog.Catalog
	gate    authgate.Gate
	nav     navigation.Navigator
	clk     clockport.Clock
	log     *zap.Logger
	feed    *failureFeed

	remoteTimeout time.Duration

	mu        sync.Mutex
	pending   map[pendingKey]pendingMark
	nextToken uint64

	inflight sync.WaitGroup
}

func newController(cache *Cache, d Deps, opts Options, feed *failureFeed) *Controller {
	return &Controller{
		cache:         cache,
		store:         d.Store,
		catalog:       d.Catalog,
		gate:          d.Gate,
		nav:           d.Navigator,
		clk:           d.Clock,
		log:           d.Logger,
		feed:          feed,
		remoteTimeout: opts.RemoteTimeout,
		pending:       make(map[pendingKey]pendingMark),
	}
}

// Toggle flips key's favorite status. The optimistic cache write has happened
// by the time Toggle returns; the returned channel receives one Result when
// the remote call settles and is then closed. Callers may ignore it.
//
// The remote call is not canceled with ctx; it runs until it completes or
// Options.RemoteTimeout elapses.
func (c *Controller) Toggle(ctx context.Context, key domain.FavoriteKey) <-chan Result {
	out := make(chan Result, 1)

	user, ok := c.gate.CurrentUser()
	if !ok {
		c.log.Debug("favorite toggle without session; redirecting to auth", zap.Stringer("key", key))
		c.nav.RedirectToAuth()
		out <- Result{Key: key, Outcome: OutcomeRedirected}
		close(out)
		return out
	}

	q := FavoritesQuery(user)
	token, ok := c.acquire(q, key)
	if !ok {
		out <- Result{Key: key, Outcome: OutcomeSkipped, IsFavorite: IsFavorite(c.cache, q, key)}
		close(out)
		return out
	}

	var u KeyUpdate = AddKey{Key: key}
	if IsFavorite(c.cache, q, key) {
		u = RemoveKey{Key: key}
	}
	res := c.cache.OptimisticWrite(q, u)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer close(out)
		out <- c.settle(context.WithoutCancel(ctx), user, res, token)
	}()
	return out
}

// IsPending reports whether a mutation for key is in flight for the signed-in user.
func (c *Controller) IsPending(key domain.FavoriteKey) bool {
	user, ok := c.gate.CurrentUser()
	if !ok {
		return false
	}
	q := FavoritesQuery(user)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyLocked(pendingKey{q: q, key: key})
}

// Wait blocks until every in-flight toggle has settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) settle(ctx context.Context, user domain.UserID, res MutationResult, token uint64) Result {
	// Released after reconciliation so a follow-up toggle never observes the optimistic state of a failed call.
	defer c.release(res.Query, res.Applied, token)

	ctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	op, err := c.call(ctx, user, res.Update)
	if err == nil {
		c.cache.Settle(res)
		if _, added := res.Update.(AddKey); added {
			c.attachDetails(ctx, res)
			return Result{Key: res.Applied, Outcome: OutcomeAdded, IsFavorite: true}
		}
		return Result{Key: res.Applied, Outcome: OutcomeRemoved, IsFavorite: false}
	}

	err = favoritestore.Wrap(op, err)
	fields := []zap.Field{
		zap.String("user", string(user)),
		zap.Stringer("key", res.Applied),
		zap.String("op", op),
		zap.String("mutation_id", res.ID.String()),
		zap.Error(err),
	}

	if errors.Is(err, favoritestore.ErrSessionExpired) {
		c.log.Warn("favorite store rejected session; tearing down", fields...)
		c.expireSession(user)
		c.feed.publish(Failure{MutationID: res.ID, Key: res.Applied, Op: op, Err: err, SessionExpired: true, At: c.now()})
		return Result{Key: res.Applied, Outcome: OutcomeSessionExpired, IsFavorite: false, Err: err}
	}

	c.cache.Rollback(res)
	c.log.Warn("favorite toggle failed; rolled back", fields...)
	c.feed.publish(Failure{MutationID: res.ID, Key: res.Applied, Op: op, Err: err, At: c.now()})
	return Result{Key: res.Applied, Outcome: OutcomeRolledBack, IsFavorite: res.WasMember, Err: err}
}

func (c *Controller) call(ctx context.Context, user domain.UserID, u KeyUpdate) (string, error) {
	switch u := u.(type) {
	case AddKey:
		return favoritestore.OpAdd, c.store.AddElement(ctx, user, u.Key)
	case RemoveKey:
		return favoritestore.OpRemove, c.store.RemoveElement(ctx, user, u.Key)
	default:
		panic("favsync: unhandled key update")
	}
}

// attachDetails resolves the payload of a freshly added key. Best effort.
func (c *Controller) attachDetails(ctx context.Context, res MutationResult) {
	if c.catalog == nil {
		return
	}
	ent, err := c.catalog.Get(ctx, res.Applied)
	if err != nil {
		c.log.Debug("favorite details lookup failed", zap.Stringer("key", res.Applied), zap.Error(err))
		return
	}
	c.cache.AttachEntity(res.Query, ent)
}

// expireSession clears the user's entry, ends the session and redirects.
// Only the first caller for a session ends it and redirects.
func (c *Controller) expireSession(user domain.UserID) {
	c.cache.Clear(FavoritesQuery(user))
	if cur, ok := c.gate.CurrentUser(); !ok || cur != user {
		return
	}
	c.gate.EndSession()
	c.nav.RedirectToAuth()
}

// pendingKey scopes the pending flag to one user's cache entry. A mark whose
// epoch predates the entry's current epoch belongs to a cleared session and
// does not block.
type pendingKey struct {
	q   QueryKey
	key domain.FavoriteKey
}

type pendingMark struct {
	epoch uint64
	token uint64
}

func (c *Controller) acquire(q QueryKey, key domain.FavoriteKey) (uint64, bool) {
	pk := pendingKey{q: q, key: key}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyLocked(pk) {
		return 0, false
	}
	c.nextToken++
	c.pending[pk] = pendingMark{epoch: c.cache.epoch(q), token: c.nextToken}
	return c.nextToken, true
}

// release drops the mark only if it is still the one token acquired; a toggle
// from a later session may have replaced it.
func (c *Controller) release(q QueryKey, key domain.FavoriteKey, token uint64) {
	pk := pendingKey{q: q, key: key}
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.pending[pk]; ok && m.token == token {
		delete(c.pending, pk)
	}
}

// busyLocked reports whether pk has a mark from the current epoch. Caller holds c.mu.
func (c *Controller) busyLocked(pk pendingKey) bool {
	m, ok := c.pending[pk]
	return ok && m.epoch == c.cache.epoch(pk.q)
}

func (c *Controller) now() time.Time {
	return c.clk.Now()
}
