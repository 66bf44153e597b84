package favsync

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/platform/clock"
	"github.com/airportdex/favorite-sync/internal/ports/out/authgate"
	"github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	clockport "github.com/airportdex/favorite-sync/internal/ports/out/clock"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
	"github.com/airportdex/favorite-sync/internal/ports/out/navigation"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("favsync: no active session")

// Deps are the collaborators the engine is built from. Catalog, Clock and
// Logger are optional.
type Deps struct {
	Store     favoritestore.Store
	Catalog   catalog.Catalog
	Gate      authgate.Gate
	Navigator navigation.Navigator
	Clock     clockport.Clock
	Logger    *zap.Logger
}

// ToggleState is the view behind a favorite button.
type ToggleState struct {
	IsFavorite bool
	IsPending  bool
	Toggle     func() <-chan Result
}

// FavoriteList is the view behind a favorites screen.
type FavoriteList struct {
	Items     []domain.Entity
	IsLoading bool
	Refresh   func()
}

// Engine wires the cache, resolver and controller together for one session gate.
type Engine struct {
	cache *Cache
	ctrl  *Controller
	feed  *failureFeed

	store   favoritestore.Store
	catalog catalog.Catalog
	gate    authgate.Gate
	nav     navigation.Navigator
	log     *zap.Logger

	closeOnce     sync.Once
	cancelExpired func()
}

func NewEngine(d Deps, opts Options) (*Engine, error) {
	if d.Store == nil {
		return nil, errors.New("favsync: store is required")
	}
	if d.Gate == nil {
		return nil, errors.New("favsync: auth gate is required")
	}
	if d.Navigator == nil {
		return nil, errors.New("favsync: navigator is required")
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystemClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	e := &Engine{
		store:   d.Store,
		catalog: d.Catalog,
		gate:    d.Gate,
		nav:     d.Navigator,
		log:     d.Logger,
		feed:    newFailureFeed(opts.FailureBuffer, d.Logger),
	}
	e.cache = NewCache(e.fetch, d.Clock, d.Logger, opts.FetchTimeout)
	e.ctrl = newController(e.cache, d, opts, e.feed)
	e.cancelExpired = d.Gate.OnSessionExpired(e.handleExpired)
	return e, nil
}

// Cache exposes the underlying cache, mainly for IsFavorite and tests.
func (e *Engine) Cache() *Cache { return e.cache }

// Start performs the initial authoritative read for the signed-in user.
func (e *Engine) Start(ctx context.Context) error {
	user, ok := e.gate.CurrentUser()
	if !ok {
		return ErrNoSession
	}
	return e.cache.Load(ctx, FavoritesQuery(user))
}

// Membership reports whether key is a favorite of the signed-in user.
func (e *Engine) Membership(key domain.FavoriteKey) bool {
	user, ok := e.gate.CurrentUser()
	if !ok {
		return false
	}
	return IsFavorite(e.cache, FavoritesQuery(user), key)
}

func (e *Engine) ToggleState(key domain.FavoriteKey) ToggleState {
	return ToggleState{
		IsFavorite: e.Membership(key),
		IsPending:  e.ctrl.IsPending(key),
		Toggle: func() <-chan Result {
			return e.ctrl.Toggle(context.Background(), key)
		},
	}
}

// Toggle flips key. See Controller.Toggle.
func (e *Engine) Toggle(ctx context.Context, key domain.FavoriteKey) <-chan Result {
	return e.ctrl.Toggle(ctx, key)
}

// List returns the signed-in user's favorites. Reading a list that has never
// been fetched starts a background read.
func (e *Engine) List() FavoriteList {
	user, ok := e.gate.CurrentUser()
	if !ok {
		return FavoriteList{Items: []domain.Entity{}, Refresh: func() {}}
	}
	q := FavoritesQuery(user)
	refresh := func() { e.cache.Invalidate(q) }

	entry, ok := e.cache.Read(q)
	if !ok {
		e.cache.Invalidate(q)
		return FavoriteList{Items: []domain.Entity{}, IsLoading: true, Refresh: refresh}
	}
	return FavoriteList{
		Items:     entry.Items(),
		IsLoading: !entry.Loaded && entry.Fetching,
		Refresh:   refresh,
	}
}

// Logout clears the user's cache entry and ends the session. The remote
// document is left intact; toggles still in flight settle into no-ops.
func (e *Engine) Logout() {
	if user, ok := e.gate.CurrentUser(); ok {
		e.cache.Clear(FavoritesQuery(user))
	}
	e.gate.EndSession()
}

// Subscribe calls fn after every cache change.
func (e *Engine) Subscribe(fn func()) (cancel func()) {
	return e.cache.Subscribe(func(QueryKey, Entry) { fn() })
}

// Failures streams toggles that did not stick. Events are dropped when nobody reads.
func (e *Engine) Failures() <-chan Failure {
	return e.feed.ch
}

// Wait blocks until in-flight toggles and background reads have finished.
func (e *Engine) Wait() {
	e.ctrl.Wait()
	e.cache.Wait()
}

// Close stops listening for session expiry and waits for in-flight work.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancelExpired()
		e.Wait()
	})
}

func (e *Engine) handleExpired() {
	e.log.Info("session expired; clearing favorites cache")
	e.cache.ClearAll()
	e.nav.RedirectToAuth()
}

// fetch is the cache's Fetcher: the authoritative read plus a best-effort
// resolution of entity details.
func (e *Engine) fetch(ctx context.Context, q QueryKey) (domain.FavoriteSet, []domain.Entity, error) {
	set, err := e.store.Read(ctx, q.UserID)
	if err != nil {
		err = favoritestore.Wrap(favoritestore.OpRead, err)
		if errors.Is(err, favoritestore.ErrSessionExpired) {
			e.log.Warn("favorite store rejected session on read", zap.String("user", string(q.UserID)))
			e.ctrl.expireSession(q.UserID)
		}
		return nil, nil, err
	}
	if e.catalog == nil || len(set) == 0 {
		return set, nil, nil
	}
	ents, err := e.catalog.Resolve(ctx, set)
	if err != nil {
		e.log.Debug("favorite details lookup failed", zap.Stringer("query", q), zap.Error(err))
		return set, nil, nil
	}
	return set, ents, nil
}
