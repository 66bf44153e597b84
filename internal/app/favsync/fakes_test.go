package favsync

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	memauth "github.com/airportdex/favorite-sync/internal/adapters/memory/authgate"
	memcatalog "github.com/airportdex/favorite-sync/internal/adapters/memory/catalog"
	memclock "github.com/airportdex/favorite-sync/internal/adapters/memory/clock"
	memstore "github.com/airportdex/favorite-sync/internal/adapters/memory/favoritestore"
	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

var (
	keyIST = domain.FavoriteKey{ID: "IST", Type: domain.EntityAirport}
	keySAW = domain.FavoriteKey{ID: "SAW", Type: domain.EntityAirport}
	keyTK  = domain.FavoriteKey{ID: "TK", Type: domain.EntityAirline}
	keyPC  = domain.FavoriteKey{ID: "PC", Type: domain.EntityAirline}
)

const testUser = domain.UserID("user-1")

// fakeStore wraps the memory store with call counting, per-key holds and
// injected failures.
type fakeStore struct {
	inner *memstore.Store

	mu      sync.Mutex
	calls   map[string]int
	holds   map[domain.FavoriteKey]chan struct{}
	fail    map[domain.FavoriteKey]error
	readErr error
	reads   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inner: memstore.NewStore(),
		calls: make(map[string]int),
		holds: make(map[domain.FavoriteKey]chan struct{}),
		fail:  make(map[domain.FavoriteKey]error),
	}
}

// hold blocks mutations of key until the returned func is called.
func (s *fakeStore) hold(key domain.FavoriteKey) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *fakeStore) failWith(key domain.FavoriteKey, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[key] = err
}

func (s *fakeStore) failReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *fakeStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStore) seed(t *testing.T, user domain.UserID, keys ...domain.FavoriteKey) {
	t.Helper()
	for _, k := range keys {
		if err := s.inner.AddElement(context.Background(), user, k); err != nil {
			t.Fatalf("seed AddElement(%s) err=%v", k, err)
		}
	}
}

func (s *fakeStore) document(t *testing.T, user domain.UserID) domain.FavoriteSet {
	t.Helper()
	set, err := s.inner.Read(context.Background(), user)
	if err != nil {
		t.Fatalf("Read() err=%v", err)
	}
	return set
}

func (s *fakeStore) Read(ctx context.Context, user domain.UserID) (domain.FavoriteSet, error) {
	s.mu.Lock()
	s.reads++
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.inner.Read(ctx, user)
}

func (s *fakeStore) AddElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if err := s.enter(ctx, favoritestore.OpAdd, key); err != nil {
		return err
	}
	return s.inner.AddElement(ctx, user, key)
}

func (s *fakeStore) RemoveElement(ctx context.Context, user domain.UserID, key domain.FavoriteKey) error {
	if err := s.enter(ctx, favoritestore.OpRemove, key); err != nil {
		return err
	}
	return s.inner.RemoveElement(ctx, user, key)
}

func (s *fakeStore) enter(ctx context.Context, op string, key domain.FavoriteKey) error {
	s.mu.Lock()
	s.calls[op]++
	hold := s.holds[key]
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[key]
}

type countingNavigator struct {
	n atomic.Int32
}

func (c *countingNavigator) RedirectToAuth() { c.n.Add(1) }
func (c *countingNavigator) count() int      { return int(c.n.Load()) }

type harness struct {
	store   *fakeStore
	session *memauth.Session
	nav     *countingNavigator
	clock   *memclock.ManualClock
	engine  *Engine
}

func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	h := &harness{
		store:   newFakeStore(),
		session: memauth.NewSession(),
		nav:     &countingNavigator{},
		clock:   memclock.NewManualClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	if signedIn {
		h.session.SignIn(testUser)
	}
	e, err := NewEngine(Deps{
		Store:     h.store,
		Catalog:   memcatalog.NewSeededCatalog(),
		Gate:      h.session,
		Navigator: h.nav,
		Clock:     h.clock,
		Logger:    zap.NewNop(),
	}, Options{RemoteTimeout: 5 * time.Second, FetchTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewEngine() err=%v", err)
	}
	h.engine = e
	t.Cleanup(e.Close)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start() err=%v", err)
	}
}

func recv(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatalf("result channel closed without a result")
		}
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for toggle result")
	}
	return Result{}
}

func waitFailure(t *testing.T, e *Engine) Failure {
	t.Helper()
	select {
	case f := <-e.Failures():
		return f
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for failure event")
	}
	return Failure{}
}
