package favsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/platform/clock"
	clockport "github.com/airportdex/favorite-sync/internal/ports/out/clock"
)

// Fetcher performs the authoritative read behind a cache entry.
type Fetcher func(ctx context.Context, q QueryKey) (domain.FavoriteSet, []domain.Entity, error)

// ErrNoFetcher is returned by Load when the cache was built without a Fetcher.
var ErrNoFetcher = errors.New("favsync: cache has no fetcher")

// maxRefetchAttempts bounds how often a read is retried because local writes
// landed while it was in flight.
const maxRefetchAttempts = 3

// MutationResult describes one optimistic write. It is handed back to Settle
// or Rollback so reconciliation never depends on captured closures.
type MutationResult struct {
	ID      uuid.UUID
	Query   QueryKey
	Applied domain.FavoriteKey
	Update  KeyUpdate

	// WasMember is the applied key's membership before the write.
	WasMember bool
	// PreviousSnapshot is the whole set before the write. Rollback restores
	// only Applied's bit, never the snapshot wholesale.
	PreviousSnapshot domain.FavoriteSet

	// Epoch ties the result to one lifetime of the entry; Clear starts a new one.
	Epoch uint64

	previousEntity *domain.Entity
}

type slot struct {
	entry Entry
	epoch uint64
	// version increases on every local write so a read that raced one can be detected.
	version  uint64
	inflight map[uuid.UUID]KeyUpdate
	// settled holds writes confirmed while a read is in flight. The read may
	// predate them, so they are replayed over its result with inflight.
	settled []KeyUpdate
	reading bool
}

// Cache is the query-keyed favorites cache.
// It is safe for concurrent use; subscribers are notified outside the lock.
type Cache struct {
	fetch        Fetcher
	clk          clockport.Clock
	log          *zap.Logger
	fetchTimeout time.Duration

	mu      sync.RWMutex
	entries map[QueryKey]*slot
	epochs  map[QueryKey]uint64

	group singleflight.Group
	bg    sync.WaitGroup

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(QueryKey, Entry)
}

// NewCache builds a cache. A nil clk means the system clock. fetch may be nil, in which case Load fails and
// Invalidate only marks entries stale.
func NewCache(fetch Fetcher, clk clockport.Clock, log *zap.Logger, fetchTimeout time.Duration) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Cache{
		fetch:        fetch,
		clk:          clk,
		log:          log,
		fetchTimeout: fetchTimeout,
		entries:      make(map[QueryKey]*slot),
		epochs:       make(map[QueryKey]uint64),
		subs:         make(map[int]func(QueryKey, Entry)),
	}
}

// Read returns a copy of the entry for q.
func (c *Cache) Read(q QueryKey) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[q]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(s.entry), true
}

func (c *Cache) contains(q QueryKey, k domain.FavoriteKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[q]
	return ok && s.entry.Keys.Contains(k)
}

// OptimisticWrite applies u to the entry for q before the remote store has
// confirmed it. The prior membership is captured under the same lock as the
// write. If no entry exists yet one is created and a background read is scheduled.
func (c *Cache) OptimisticWrite(q QueryKey, u KeyUpdate) MutationResult {
	c.mu.Lock()
	s, created := c.slotLocked(q)
	key := u.FavoriteKey()
	res := MutationResult{
		ID:               uuid.New(),
		Query:            q,
		Applied:          key,
		Update:           u,
		WasMember:        s.entry.Keys.Contains(key),
		PreviousSnapshot: s.entry.Keys.Clone(),
		Epoch:            s.epoch,
	}
	if ent, ok := s.entry.Entities[key]; ok {
		ent = domain.CloneEntity(ent)
		res.previousEntity = &ent
	}
	s.entry = reduce(s.entry, u)
	s.entry.UpdatedAt = c.now()
	s.version++
	s.inflight[res.ID] = u
	snap := cloneEntry(s.entry)
	c.mu.Unlock()

	c.notify(q, snap)
	if created && !snap.Loaded {
		c.Invalidate(q)
	}
	return res
}

// Settle confirms an optimistic write: the written state is now authoritative.
func (c *Cache) Settle(res MutationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[res.Query]
	if !ok || s.epoch != res.Epoch {
		return
	}
	if u, ok := s.inflight[res.ID]; ok && s.reading {
		s.settled = append(s.settled, u)
	}
	delete(s.inflight, res.ID)
	s.version++
}

// Rollback restores the applied key's membership bit (and payload) to what it
// was before the write. Other keys are left alone, so interleaved writes to the
// same entry each undo only their own change. It is a no-op when the entry has
// been cleared since the write.
func (c *Cache) Rollback(res MutationResult) {
	c.mu.Lock()
	s, ok := c.entries[res.Query]
	if !ok || s.epoch != res.Epoch {
		c.mu.Unlock()
		c.log.Debug("discarding rollback for cleared cache entry",
			zap.Stringer("query", res.Query),
			zap.Stringer("key", res.Applied),
			zap.String("mutation_id", res.ID.String()),
		)
		return
	}
	delete(s.inflight, res.ID)
	s.entry = reduce(s.entry, inverse(res.Applied, res.WasMember))
	if res.WasMember && res.previousEntity != nil {
		s.entry.Entities = cloneEntities(s.entry.Entities)
		s.entry.Entities[res.Applied] = *res.previousEntity
	}
	s.entry.UpdatedAt = c.now()
	s.version++
	snap := cloneEntry(s.entry)
	c.mu.Unlock()

	c.notify(res.Query, snap)
}

// AttachEntity stores a resolved payload for a key that is currently a member.
// Membership is never changed.
func (c *Cache) AttachEntity(q QueryKey, ent domain.Entity) {
	c.mu.Lock()
	s, ok := c.entries[q]
	if !ok || !s.entry.Keys.Contains(ent.Key) {
		c.mu.Unlock()
		return
	}
	s.entry.Entities = cloneEntities(s.entry.Entities)
	s.entry.Entities[ent.Key] = domain.CloneEntity(ent)
	snap := cloneEntry(s.entry)
	c.mu.Unlock()

	c.notify(q, snap)
}

// Load performs an authoritative read for q and waits for it. On failure the
// previous entry (if any) is retained and marked stale.
func (c *Cache) Load(ctx context.Context, q QueryKey) error {
	if c.fetch == nil {
		return ErrNoFetcher
	}
	c.markFetching(q)
	_, err, _ := c.group.Do(q.String(), func() (any, error) {
		return nil, c.refetch(ctx, q)
	})
	return err
}

// Invalidate marks the entry for q stale and refetches it in the background.
func (c *Cache) Invalidate(q QueryKey) {
	c.mu.Lock()
	if s, ok := c.entries[q]; ok {
		s.entry.Stale = true
	}
	c.mu.Unlock()

	if c.fetch == nil {
		return
	}
	c.markFetching(q)

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()
		_, err, _ := c.group.Do(q.String(), func() (any, error) {
			return nil, c.refetch(ctx, q)
		})
		if err != nil {
			c.log.Warn("background favorites refetch failed; keeping stale entry",
				zap.Stringer("query", q),
				zap.Error(err),
			)
		}
	}()
}

// Clear drops the entry for q. Writes still in flight for the old entry become no-ops.
func (c *Cache) Clear(q QueryKey) {
	c.mu.Lock()
	_, existed := c.entries[q]
	delete(c.entries, q)
	c.epochs[q]++
	c.mu.Unlock()

	c.group.Forget(q.String())
	if existed {
		c.notify(q, Entry{})
	}
}

// ClearAll drops every entry, as on session expiry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	qs := make([]QueryKey, 0, len(c.entries))
	for q := range c.entries {
		qs = append(qs, q)
		c.epochs[q]++
	}
	clear(c.entries)
	c.mu.Unlock()

	for _, q := range qs {
		c.group.Forget(q.String())
		c.notify(q, Entry{})
	}
}

// Subscribe registers fn to be called with a copy of the entry after every change.
func (c *Cache) Subscribe(fn func(QueryKey, Entry)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			delete(c.subs, id)
		})
	}
}

// Wait blocks until background refetches have finished.
func (c *Cache) Wait() {
	c.bg.Wait()
}

func (c *Cache) refetch(ctx context.Context, q QueryKey) error {
	for attempt := 1; ; attempt++ {
		c.mu.Lock()
		epoch := c.epochs[q]
		var version uint64
		if s, ok := c.entries[q]; ok {
			version = s.version
			// Writes settled before this point are already on the server.
			s.settled = nil
			s.reading = true
		}
		c.mu.Unlock()

		set, ents, err := c.fetch(ctx, q)

		c.mu.Lock()
		s, ok := c.entries[q]
		if !ok || s.epoch != epoch {
			// Cleared while the read was in flight.
			c.mu.Unlock()
			return err
		}
		if err != nil {
			s.reading = false
			s.settled = nil
			s.entry.Fetching = false
			s.entry.Stale = true
			snap := cloneEntry(s.entry)
			c.mu.Unlock()
			c.notify(q, snap)
			return err
		}
		if s.version != version && attempt < maxRefetchAttempts {
			// A local write landed mid-read; the result may predate it.
			c.mu.Unlock()
			continue
		}

		next := reduce(s.entry, ReplaceSet{Set: set, Entities: ents})
		for _, u := range s.settled {
			next = reduce(next, u)
		}
		for _, u := range s.inflight {
			next = reduce(next, u)
		}
		s.settled = nil
		s.reading = false
		next.Fetching = false
		next.UpdatedAt = c.now()
		s.entry = next
		snap := cloneEntry(s.entry)
		c.mu.Unlock()

		c.notify(q, snap)
		return nil
	}
}

// epoch returns the current lifetime of q's entry; Clear and ClearAll advance it.
func (c *Cache) epoch(q QueryKey) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epochs[q]
}

func (c *Cache) markFetching(q QueryKey) {
	c.mu.Lock()
	s, _ := c.slotLocked(q)
	s.entry.Fetching = true
	snap := cloneEntry(s.entry)
	c.mu.Unlock()

	c.notify(q, snap)
}

// slotLocked returns the slot for q, creating an empty one. Caller holds c.mu.
func (c *Cache) slotLocked(q QueryKey) (*slot, bool) {
	if s, ok := c.entries[q]; ok {
		return s, false
	}
	s := &slot{
		entry: Entry{
			Keys:     domain.FavoriteSet{},
			Entities: map[domain.FavoriteKey]domain.Entity{},
		},
		epoch:    c.epochs[q],
		inflight: make(map[uuid.UUID]KeyUpdate),
	}
	c.entries[q] = s
	return s, true
}

func (c *Cache) notify(q QueryKey, e Entry) {
	c.subMu.Lock()
	fns := make([]func(QueryKey, Entry), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(q, cloneEntry(e))
	}
}

func (c *Cache) now() time.Time {
	return c.clk.Now()
}
