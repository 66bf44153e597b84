package favsync

import (
	"context"
	"errors"
	"testing"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

func TestToggle_AddsFavorite(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	release := h.store.hold(keyIST)

	done := h.engine.Toggle(context.Background(), keyIST)

	st := h.engine.ToggleState(keyIST)
	if !st.IsFavorite || !st.IsPending {
		t.Fatalf("while in flight: IsFavorite=%v IsPending=%v, want true/true", st.IsFavorite, st.IsPending)
	}

	release()
	r := recv(t, done)
	if r.Outcome != OutcomeAdded || !r.IsFavorite || r.Err != nil {
		t.Fatalf("result=%+v, want added", r)
	}

	st = h.engine.ToggleState(keyIST)
	if !st.IsFavorite || st.IsPending {
		t.Fatalf("after settle: IsFavorite=%v IsPending=%v, want true/false", st.IsFavorite, st.IsPending)
	}
	if doc := h.store.document(t, testUser); !doc.Contains(keyIST) {
		t.Fatalf("remote document=%v, want IST", doc)
	}
}

func TestToggle_AttachesEntityDetailsOnAdd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)

	recv(t, h.engine.Toggle(context.Background(), keyIST))

	items := h.engine.List().Items
	if len(items) != 1 || items[0].Airport == nil || items[0].Airport.Code != "IST" {
		t.Fatalf("items=%+v, want resolved IST airport", items)
	}
}

func TestToggle_RemoteFailureRollsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	boom := errors.New("connection reset")
	h.store.failWith(keyIST, boom)

	r := recv(t, h.engine.Toggle(context.Background(), keyIST))

	if r.Outcome != OutcomeRolledBack || r.IsFavorite {
		t.Fatalf("result=%+v, want rolled back to not-favorite", r)
	}
	var rse *favoritestore.RemoteStoreError
	if !errors.As(r.Err, &rse) || rse.Op != favoritestore.OpAdd || !errors.Is(r.Err, boom) {
		t.Fatalf("result err=%v, want RemoteStoreError{op=add} wrapping %v", r.Err, boom)
	}

	st := h.engine.ToggleState(keyIST)
	if st.IsFavorite || st.IsPending {
		t.Fatalf("after rollback: IsFavorite=%v IsPending=%v, want false/false", st.IsFavorite, st.IsPending)
	}
	if doc := h.store.document(t, testUser); len(doc) != 0 {
		t.Fatalf("remote document=%v, want unchanged", doc)
	}

	f := waitFailure(t, h.engine)
	if f.Key != keyIST || f.Op != favoritestore.OpAdd || f.SessionExpired {
		t.Fatalf("failure=%+v", f)
	}
}

func TestToggle_RollbackOfRemoveRestoresFavorite(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.store.seed(t, testUser, keyPC)
	h.start(t)
	h.store.failWith(keyPC, errors.New("timeout"))

	r := recv(t, h.engine.Toggle(context.Background(), keyPC))
	if r.Outcome != OutcomeRolledBack || !r.IsFavorite {
		t.Fatalf("result=%+v, want rolled back to favorite", r)
	}
	if !h.engine.Membership(keyPC) {
		t.Fatalf("Membership(PC) after failed remove = false")
	}
	if got := h.store.callCount(favoritestore.OpRemove); got != 1 {
		t.Fatalf("remove calls=%d, want 1", got)
	}
}

func TestToggle_TwiceReturnsToOriginal(t *testing.T) {
	t.Parallel()

	for _, seeded := range []bool{false, true} {
		h := newHarness(t, true)
		if seeded {
			h.store.seed(t, testUser, keySAW)
		}
		h.start(t)

		before := h.engine.Membership(keySAW)
		recv(t, h.engine.Toggle(context.Background(), keySAW))
		recv(t, h.engine.Toggle(context.Background(), keySAW))

		if got := h.engine.Membership(keySAW); got != before {
			t.Fatalf("seeded=%v: membership=%v after two toggles, want %v", seeded, got, before)
		}
		if got := h.store.document(t, testUser).Contains(keySAW); got != before {
			t.Fatalf("seeded=%v: remote membership=%v, want %v", seeded, got, before)
		}
	}
}

func TestToggle_DoubleTapMakesOneRemoteCall(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	release := h.store.hold(keyTK)

	first := h.engine.Toggle(context.Background(), keyTK)
	second := recv(t, h.engine.Toggle(context.Background(), keyTK))

	if second.Outcome != OutcomeSkipped || !second.IsFavorite {
		t.Fatalf("second tap=%+v, want skipped while favorite is pending", second)
	}

	release()
	if r := recv(t, first); r.Outcome != OutcomeAdded {
		t.Fatalf("first tap=%+v, want added", r)
	}
	if got := h.store.callCount(favoritestore.OpAdd); got != 1 {
		t.Fatalf("add calls=%d, want 1", got)
	}
	if got := h.store.callCount(favoritestore.OpRemove); got != 0 {
		t.Fatalf("remove calls=%d, want 0", got)
	}
}

func TestToggle_UnauthenticatedRedirectsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)

	r := recv(t, h.engine.Toggle(context.Background(), keySAW))
	if r.Outcome != OutcomeRedirected {
		t.Fatalf("result=%+v, want redirected", r)
	}
	if got := h.nav.count(); got != 1 {
		t.Fatalf("redirects=%d, want 1", got)
	}
	if h.store.callCount(favoritestore.OpAdd)+h.store.callCount(favoritestore.OpRemove) != 0 {
		t.Fatalf("remote mutation attempted without a session")
	}
	if _, ok := h.engine.Cache().Read(FavoritesQuery("")); ok {
		t.Fatalf("cache written without a session")
	}
	if h.engine.ToggleState(keySAW).IsPending {
		t.Fatalf("IsPending after redirect = true")
	}
}

func TestToggle_RemovesExistingFavorite(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.store.seed(t, testUser, keyPC)
	h.start(t)

	if !h.engine.Membership(keyPC) {
		t.Fatalf("Membership(PC) before toggle = false")
	}
	r := recv(t, h.engine.Toggle(context.Background(), keyPC))
	if r.Outcome != OutcomeRemoved || r.IsFavorite {
		t.Fatalf("result=%+v, want removed", r)
	}
	if h.engine.Membership(keyPC) {
		t.Fatalf("Membership(PC) after remove = true")
	}
	if got := h.store.callCount(favoritestore.OpRemove); got != 1 {
		t.Fatalf("remove calls=%d, want 1", got)
	}
}

func TestToggle_DistinctKeysAnyCompletionOrder(t *testing.T) {
	t.Parallel()

	type step struct {
		key  domain.FavoriteKey
		fail bool
	}
	orders := map[string][]step{
		"ist fails first":   {{keyIST, true}, {keyTK, false}},
		"tk succeeds first": {{keyTK, false}, {keyIST, true}},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, true)
			h.start(t)
			h.store.failWith(keyIST, errors.New("flaky"))
			releases := map[domain.FavoriteKey]func(){
				keyIST: h.store.hold(keyIST),
				keyTK:  h.store.hold(keyTK),
			}
			results := map[domain.FavoriteKey]<-chan Result{
				keyIST: h.engine.Toggle(context.Background(), keyIST),
				keyTK:  h.engine.Toggle(context.Background(), keyTK),
			}

			for _, s := range order {
				releases[s.key]()
				r := recv(t, results[s.key])
				if s.fail && r.Outcome != OutcomeRolledBack {
					t.Fatalf("%s: result=%+v, want rolled back", s.key, r)
				}
				if !s.fail && r.Outcome != OutcomeAdded {
					t.Fatalf("%s: result=%+v, want added", s.key, r)
				}
			}

			if h.engine.Membership(keyIST) || !h.engine.Membership(keyTK) {
				t.Fatalf("membership IST=%v TK=%v, want false/true",
					h.engine.Membership(keyIST), h.engine.Membership(keyTK))
			}
		})
	}
}

func TestToggle_SessionExpiredClearsEverything(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.store.seed(t, testUser, keyPC)
	h.start(t)
	h.store.failWith(keyIST, favoritestore.ErrSessionExpired)

	r := recv(t, h.engine.Toggle(context.Background(), keyIST))
	if r.Outcome != OutcomeSessionExpired || !errors.Is(r.Err, favoritestore.ErrSessionExpired) {
		t.Fatalf("result=%+v, want session expired", r)
	}
	if _, ok := h.session.CurrentUser(); ok {
		t.Fatalf("session still active")
	}
	if got := h.nav.count(); got != 1 {
		t.Fatalf("redirects=%d, want 1", got)
	}
	if _, ok := h.engine.Cache().Read(FavoritesQuery(testUser)); ok {
		t.Fatalf("cache entry survived session expiry")
	}
	if doc := h.store.document(t, testUser); !doc.Contains(keyPC) {
		t.Fatalf("remote document=%v, want untouched", doc)
	}
	if f := waitFailure(t, h.engine); !f.SessionExpired {
		t.Fatalf("failure=%+v, want SessionExpired", f)
	}
}

func TestToggle_LogoutMidFlightDiscardsReconciliation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	h.store.failWith(keyIST, errors.New("late failure"))
	release := h.store.hold(keyIST)

	done := h.engine.Toggle(context.Background(), keyIST)
	h.engine.Logout()
	release()

	if r := recv(t, done); r.Outcome != OutcomeRolledBack {
		t.Fatalf("result=%+v, want rolled back", r)
	}
	if _, ok := h.engine.Cache().Read(FavoritesQuery(testUser)); ok {
		t.Fatalf("rollback recreated a cleared entry")
	}
}

func TestToggle_PendingDoesNotCarryIntoNextSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	release := h.store.hold(keyIST)
	defer release()

	first := h.engine.Toggle(context.Background(), keyIST)
	if !h.engine.ToggleState(keyIST).IsPending {
		t.Fatalf("IsPending=false while the first toggle is in flight")
	}

	h.engine.Logout()
	const nextUser = domain.UserID("user-2")
	h.session.SignIn(nextUser)

	if h.engine.ToggleState(keyIST).IsPending {
		t.Fatalf("IsPending=true for %s, carried over from the previous session", nextUser)
	}
	second := h.engine.Toggle(context.Background(), keyIST)
	if !h.engine.ToggleState(keyIST).IsPending {
		t.Fatalf("IsPending=false for %s's own toggle", nextUser)
	}

	release()
	if r := recv(t, first); r.Outcome != OutcomeAdded {
		t.Fatalf("first result=%+v, want added", r)
	}
	if r := recv(t, second); r.Outcome != OutcomeAdded || !r.IsFavorite {
		t.Fatalf("second result=%+v, want added", r)
	}
	h.engine.Wait()
	if h.engine.ToggleState(keyIST).IsPending {
		t.Fatalf("IsPending=true after both toggles settled")
	}
	if !h.engine.Membership(keyIST) {
		t.Fatalf("Membership(IST)=false for %s after add", nextUser)
	}
	if got := h.store.document(t, nextUser); !got.Contains(keyIST) {
		t.Fatalf("%s document=%v, want IST", nextUser, got)
	}
}

func TestToggle_PendingClearedBySameUserRelogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	release := h.store.hold(keyIST)
	defer release()

	first := h.engine.Toggle(context.Background(), keyIST)
	h.engine.Logout()
	h.session.SignIn(testUser)

	second := h.engine.Toggle(context.Background(), keyIST)
	release()
	recv(t, first)
	if r := recv(t, second); r.Outcome == OutcomeSkipped {
		t.Fatalf("second result=%+v, want a real toggle after re-login", r)
	}
	h.engine.Wait()
	if h.engine.ToggleState(keyIST).IsPending {
		t.Fatalf("IsPending=true after both toggles settled")
	}
}

func TestToggle_CallerCancellationDoesNotAbortRemoteCall(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	h.start(t)
	release := h.store.hold(keyIST)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.engine.Toggle(ctx, keyIST)
	cancel()
	release()

	if r := recv(t, done); r.Outcome != OutcomeAdded {
		t.Fatalf("result=%+v, want added despite canceled caller", r)
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	cases := map[Outcome]string{
		OutcomeAdded:          "added",
		OutcomeRemoved:        "removed",
		OutcomeRolledBack:     "rolled_back",
		OutcomeSessionExpired: "session_expired",
		OutcomeSkipped:        "skipped",
		OutcomeRedirected:     "redirected",
		Outcome(0):            "unknown",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Fatalf("Outcome(%d).String()=%q, want %q", int(o), got, want)
		}
	}
}
