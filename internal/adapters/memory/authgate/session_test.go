package authgate

import "testing"

func TestSession_SignInAndEnd(t *testing.T) {
	t.Parallel()

	s := NewSession()
	if _, ok := s.CurrentUser(); ok {
		t.Fatalf("CurrentUser() ok=true before sign-in")
	}
	s.SignIn("u1")
	if u, ok := s.CurrentUser(); !ok || u != "u1" {
		t.Fatalf("CurrentUser()=(%q,%v), want (u1,true)", u, ok)
	}
	s.EndSession()
	if _, ok := s.CurrentUser(); ok {
		t.Fatalf("CurrentUser() ok=true after EndSession")
	}
}

func TestSession_ExpireNotifiesUntilCanceled(t *testing.T) {
	t.Parallel()

	s := NewSignedInSession("u1")
	calls := 0
	cancel := s.OnSessionExpired(func() {
		calls++
		// Listeners may call back into the session.
		if _, ok := s.CurrentUser(); ok {
			t.Errorf("session still active inside expiry listener")
		}
	})

	s.Expire()
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}

	cancel()
	cancel()
	s.SignIn("u1")
	s.Expire()
	if calls != 1 {
		t.Fatalf("calls after cancel=%d, want 1", calls)
	}
}

func TestSession_EndSessionDoesNotNotify(t *testing.T) {
	t.Parallel()

	s := NewSignedInSession("u1")
	called := false
	_ = s.OnSessionExpired(func() { called = true })
	s.EndSession()
	if called {
		t.Fatalf("EndSession fired expiry listeners")
	}
}
