package authgate

import (
	"sync"

	"github.com/airportdex/favorite-sync/internal/domain"
)

// Session is an in-memory authgate.Gate.
// It is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	user   domain.UserID
	active bool

	nextID    int
	listeners map[int]func()
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func())}
}

// NewSignedInSession returns a session that is already active for user.
func NewSignedInSession(user domain.UserID) *Session {
	s := NewSession()
	s.SignIn(user)
	return s
}

func (s *Session) SignIn(user domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.active = user != ""
}

func (s *Session) CurrentUser() (domain.UserID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.active
}

func (s *Session) OnSessionExpired(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Session) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = ""
	s.active = false
}

// Expire ends the session and notifies OnSessionExpired listeners.
// Listeners run outside the lock and may call back into the session.
func (s *Session) Expire() {
	s.mu.Lock()
	s.user = ""
	s.active = false
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
