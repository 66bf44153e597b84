// Package jwkstest serves a JWKS whose keys can be rotated mid-test.
package jwkstest

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/airportdex/favorite-sync/internal/platform/auth/jwtissuer"
)

type Server struct {
	*httptest.Server
	doc atomic.Value // []byte
}

func NewServer() *Server {
	s := &Server{}
	s.doc.Store([]byte(`{"keys":[]}`))
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.doc.Load().([]byte))
	}))
	return s
}

// SetKeys replaces the published key set.
func (s *Server) SetKeys(keys ...jwtissuer.Keypair) {
	b, err := jwtissuer.KeySetJSON(keys...)
	if err != nil {
		panic(err)
	}
	s.doc.Store(b)
}
