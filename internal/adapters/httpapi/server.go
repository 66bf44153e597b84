package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/app/favorites"
	"github.com/airportdex/favorite-sync/internal/domain"
)

// Server holds the HTTP handlers of the remote favorite store.
type Server struct {
	Favorites *favorites.Service
	log       *zap.Logger
}

func NewServer(svc *favorites.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Favorites: svc, log: log}
}

func (s *Server) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	set, err := s.Favorites.ListFavorites(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	if set == nil {
		set = domain.FavoriteSet{}
	}
	writeJSON(w, http.StatusOK, FavoritesDocument{Favorites: set})
}

func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	typ, id, ok := bindKeyPath(w, r)
	if !ok {
		return
	}
	if _, err := s.Favorites.AddFavorite(r.Context(), user, typ, id); err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	typ, id, ok := bindKeyPath(w, r)
	if !ok {
		return
	}
	if _, err := s.Favorites.RemoveFavorite(r.Context(), user, typ, id); err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveEntities serves GET /v1/entities?key=type:id&key=type:id.
func (s *Server) ResolveEntities(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}
	var keys []string
	if err := runtime.BindQueryParameter("form", true, false, "key", r.URL.Query(), &keys); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidationError, "invalid key parameter", map[string]any{"key": err.Error()})
		return
	}
	ents, err := s.Favorites.ResolveEntities(r.Context(), keys)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	out := EntitiesResponse{Entities: make([]Entity, 0, len(ents))}
	for _, e := range ents {
		out.Entities = append(out.Entities, entityFromDomain(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing subject", nil)
		return "", false
	}
	return user, true
}

func bindKeyPath(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	opts := runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true}

	var typ, id string
	if err := runtime.BindStyledParameterWithOptions("simple", "type", chi.URLParam(r, "type"), &typ, opts); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidationError, "invalid type", map[string]any{"type": err.Error()})
		return "", "", false
	}
	if err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, opts); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidationError, "invalid id", map[string]any{"id": err.Error()})
		return "", "", false
	}
	return typ, id, true
}
