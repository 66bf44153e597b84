package itest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/airportdex/favorite-sync/internal/adapters/httpapi"
	memcatalog "github.com/airportdex/favorite-sync/internal/adapters/memory/catalog"
	memfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/memory/favoritestore"
	pgcatalog "github.com/airportdex/favorite-sync/internal/adapters/postgres/catalog"
	pgfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/postgres/favoritestore"
	postgres_testutil "github.com/airportdex/favorite-sync/internal/adapters/postgres/testutil"
	redisfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/redis/favoritestore"
	"github.com/airportdex/favorite-sync/internal/app/favorites"
	catalogport "github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	favoritestoreport "github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendRedis    backend = "redis"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "redis":
		return []backend{backendRedis}
	case "all":
		return []backend{backendMemory, backendPostgres, backendRedis}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|redis|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	var (
		store favoritestoreport.Store
		cat   catalogport.Catalog
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		pgcat := pgcatalog.NewCatalog(pool)
		if err := pgcat.Upsert(context.Background(), memcatalog.SeedEntities()); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
		store = pgfavoritestore.NewStore(pool)
		cat = pgcat
	case backendRedis:
		addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
		if addr == "" {
			t.Skip("REDIS_ADDR not set; skipping redis integration test")
		}
		rs, err := redisfavoritestore.New(context.Background(), redisfavoritestore.Options{Addr: addr, Prefix: "itest-" + uuid.NewString()})
		if err != nil {
			t.Fatalf("connect redis: %v", err)
		}
		t.Cleanup(func() { _ = rs.Close() })
		store = rs
		cat = memcatalog.NewSeededCatalog()
	case backendMemory:
		store = memfavoritestore.NewStore()
		cat = memcatalog.NewSeededCatalog()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	svc := favorites.NewService(store, cat, nil)
	api := httpapi.NewServer(svc, nil)

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// An empty default subject forces requests to send X-Debug-Subject, which
	// leaves room for auth-failure coverage.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) do(t *testing.T, method string, path string, subject string) (int, []byte, http.Header) {
	t.Helper()

	req, err := http.NewRequest(method, s.url(path), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

// newSubject keeps users distinct across runs against shared databases.
func newSubject(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
