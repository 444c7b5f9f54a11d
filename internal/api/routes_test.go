// Wiring tests for NewRouter: public routes, auth on /api/v1 and the
// corpus → generate flow through the full middleware stack.
package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/infra/sqlite"
	pkgauth "github.com/matiasleandrokruk/dissociated/pkg/auth"
)

const testSecret = "test-secret-key-32-chars-min!!!"

// mustOpenAPITestDB opens an in-memory SQLite DB with all migrations applied.
func mustOpenAPITestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("mustOpenAPITestDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestDeps(t *testing.T, withAuth bool) Deps {
	t.Helper()

	db := mustOpenAPITestDB(t)
	store := corpus.NewService(db, nil, corpus.NewTokenCache())
	deps := Deps{
		DB:        db,
		Corpora:   store,
		Generator: generation.NewService(store, generation.Defaults{ChunkSize: 2, Chunks: 10, MaxChunks: 50}, nil),
	}
	if withAuth {
		issuer, err := pkgauth.NewIssuer(testSecret, time.Hour)
		if err != nil {
			t.Fatalf("NewIssuer: %v", err)
		}
		hash, err := pkgauth.HashPassword("s3cret")
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		deps.Issuer = issuer
		deps.PasswordHash = hash
	}
	return deps
}

func serve(router http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestDeps(t, false))

	w := serve(router, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected body to contain 'ok', got %q", w.Body.String())
	}
}

func TestNewRouter_HealthEndpoint_ClosedDB(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t, false)
	deps.DB.Close()
	router := NewRouter(deps)

	if w := serve(router, http.MethodGet, "/health", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from /health with closed DB, got %d", w.Code)
	}
}

func TestNewRouter_NoAuth_CorpusThenGenerate(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestDeps(t, false))

	w := serve(router, http.MethodPost, "/api/v1/corpora", `{"name":"abc","sources":["a b c a b c"]}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create corpus: status=%d body=%s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodPost, "/api/v1/generate", `{"corpus":"abc","chunks":0,"seedIndex":1}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("generate: status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "b c" {
		t.Errorf("text = %q; want \"b c\"", resp.Text)
	}

	if w := serve(router, http.MethodGet, "/api/v1/corpora/abc", "", ""); w.Code != http.StatusOK {
		t.Errorf("get corpus: status=%d", w.Code)
	}
	if w := serve(router, http.MethodDelete, "/api/v1/corpora/abc", "", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete corpus: status=%d", w.Code)
	}
}

func TestNewRouter_AuthDisabled_TokenEndpoint404(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestDeps(t, false))
	if w := serve(router, http.MethodPost, "/auth/token", `{"password":"x"}`, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 from /auth/token without auth, got %d", w.Code)
	}
}

func TestNewRouter_Auth_ProtectsAPI(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestDeps(t, true))

	if w := serve(router, http.MethodGet, "/api/v1/corpora", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w := serve(router, http.MethodPost, "/auth/token", `{"password":"s3cret"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("token exchange: status=%d body=%s", w.Code, w.Body.String())
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}

	if w := serve(router, http.MethodGet, "/api/v1/corpora", "", tok.Token); w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
	if w := serve(router, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("/health must stay public, got %d", w.Code)
	}
}
