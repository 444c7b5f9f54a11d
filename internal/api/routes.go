// Route registration: public routes (/health, /auth/token) and the /api/v1
// group, which requires a bearer token when an issuer is configured.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/dissociated/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/dissociated/internal/api/middleware"
	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
	pkgauth "github.com/matiasleandrokruk/dissociated/pkg/auth"
)

const healthTimeout = 2 * time.Second

// Deps are the services the router serves. Issuer nil disables auth.
type Deps struct {
	DB           *sql.DB
	Corpora      *corpus.Service
	Generator    *generation.Service
	Issuer       *pkgauth.Issuer
	PasswordHash string
	Logger       logging.Logger
}

// NewRouter creates the chi router with every route registered.
func NewRouter(deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apmiddleware.WithLogger(logger))

	// ===== PUBLIC ROUTES =====

	r.Get("/health", healthHandler(deps.DB))

	var tokenIssuer handlers.TokenIssuer
	if deps.Issuer != nil {
		tokenIssuer = deps.Issuer
	}
	authHandler := handlers.NewAuthHandler(tokenIssuer, deps.PasswordHash)
	r.Post("/auth/token", authHandler.Token)

	// ===== API ROUTES =====

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.Audit(logger))
		if deps.Issuer != nil {
			r.Use(apmiddleware.Auth(deps.Issuer))
			r.Use(apmiddleware.RequireScope(pkgauth.ScopeGenerate))
		}

		generateHandler := handlers.NewGenerateHandler(deps.Generator)
		r.Post("/generate", generateHandler.Generate) // POST /api/v1/generate

		corpusHandler := handlers.NewCorpusHandler(deps.Corpora)
		r.Route("/corpora", func(r chi.Router) {
			r.Post("/", corpusHandler.CreateCorpus)       // POST /api/v1/corpora
			r.Get("/", corpusHandler.ListCorpora)         // GET /api/v1/corpora
			r.Get("/{id}", corpusHandler.GetCorpus)       // GET /api/v1/corpora/{id}
			r.Delete("/{id}", corpusHandler.DeleteCorpus) // DELETE /api/v1/corpora/{id}
		})
	})

	return r
}

// healthHandler reports ok, or 503 when the database does not answer a ping.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`)) //nolint:errcheck
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	}
}
