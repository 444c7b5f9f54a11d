// Bearer JWT middleware for /api/v1.
// Reads Authorization: Bearer <token>, validates it, injects subject + scope into context.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/dissociated/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/dissociated/pkg/auth"
)

// TokenParser is satisfied by *pkgauth.Issuer.
type TokenParser interface {
	Parse(token string) (*pkgauth.Claims, error)
}

// Auth returns middleware that rejects requests without a valid bearer token.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Inject ctxkeys.Subject and ctxkeys.Scope into context
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := parser.Parse(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			recordSubject(r.Context(), claims.Subject)
			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.Subject, claims.Subject)
			ctx = ctxkeys.WithValue(ctx, ctxkeys.Scope, claims.Scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects authenticated requests whose token lacks scope with 403.
// Mount it after Auth.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctxkeys.String(r.Context(), ctxkeys.Scope) != scope {
				writeJSONError(w, http.StatusForbidden, "token lacks required scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken returns "" if the header is missing, uses another scheme, or is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 in the same JSON shape as handlers.writeError.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="dissociated"`)
	writeJSONError(w, http.StatusUnauthorized, message)
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
