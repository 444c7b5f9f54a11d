// Token exchange endpoint (public, no Auth middleware).
package handlers

import (
	"net/http"
	"time"

	pkgauth "github.com/matiasleandrokruk/dissociated/pkg/auth"
)

// adminSubject is the only principal; there are no user accounts.
const adminSubject = "admin"

// TokenIssuer is satisfied by *pkgauth.Issuer.
type TokenIssuer interface {
	Issue(subject, scope string) (string, time.Time, error)
}

// AuthHandler exchanges the admin password for a bearer token.
type AuthHandler struct {
	issuer       TokenIssuer
	passwordHash string
}

func NewAuthHandler(issuer TokenIssuer, passwordHash string) *AuthHandler {
	return &AuthHandler{issuer: issuer, passwordHash: passwordHash}
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Password string `json:"password"`
}

// TokenResponse is returned after a successful exchange.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token handles POST /auth/token.
//
// Response codes:
//   - 200 OK: token issued
//   - 400 Bad Request: invalid body or empty password
//   - 401 Unauthorized: wrong password
//   - 404 Not Found: auth is not configured
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil || h.passwordHash == "" {
		writeError(w, http.StatusNotFound, "authentication is not enabled")
		return
	}

	var req TokenRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if !pkgauth.VerifyPassword(h.passwordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.issuer.Issue(adminSubject, pkgauth.ScopeGenerate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}
