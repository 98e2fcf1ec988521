/*
auth.go - Credential check and bearer-token middleware

PURPOSE:
  Wraps the API in a black-box credential check: a login endpoint that
  verifies a bcrypt hash and issues an HS256 JWT, and a middleware that
  gates every other /api route on a valid Bearer token. Nothing here
  touches credit semantics.

TOKEN SHAPE:
  Registered claims only: subject = user id, 30-day expiry. The secret is
  configuration; there is no key rotation in scope.

BOOTSTRAP:
  EnsureAdminUser seeds one operator account from config on startup when
  the username is not yet taken, so a fresh database is usable without a
  manual insert.

SEE ALSO:
  - server.go: Middleware wiring
  - config/config.go: JWT_SECRET, ADMIN_USER, ADMIN_PASSWORD
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crediario/credit-engine/credit"
)

type contextKey string

// userIDContextKey carries the authenticated operator's id.
const userIDContextKey contextKey = "userID"

const tokenValidity = 30 * 24 * time.Hour

// =============================================================================
// LOGIN
// =============================================================================

// Login verifies a username/password pair and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	user, err := h.Users.GetUserByUsername(r.Context(), strings.ToLower(req.Username))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(h.now().Add(tokenValidity)),
		IssuedAt:  jwt.NewNumericDate(h.now()),
	})
	signed, err := token.SignedString([]byte(h.JWTSecret))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign token", err)
		return
	}

	h.Logger.Infof("User logged in: %s", user.Username)
	writeJSON(w, http.StatusOK, TokenResponse{Token: signed})
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// AuthMiddleware rejects requests without a valid Bearer token and injects
// the operator id into the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// EnsureAdminUser creates the configured operator account when it does not
// exist yet. A blank configured password disables seeding.
func EnsureAdminUser(ctx context.Context, users credit.UserStore, username, password string) error {
	if password == "" {
		return nil
	}
	username = strings.ToLower(username)

	existing, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return users.SaveUser(ctx, &credit.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	})
}
