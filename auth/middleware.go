package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const SubjectKey contextKey = "subject"

// ErrorWriter renders an authentication failure the way the API renders every error.
type ErrorWriter func(w http.ResponseWriter, err error, statusCode int)

// Middleware handles JWT validation for incoming UI API calls.
// Public paths pass through. Browsers' EventSource cannot set headers, so ?token= is accepted too.
func Middleware(issuer TokenIssuer, publicPaths []string, writeErr ErrorWriter) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Skip authentication for public paths (login)
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			// 2. Retrieve the token from the Authorization header or the query string
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeErr(w, errMissingToken, http.StatusUnauthorized)
				return
			}

			// 3. Validate the JWT and extract claims
			claims, err := issuer.ValidateToken(tokenStr)
			if err != nil {
				writeErr(w, errInvalidToken, http.StatusUnauthorized)
				return
			}

			// 4. Inject identity into context for downstream handlers
			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingToken authError = "authorization token is missing"
	errInvalidToken authError = "invalid or expired token"
)
