package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

type ctxKey int

const principalKey ctxKey = 0

// Claims is the token payload the authentication layer issues. The ledger
// core trusts it: user identity and role management live outside this
// service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth verifies the bearer token and attaches the resulting principal
// to the request context. Gateway callback routes never pass through here:
// the external processor does not authenticate.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if claims.Subject == "" {
				writeError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}
			uid, err := parseID(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			role := domain.Role(claims.Role)
			if !domain.ValidRole(role) {
				writeError(w, http.StatusForbidden, "unknown role")
				return
			}

			p := domain.Principal{ID: uid, Role: role}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), principalKey, p)))
		})
	}
}

// PrincipalFrom extracts the authenticated caller placed by RequireAuth.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}
