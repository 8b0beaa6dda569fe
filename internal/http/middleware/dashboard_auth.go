package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const dashboardClaimsKey contextKey = "dashboardClaims"

// DashboardClaims identify the dashboard user. Role is owner or manager.
type DashboardClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// DashboardJWT enforces an HMAC-signed JWT carrying a dashboard role.
func DashboardJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "dashboard auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString := bearerToken(r)
			if tokenString == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := DashboardClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Role != "owner" && claims.Role != "manager" {
				http.Error(w, "role not permitted", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), dashboardClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// for browser websocket upgrades that cannot set headers.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// DashboardClaimsFromContext returns dashboard JWT claims if present.
func DashboardClaimsFromContext(ctx context.Context) (DashboardClaims, bool) {
	claims, ok := ctx.Value(dashboardClaimsKey).(DashboardClaims)
	return claims, ok
}

// DashboardRoleFromContext returns the authenticated role, or "".
func DashboardRoleFromContext(ctx context.Context) string {
	claims, _ := DashboardClaimsFromContext(ctx)
	return claims.Role
}

// WithDashboardRole stores a role as if DashboardJWT had authenticated it.
func WithDashboardRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, dashboardClaimsKey, DashboardClaims{Role: role})
}
