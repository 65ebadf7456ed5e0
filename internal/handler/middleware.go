package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/inmoflow/rentas-backend/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey  contextKey = "userID"
	leaseIDKey contextKey = "leaseID"
)

// JWTAuthMiddleware validates operator Bearer tokens and injects the
// user ID into context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.Warn("auth: missing or malformed token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticación no proporcionado")
				return
			}

			claims, err := authSvc.ValidateAccessToken(tokenString)
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantAuthMiddleware validates lease-scoped statement-link tokens and
// injects the lease ID into context. The token arrives either as a
// Bearer header or a ?token= query parameter, since statement links are
// opened straight from a browser.
func TenantAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "Token de acceso no proporcionado")
				return
			}

			claims, err := authSvc.ValidateTenantToken(tokenString)
			if err != nil {
				logger.Warn("tenant auth: invalid token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), leaseIDKey, claims.LeaseID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserIDFromContext extracts the authenticated operator ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// LeaseIDFromContext extracts the lease a tenant token is scoped to.
func LeaseIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(leaseIDKey).(string)
	return v
}
