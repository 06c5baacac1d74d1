package middlewares

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/rental-auth/internal/jwt"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/models"
)

// Tokener defines the minimal interface needed by the middleware
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// UserFinder looks up the user named by a token.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware attaches an Identity to the request context when it carries
// a valid bearer token for an existing user. It never rejects a request:
// a missing, malformed, invalid or stale token leaves the request anonymous.
func AuthMiddleware(tokener Tokener, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := GetRequestIDFromContext(ctx)

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokener.GetClaims(ctx, tokenString)
			if err != nil {
				logger.Log.Infow("token rejected", "request_id", reqID, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				logger.Log.Errorw("failed to resolve token user", "request_id", reqID, "user_id", claims.UserID, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				logger.Log.Infow("token user not found", "request_id", reqID, "user_id", claims.UserID)
				next.ServeHTTP(w, r)
				return
			}

			ctx = setIdentityToContext(ctx, Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that AuthMiddleware left anonymous with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentityFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
