package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"label-intake-api/internal/logging"
)

// maxTokenBytes bounds the bearer token accepted from a header.
const maxTokenBytes = 8192

// expiryWarning is the remaining lifetime below which responses carry the
// X-Token-Expires-* headers.
const expiryWarning = time.Hour

type claimsKey struct{}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// rejection is a 401 reason.
type rejection struct {
	message string
	code    string
}

// ClaimsFromContext returns the claims stored by AuthMiddleware, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// bearerToken pulls the token out of the Authorization header.
func bearerToken(r *http.Request) (string, *rejection) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", &rejection{"Authorization header required", "MISSING_AUTH_HEADER"}
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", &rejection{"Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT"}
	}
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return "", &rejection{"Token is required", "MISSING_TOKEN"}
	case len(token) > maxTokenBytes:
		return "", &rejection{"Token size exceeds maximum allowed", "INVALID_TOKEN_FORMAT"}
	case strings.Count(token, ".") != 2:
		return "", &rejection{"Invalid JWT token format", "INVALID_TOKEN_FORMAT"}
	}
	return token, nil
}

// classify maps a jwt validation error onto a rejection.
func classify(err error) *rejection {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &rejection{"Token has expired", "TOKEN_EXPIRED"}
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return &rejection{"Invalid token signing method", "INVALID_SIGNING_METHOD"}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &rejection{"Token is malformed", "MALFORMED_TOKEN"}
	default:
		return &rejection{"Invalid or expired token", "INVALID_TOKEN"}
	}
}

// AuthMiddleware requires a valid bearer token, stores its claims in the
// request context and tags the request logger with the user id.
func AuthMiddleware(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.FromContext(r.Context())

			token, rej := bearerToken(r)
			if rej == nil {
				claims, err := jwtManager.ValidateToken(token)
				switch {
				case err != nil:
					rej = classify(err)
					log.Info("token rejected", zap.String("code", rej.code), zap.Error(err))
				case claims.UserID <= 0:
					rej = &rejection{"Invalid user ID in token", "INVALID_USER_ID"}
				case len(claims.Roles) == 0:
					rej = &rejection{"No roles assigned to user", "NO_ROLES"}
				default:
					if claims.ExpiresAt != nil && claims.IsExpiringSoon(expiryWarning) {
						w.Header().Set("X-Token-Expires-At", claims.ExpiresAt.Time.Format(time.RFC3339))
						w.Header().Set("X-Token-Expires-In", time.Until(claims.ExpiresAt.Time).Round(time.Second).String())
					}
					ctx := context.WithValue(r.Context(), claimsKey{}, claims)
					ctx = logging.WithContext(ctx, log.With(zap.Int64("user_id", claims.UserID)))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			WriteError(w, rej.message, rej.code, http.StatusUnauthorized)
		})
	}
}

// MustRole admits requests whose claims carry any of roles. It must run
// behind AuthMiddleware.
func MustRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			switch {
			case claims == nil:
				WriteError(w, "Authentication required", "AUTHENTICATION_REQUIRED", http.StatusUnauthorized)
			case !claims.HasRole(roles...):
				WriteError(w, "Insufficient permissions", "INSUFFICIENT_PERMISSIONS", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
