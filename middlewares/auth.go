package middlewares

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

type ContextKey string

const userContextKey ContextKey = "user"

// AuthMiddleware decodes the bearer token, loads the referenced user and
// attaches it to the request context. Missing, expired or invalid tokens and
// inactive accounts all yield 401.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := extractBearerToken(r)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := utils.ParseAccessToken(tokenStr)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		user, err := dbhelper.GetUserByID(claims.UserID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusUnauthorized, "User no longer exists")
			return
		} else if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Server error during authentication")
			return
		}
		if !user.IsActive {
			utils.RespondError(w, http.StatusUnauthorized, "Account is deactivated")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware requires an authenticated user with the admin role.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := GetAuthenticatedUser(r)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		if user.Role != models.RoleAdmin {
			utils.RespondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetAuthenticatedUser(r *http.Request) (*models.User, error) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil, errors.New("no user in context")
	}
	return user, nil
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}
