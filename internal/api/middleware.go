package api

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/service"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextUserIDKey  = "userID"
	ContextProfileKey = "profile"
)

// TokenVerifier checks bearer tokens. auth.Provider satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Session, error)
}

// SessionMiddleware admits a request only when it carries a valid bearer
// token for the session the resolver currently holds. The profile is not
// checked; a fallback profile still passes.
func SessionMiddleware(resolver service.IdentityResolver, tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		tokenString, ok := bearerToken(authHeader)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		state, err := stateForToken(c.Request.Context(), resolver, tokens, tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Could not verify session")
			return
		}
		if !state.Authenticated {
			abortWithError(c, http.StatusUnauthorized, "Not signed in")
			return
		}

		c.Set(ContextUserIDKey, state.Session.UserID)
		if state.Profile != nil {
			c.Set(ContextProfileKey, *state.Profile)
		}
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// stateForToken returns the resolver's state as seen by the holder of token.
// A token for anyone other than the resolved session's user sees a
// signed-out state.
func stateForToken(ctx context.Context, resolver service.IdentityResolver, tokens TokenVerifier, token string) (service.AuthState, error) {
	session, err := tokens.Verify(ctx, token)
	if err != nil {
		return service.AuthState{}, err
	}
	state := resolver.State()
	if !state.Authenticated || state.Session == nil || state.Session.UserID != session.UserID {
		return service.AuthState{Loading: state.Loading}, nil
	}
	return state, nil
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// getProfileFromContext returns the signed-in profile, if it has resolved yet.
func getProfileFromContext(c *gin.Context) (domain.AccountProfile, bool) {
	raw, exists := c.Get(ContextProfileKey)
	if !exists {
		return domain.AccountProfile{}, false
	}
	profile, ok := raw.(domain.AccountProfile)
	return profile, ok
}
