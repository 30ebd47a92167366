package api

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the identity resolver.
type AuthHandler struct {
	resolver service.IdentityResolver
	tokens   TokenVerifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(resolver service.IdentityResolver, tokens TokenVerifier) *AuthHandler {
	return &AuthHandler{resolver: resolver, tokens: tokens}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the only response that carries the access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	service.AuthState
}

// --- Handler Methods ---

// Login godoc
// @Summary Sign in a staff member
// @Description Signs in through the auth provider and returns the resolved auth state.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Signed in"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.resolver.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		respondWithServiceError(c, err)
		return
	}

	h.respondWithToken(c)
}

// respondWithToken answers with the resolver's current session token. The
// provider notifies synchronously, so the state already reflects the call.
func (h *AuthHandler) respondWithToken(c *gin.Context) {
	state := h.resolver.State()
	if state.Session == nil {
		abortWithError(c, http.StatusInternalServerError, "Session was not established")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: state.Session.AccessToken,
		ExpiresAt:   state.Session.ExpiresAt,
		AuthState:   state,
	})
}

// Logout godoc
// @Summary Sign out
// @Tags Auth
// @Produce json
// @Success 200 {object} service.AuthState "Signed out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.resolver.SignOut(c.Request.Context()); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resolver.State())
}

// Session returns the auth state as seen by the caller. It never fails;
// a caller without a valid token for the current session gets
// authenticated=false.
func (h *AuthHandler) Session(c *gin.Context) {
	signedOut := service.AuthState{Loading: h.resolver.State().Loading}
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusOK, signedOut)
		return
	}
	state, err := stateForToken(c.Request.Context(), h.resolver, h.tokens, token)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			_ = c.Error(err)
		}
		c.JSON(http.StatusOK, signedOut)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RefreshSession renews the access token, which re-resolves the profile.
// The new token is returned the same way Login returns it.
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	if err := h.resolver.Refresh(c.Request.Context()); err != nil {
		respondWithServiceError(c, err)
		return
	}
	h.respondWithToken(c)
}
