package api

import (
	"alcyxob/gym-console/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondWithServiceError maps service errors onto HTTP statuses.
func respondWithServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		validationErr *service.ValidationError
		duplicateErr  *service.DuplicateIdentityError
		notFoundErr   *service.NotFoundError
		writeErr      *service.RemoteWriteError
		readErr       *service.RemoteReadError
		authErr       *service.AuthError
	)
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &duplicateErr):
		abortWithError(c, http.StatusConflict, duplicateErr.Error())
	case errors.As(err, &notFoundErr):
		abortWithError(c, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &writeErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Backend write failed", "step": writeErr.Step})
	case errors.As(err, &readErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Backend read failed", "step": readErr.Step})
	case errors.As(err, &authErr):
		abortWithError(c, http.StatusUnauthorized, authErr.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
