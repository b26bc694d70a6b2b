package http

import (
	"errors"
	"log"
	"net/http"

	"ffquiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// errorBody maps a use-case error to a status code and JSON body.
func errorBody(err error) (int, gin.H) {
	var (
		completed    *domain.AlreadyCompletedError
		insufficient *domain.InsufficientBalanceError
		verification *domain.ExternalVerificationError
	)
	switch {
	case errors.As(err, &completed):
		return http.StatusConflict, gin.H{"error": "Quiz already completed", "attempt": completed.Attempt}
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, gin.H{
			"error":    "Insufficient coins",
			"balance":  insufficient.Balance,
			"required": insufficient.Required,
		}
	case errors.As(err, &verification):
		return http.StatusBadGateway, gin.H{"error": verification.Reason}
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("store unavailable: %v", err)
		return http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"}
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, gin.H{"error": "Account not found, please sign up first"}
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTierNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrSessionInProgress),
		errors.Is(err, domain.ErrGameIDRegistered),
		errors.Is(err, domain.ErrEmailRegistered):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, domain.ErrAuthenticationRequired),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrRegionMismatch):
		return http.StatusUnauthorized, gin.H{"error": err.Error()}
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownRegion):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	}
	log.Printf("unhandled error: %v", err)
	return http.StatusInternalServerError, gin.H{"error": "Internal server error"}
}

func abortWithError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}
