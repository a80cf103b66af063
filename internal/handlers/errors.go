package handlers

import (
	"errors"
	"net/http"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// errorCategory maps service errors to the category shown to clients.
func errorCategory(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "not_signed_in"
	case errors.Is(err, services.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, services.ErrSettlementFailure),
		errors.Is(err, services.ErrLedgerWriteFailure),
		errors.Is(err, services.ErrLedgerReadFailure):
		return http.StatusServiceUnavailable, "network"
	case errors.Is(err, services.ErrDepositRejected):
		return http.StatusUnprocessableEntity, "rejected"
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, services.ErrRoundNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrRoundSettled),
		errors.Is(err, services.ErrRoundNotActive),
		errors.Is(err, services.ErrIdempotencyConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrInvalidBet),
		errors.Is(err, services.ErrInvalidMove),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondWithError writes err. A settled round is still returned when the
// outcome stands but its credit is pending.
func respondWithError(c *gin.Context, err error, round *models.RoundView) {
	status, category := errorCategory(err)

	body := gin.H{
		"error":   category,
		"details": err.Error(),
	}
	if round != nil {
		body["round"] = round
	}
	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"details": err.Error(),
	})
}

func accountID(c *gin.Context) string {
	return c.GetString("account_id")
}
