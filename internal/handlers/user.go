package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/services"
)

type UserHandler struct {
	ledger *services.LedgerService
}

func NewUserHandler(ledger *services.LedgerService) *UserHandler {
	return &UserHandler{ledger: ledger}
}

// GetCurrentUser returns the signed-in account with its display balance.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	id := accountID(c)
	if id == "" {
		respondWithError(c, services.ErrUnauthenticated, nil)
		return
	}

	balance, err := h.ledger.DisplayBalance(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": models.Account{
			ID:        id,
			SessionID: c.GetString("session_id"),
			Balance:   balance,
		},
	})
}
