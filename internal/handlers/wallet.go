package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/services"
)

type WalletHandler struct {
	deposits *services.DepositService
}

func NewWalletHandler(deposits *services.DepositService) *WalletHandler {
	return &WalletHandler{deposits: deposits}
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.deposits.Purchase(c.Request.Context(), accountID(c), &req)
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deposit": result,
	})
}
