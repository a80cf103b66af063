package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"
	"casino-miniapp-backend/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	ledger     *services.LedgerService
}

func NewGameHandler(gameEngine *services.GameEngine, ledger *services.LedgerService) *GameHandler {
	return &GameHandler{
		gameEngine: gameEngine,
		ledger:     ledger,
	}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	round, err := h.gameEngine.PlaceBet(c.Request.Context(), accountID(c), &req)
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

// Cashout serves both crash and mines rounds.
func (h *GameHandler) Cashout(c *gin.Context) {
	var req models.CashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	round, err := h.gameEngine.Cashout(c.Request.Context(), accountID(c), req.RoundID)
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) RevealMine(c *gin.Context) {
	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	round, err := h.gameEngine.RevealMine(c.Request.Context(), accountID(c), req.RoundID, *req.Cell)
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) Hit(c *gin.Context) {
	var req models.BlackjackActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	round, err := h.gameEngine.Hit(c.Request.Context(), accountID(c), req.RoundID)
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) Stand(c *gin.Context) {
	var req models.BlackjackActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	round, err := h.gameEngine.Stand(c.Request.Context(), accountID(c), req.RoundID)
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

// GetBalance reads the authoritative balance, bypassing the display cache.
func (h *GameHandler) GetBalance(c *gin.Context) {
	id := accountID(c)

	balance, err := h.ledger.GetBalance(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, models.BalanceResponse{
		AccountID: id,
		Balance:   balance,
	})
}

func (h *GameHandler) GetActiveGames(c *gin.Context) {
	rounds := h.gameEngine.ActiveRounds(accountID(c))
	if rounds == nil {
		rounds = []*models.RoundView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds": rounds,
		"count":  len(rounds),
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultListLimit)))
	if err != nil {
		limit = repository.DefaultListLimit
	}

	records, err := h.ledger.History(c.Request.Context(), accountID(c), limit)
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": records,
		"count":        len(records),
	})
}

func (h *GameHandler) GetRound(c *gin.Context) {
	round, err := h.gameEngine.GetRound(accountID(c), c.Param("id"))
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (h *GameHandler) RetrySettlement(c *gin.Context) {
	round, err := h.gameEngine.RetrySettlement(c.Request.Context(), accountID(c), c.Param("id"))
	if err != nil {
		respondWithError(c, err, round)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}
