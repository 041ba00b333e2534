package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casino-settlement/internal/models"
	"casino-settlement/internal/services"
)

type GameHandler struct {
	engine *services.Engine
}

func NewGameHandler(engine *services.Engine) *GameHandler {
	return &GameHandler{engine: engine}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	action, err := req.Decode()
	if err != nil {
		var reqErr *models.RequestError
		if errors.As(err, &reqErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": reqErr.Msg})
			return
		}
		respondError(c, err)
		return
	}

	result, err := h.engine.Execute(c.Request.Context(), accountID, action)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) GetActiveGames(c *gin.Context) {
	accountID := c.GetString("account_id")

	sessions, err := h.engine.ActiveSessions(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   sessions,
		"count":   len(sessions),
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	accountID := c.GetString("account_id")

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	history, err := h.engine.History(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"count":   len(history),
	})
}

func (h *GameHandler) VerifyGame(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.engine.Verify(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": result,
	})
}

// GetNextSeed publishes the commitment for the caller's next instant wager.
func (h *GameHandler) GetNextSeed(c *gin.Context) {
	hash, err := h.engine.NextSeedHash(c.Request.Context(), c.GetString("account_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"next_server_seed_hash": hash,
	})
}
