package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-settlement/internal/services"
)

type UserHandler struct {
	engine *services.Engine
}

func NewUserHandler(engine *services.Engine) *UserHandler {
	return &UserHandler{engine: engine}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	accountID := c.GetString("account_id")

	account, err := h.engine.Account(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": account.ID,
		"is_banned":  account.IsBanned,
		"wallet":     account.View(),
	})
}
