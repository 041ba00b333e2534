package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-settlement/internal/services"
)

var statusByKind = map[services.Kind]int{
	services.KindUnauthenticated:     http.StatusUnauthorized,
	services.KindForbidden:           http.StatusForbidden,
	services.KindInvalidInput:        http.StatusBadRequest,
	services.KindInsufficientFunds:   http.StatusPaymentRequired,
	services.KindInvalidSessionState: http.StatusConflict,
	services.KindInternal:            http.StatusInternalServerError,
}

// respondError writes the flat error body. Internal details never reach the
// client.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := statusByKind[kind]

	msg := "Unable to process request"
	var e *services.Error
	if kind != services.KindInternal && errors.As(err, &e) {
		msg = e.Msg
	}

	c.JSON(status, gin.H{"error": msg})
}
