package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DailyNews handles the scheduled-task webhook. A successful enqueue is
// acknowledged with plain text; any failure comes back as a 500 carrying
// the error detail.
func (h *Handler) DailyNews(c *gin.Context) {
	log.Printf("Processing /hooks/daily-news webhook...")

	ack, err := h.Bridge.HandleDailyNews(c.Request.Context())
	if err != nil {
		log.Printf("daily news enqueue failed: %v", err)
		c.String(http.StatusInternalServerError, "Error posting summary: %v", err)
		return
	}
	c.String(http.StatusOK, "%s", ack)
}
