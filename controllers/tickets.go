package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anteneh-g/tambola-backend/services"
)

// BookTicket books one ticket of a game for a player.
func BookTicket(c *gin.Context) {
	var req services.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := mgr.BookTicket(c.Request.Context(), c.Param("id"), c.Param("ticket_id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
