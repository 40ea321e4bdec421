package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anteneh-g/tambola-backend/services"
)

// MyGames lists the authenticated host's recent games.
func MyGames(c *gin.Context) {
	games, err := mgr.HostGames(c.Request.Context(), services.HostID(c), 20)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// ResumeSession re-attaches this process to the host's in-flight games after
// a reconnect and surfaces recently finished ones for review.
func ResumeSession(c *gin.Context) {
	resumed, review, err := mgr.ResumeHost(c.Request.Context(), services.HostID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resumed":         resumed,
		"recent_finished": review,
	})
}
