package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anteneh-g/tambola-backend/services"
)

// CreateGame sets up a new game for the authenticated host.
func CreateGame(c *gin.Context) {
	var req services.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := mgr.CreateGame(c.Request.Context(), services.HostID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// GetGame returns the full game snapshot (tickets and prizes included).
func GetGame(c *gin.Context) {
	g, err := st.Game(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// UpdateGame edits pre-start configuration.
func UpdateGame(c *gin.Context) {
	var req struct {
		TicketPrice float64 `json:"ticket_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := mgr.UpdateGameConfig(c.Request.Context(), c.Param("id"), req.TicketPrice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// StartGame begins countdown and hands the call loop to this process.
func StartGame(c *gin.Context) {
	if err := mgr.Controller(c.Param("id")).Start(c.Request.Context(), services.HostID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "countdown started"})
}

func PauseGame(c *gin.Context) {
	if err := mgr.Controller(c.Param("id")).Pause(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game paused"})
}

func ResumeGame(c *gin.Context) {
	if err := mgr.Controller(c.Param("id")).Resume(c.Request.Context(), services.HostID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game resumed"})
}

func EndGame(c *gin.Context) {
	if err := mgr.Controller(c.Param("id")).End(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game ended"})
}

// ResetGame is destructive: call history and prize outcomes are wiped while
// bookings survive. The host must send {"confirm": true}.
func ResetGame(c *gin.Context) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := mgr.Controller(c.Param("id")).Reset(c.Request.Context(), req.Confirm); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game reset to setup"})
}
