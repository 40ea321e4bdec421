package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/services"
	"github.com/anteneh-g/tambola-backend/store"
)

var (
	mgr *services.Manager
	st  store.Store
)

// Setup injects the shared service dependencies once at boot.
func Setup(manager *services.Manager, s store.Store) {
	mgr = manager
	st = s
}

// fail maps engine errors onto HTTP statuses with a human-readable message.
// Handlers never panic through; every failure is a rejected JSON outcome.
func fail(c *gin.Context, err error) {
	switch {
	case store.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrGameNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
	case errors.Is(err, game.ErrAuthExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": "host subscription inactive or expired"})
	case errors.Is(err, store.ErrStorageConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "the game was updated concurrently, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
