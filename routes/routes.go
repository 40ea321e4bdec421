package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/anteneh-g/tambola-backend/controllers"
	"github.com/anteneh-g/tambola-backend/services"
)

// SetupRoutes wires the REST surface. Game reads are public (viewers), every
// mutating action requires the host bearer token.
func SetupRoutes(r *gin.Engine, jwtSecret string) {
	api := r.Group("/api")

	// ----------------------
	// Viewer routes
	// ----------------------
	api.GET("/games/:id", controllers.GetGame)
	api.POST("/games/:id/tickets/:ticket_id/book", controllers.BookTicket)

	// ----------------------
	// Host routes
	// ----------------------
	host := api.Group("")
	host.Use(services.AuthRequired(jwtSecret))

	host.POST("/games", controllers.CreateGame)
	host.PATCH("/games/:id", controllers.UpdateGame)
	host.POST("/games/:id/start", controllers.StartGame)
	host.POST("/games/:id/pause", controllers.PauseGame)
	host.POST("/games/:id/resume", controllers.ResumeGame)
	host.POST("/games/:id/end", controllers.EndGame)
	host.POST("/games/:id/reset", controllers.ResetGame)

	host.GET("/hosts/me/games", controllers.MyGames)
	host.POST("/hosts/me/resume", controllers.ResumeSession)
}
