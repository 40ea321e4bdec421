package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anteneh-g/tambola-backend/config"
	"github.com/anteneh-g/tambola-backend/controllers"
	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/routes"
	"github.com/anteneh-g/tambola-backend/services"
	"github.com/anteneh-g/tambola-backend/store"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// setupRouter initializes Gin routes and middleware.
func setupRouter(cfg *config.Config, hub *services.Hub, st store.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, cfg.JWTSecret)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket snapshot stream per game
	r.GET("/ws/:game_id", services.WSHandler(hub, st))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("failed to load config: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("failed to set up database: %v", err)
	}

	if err := services.LoadTickets(cfg.TicketsFile); err != nil {
		logger.Log.Fatalf("failed to load ticket set: %v", err)
	}

	st := store.NewGormStore(db)

	// Announcement event stream is optional; without redis the engine runs
	// with a no-op sink.
	var sink game.Sink = game.NopSink{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("invalid REDIS_URL: %v", err)
		}
		sink = services.NewRedisAnnouncer(redis.NewClient(opts))
		logger.Info("announcement events publishing to redis")
	}

	hub := services.NewHub()
	st.Notify(hub.Publish)

	engineCfg := game.Config{
		CountdownSeconds: cfg.CountdownSeconds,
		CallInterval:     cfg.CallInterval,
		DisplayWindow:    cfg.DisplayWindow,
		ActionTimeout:    cfg.ActionTimeout,
	}
	mgr := services.NewManager(st, services.NewStoreHostChecker(st), sink, engineCfg)
	controllers.Setup(mgr, st)

	router := setupRouter(cfg, hub, st)

	logger.Infof("tambola backend listening on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("server failed: %v", err)
	}
}
