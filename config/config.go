package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// Config is the process configuration, decoded from the environment. A .env
// file is honored when present.
type Config struct {
	Port        string `env:"PORT,default=4000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	TicketsFile string `env:"TICKETS_FILE,default=tickets.json"`
	CORSOrigin  string `env:"CORS_ORIGIN,default=http://localhost:3000"`

	CountdownSeconds int           `env:"COUNTDOWN_SECONDS,default=10"`
	CallInterval     time.Duration `env:"CALL_INTERVAL,default=5s"`
	DisplayWindow    time.Duration `env:"DISPLAY_WINDOW,default=3s"`
	ActionTimeout    time.Duration `env:"ACTION_TIMEOUT,default=10s"`
}

// Load reads .env (when present) and decodes the typed config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading environment variables")
	}
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.CallInterval < 3*time.Second || cfg.CallInterval > 15*time.Second {
		logger.Infof("call interval %s outside the usual 3s-15s hosting range", cfg.CallInterval)
	}
	return &cfg, nil
}
