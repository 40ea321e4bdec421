package main

import (
	"log"

	"github.com/anteneh-g/tambola-backend/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if _, err := config.SetupDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}
	log.Println("database migration completed")
}
