package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/cvforge/cvforge/internal/auth/app"
)

func main() {
	// Load .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
