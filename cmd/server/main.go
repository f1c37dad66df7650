package main

import (
	"log"
	"log/slog"
	"os"

	_ "taskmaster/docs"
	"taskmaster/internal/config"
	"taskmaster/internal/database"
	"taskmaster/internal/server"

	"github.com/spf13/pflag"
)

// @title           Taskmaster API
// @version         1.0
// @description     Task tracking with ownership rules and linked tracker issues.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg := config.Load(*envFile)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if *migrateOnly {
		if err := database.Migrate(cfg.MigrationURL(), logger); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		return
	}

	s, err := server.Init(cfg, logger)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
