package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"regsim/adapters/export"
	"regsim/adapters/postgres"
	"regsim/adapters/rng"
	"regsim/app"
	"regsim/internal/config"
	"regsim/internal/errors"
	"regsim/internal/migration"
	"regsim/ui"
)

// initDatabase connects to PostgreSQL and applies pending migrations
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(appConfig.Server.GinMode)

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	writer, err := export.ForFormat(appConfig.Export.Format, appConfig.Export.Dir)
	if err != nil {
		log.Fatalf("Failed to configure result export: %v", err)
	}

	service := app.NewExperimentService(
		postgres.NewExperimentRepository(db),
		postgres.NewAuditRepository(db),
		rng.NewAdapter(),
		writer,
		appConfig.Simulation.MaxConcurrent,
	)

	server, err := ui.NewServer(service)
	if err != nil {
		log.Fatal("Failed to create dashboard server:", err)
	}

	log.Printf("🚀 Starting regsim dashboard on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
