package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"regsim/internal/migration"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	reset := false
	for _, arg := range os.Args[1:] {
		if arg == "--reset" {
			reset = true
			continue
		}
		databaseURL = arg
	}

	if databaseURL == "" {
		log.Fatal("Usage: migrate [--reset] [database_url] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if reset {
		if err := resetDatabase(db); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Database schema is up to date")
}

// resetDatabase drops all regsim tables so the runner can recreate them
func resetDatabase(db *sqlx.DB) error {
	log.Println("🔄 Resetting database - dropping all tables...")

	// Drop tables in reverse dependency order
	dropTables := []string{
		"equivalence_audits",
		"trial_results",
		"experiments",
	}

	for _, table := range dropTables {
		_, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table))
		if err != nil {
			log.Printf("Warning: failed to drop table %s: %v", table, err)
		}
	}

	log.Println("✅ Database reset complete")
	return nil
}
