// cmd/migrate/main.go
// Applies the schema to DATABASE_URL and reports what the database holds

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/imadgeboyega/datescape-backend/internal/common/database"
	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using environment variables", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgresDBFromURL(ctx, dbURL)
	if err != nil {
		log.Fatal("can't reach database", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	var profiles, matches int
	if err := db.GetContext(ctx, &profiles, `SELECT COUNT(*) FROM user_profiles`); err != nil {
		log.Fatal("failed to count profiles", "error", err)
	}
	if err := db.GetContext(ctx, &matches, `SELECT COUNT(*) FROM matches`); err != nil {
		log.Fatal("failed to count matches", "error", err)
	}
	log.Info("schema is up to date", "profiles", profiles, "matches", matches)
}
