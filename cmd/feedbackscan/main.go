// Command feedbackscan runs one pass of the overdue-SLA sweep over the
// feedback workflow (spec.md §4.6), meant to be invoked on a schedule by an
// external cron. It exits 0 on a clean pass, 1 on a fatal startup error.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/npcorchestrator/pkg/database"
	"github.com/codeready-toolchain/npcorchestrator/pkg/feedback"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	if err := godotenv.Load(filepath.Join(*configDir, ".env")); err != nil {
		log.Printf("Warning: could not load .env: %v", err)
	}

	ctx := context.Background()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()

	repo := feedback.NewRepository(dbClient.DB())
	router := feedback.NewRouter("", 0, "", 0)
	svc := feedback.NewService(repo, router, nil)

	flagged, err := svc.ScanOverdue(ctx)
	if err != nil {
		log.Fatalf("Overdue scan failed: %v", err)
	}
	log.Printf("Flagged %d overdue feedback ticket(s)", flagged)
}
