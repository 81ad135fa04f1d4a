// Command alertscron runs one pass of the alert evaluator against every
// configured tenant/site (spec.md §4.7), meant to be invoked on a schedule
// by an external cron. It exits 0 on a clean pass, 1 on a fatal startup
// error, and 2 if the rule set could not be loaded.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/npcorchestrator/pkg/alerts"
	"github.com/codeready-toolchain/npcorchestrator/pkg/config"
	"github.com/codeready-toolchain/npcorchestrator/pkg/database"
	"github.com/codeready-toolchain/npcorchestrator/pkg/slack"
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

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

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

	rules, err := alerts.LoadRules(cfg.Alerts.RulesPath)
	if err != nil {
		log.Printf("Failed to load alert rules from %s: %v", cfg.Alerts.RulesPath, err)
		os.Exit(2)
	}
	if len(rules) == 0 {
		log.Println("No alert rules loaded, nothing to evaluate")
		os.Exit(0)
	}

	db := dbClient.DB()
	var notifier alerts.Notifier = alerts.NewWebhookNotifier(cfg.Alerts.WebhookURL, cfg.Alerts.WebhookTimeout)
	if slackNotifier := slack.NewNotifier(os.Getenv("SLACK_BOT_TOKEN"), os.Getenv("SLACK_ALERT_CHANNEL"), cfg.Alerts.WebhookTimeout); slackNotifier != nil {
		notifier = slackNotifier
	}
	evaluator := alerts.NewEvaluator(
		alerts.NewRepository(db),
		alerts.NewSilenceRepository(db),
		alerts.NewTraceMetricSource(db),
		notifier,
	)

	var sites []alerts.Site
	for _, tenant := range cfg.TenantRegistry.GetAll() {
		for _, site := range tenant.Sites {
			sites = append(sites, alerts.Site{TenantID: tenant.ID, SiteID: site.ID})
		}
	}

	log.Printf("Evaluating %d rule(s) across %d site(s)", len(rules), len(sites))
	evaluator.Run(ctx, sites, rules)
	log.Println("Alert evaluation pass complete")
}
