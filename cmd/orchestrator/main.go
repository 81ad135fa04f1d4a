// Command orchestrator runs the NPC conversational orchestration platform's
// HTTP API: the turn pipeline, the tool RPC plane, the release/experiment
// control plane, the feedback workflow, and alert evaluation/silences
// (spec.md §6).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/alerts"
	"github.com/codeready-toolchain/npcorchestrator/pkg/api"
	"github.com/codeready-toolchain/npcorchestrator/pkg/cache"
	"github.com/codeready-toolchain/npcorchestrator/pkg/cleanup"
	"github.com/codeready-toolchain/npcorchestrator/pkg/config"
	"github.com/codeready-toolchain/npcorchestrator/pkg/database"
	"github.com/codeready-toolchain/npcorchestrator/pkg/feedback"
	"github.com/codeready-toolchain/npcorchestrator/pkg/intent"
	"github.com/codeready-toolchain/npcorchestrator/pkg/llm"
	"github.com/codeready-toolchain/npcorchestrator/pkg/orchestrator"
	"github.com/codeready-toolchain/npcorchestrator/pkg/policy"
	"github.com/codeready-toolchain/npcorchestrator/pkg/release"
	"github.com/codeready-toolchain/npcorchestrator/pkg/retrieval"
	"github.com/codeready-toolchain/npcorchestrator/pkg/session"
	"github.com/codeready-toolchain/npcorchestrator/pkg/slack"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
	"github.com/codeready-toolchain/npcorchestrator/pkg/trace"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()
	log.Printf("Loaded configuration: %d tenants, %d sites, %d LLM providers",
		stats.Tenants, stats.Sites, stats.LLMProviders)

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
	log.Println("Connected to PostgreSQL and applied migrations")

	cacheClient, err := cache.NewClient(ctx, getEnv("REDIS_URL", "redis://localhost:6379/0"), cfg.Cache.Prefix, toTTLPolicy(cfg.Cache))
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	sessionMemory := cache.NewSessionMemory(cacheClient, cfg.Cache.SessionMaxMessages, cfg.Cache.SessionMaxChars, cfg.Cache.SessionTTL)

	db := dbClient.DB()

	npcRepo := database.NewNPCRepository(db)
	siteMapRepo := database.NewSiteMapRepository(db)
	contentRepo := database.NewContentRepository(db)
	evidenceRepo := database.NewEvidenceRepository(db)
	eventRepo := database.NewEventRepository(db)
	conversationRepo := database.NewConversationRepository(db)

	llmProviderCfg, err := cfg.GetLLMProvider("default")
	if err != nil {
		log.Fatalf("Failed to resolve \"default\" LLM provider: %v", err)
	}
	llmProvider, err := llm.New(llm.Config{
		Type:    llm.ProviderType(llmProviderCfg.Type),
		BaseURL: llmProviderCfg.BaseURL,
		APIKey:  os.Getenv(llmProviderCfg.APIKeyEnv),
		Model:   llmProviderCfg.Model,
	})
	if err != nil {
		log.Fatalf("Failed to build LLM provider: %v", err)
	}

	intentClassifier := intent.New(intent.StrategyLLM, llmProvider, cacheClient)

	var embedder retrieval.Embedder
	if cfg.Retrieval.DefaultStrategy != config.RetrievalStrategyTrgm {
		embedder = retrieval.NewOpenAIEmbedder(os.Getenv("EMBEDDING_API_KEY"), "")
	}
	retrievalProvider, err := retrieval.New(retrieval.Config{
		Strategy:         retrieval.StrategyType(cfg.Retrieval.DefaultStrategy),
		QdrantBaseURL:    cfg.Retrieval.QdrantURL,
		QdrantCollection: "evidence",
		TrgmWeight:       cfg.Retrieval.TrgmWeight,
		QdrantWeight:     cfg.Retrieval.QdrantWeight,
	}, evidenceRepo, embedder, evidenceRepo)
	if err != nil {
		log.Fatalf("Failed to build retrieval provider: %v", err)
	}
	evidenceAdapter := retrieval.NewAdapter(retrievalProvider)

	toolRegistry := tools.NewBuiltinRegistry(tools.Stores{
		NPC:      npcRepo,
		SiteMap:  siteMapRepo,
		Content:  contentRepo,
		Evidence: evidenceAdapter,
		Events:   eventRepo,
	})
	toolServer := tools.NewServer(toolRegistry)

	policyRepo := policy.NewRepository(db)
	policyLoader := policy.NewLoader(policyRepo, cfg.Policy.RefreshInterval)

	traceRepo := trace.NewRepository(db)

	releaseRepo := release.NewRepository(db)
	releaseService := release.NewService(releaseRepo, policyRepo, npcRepo, traceRepo)

	executions := session.NewManager()

	orch := orchestrator.New(orchestrator.Deps{
		Tools:         toolServer,
		Releases:      releaseService,
		Policies:      policyLoader,
		Intent:        intentClassifier,
		LLM:           llmProvider,
		Cache:         cacheClient,
		SessionMemory: sessionMemory,
		Conversations: conversationRepo,
		Traces:        traceRepo,
		Executions:    executions,
	})

	feedbackRepo := feedback.NewRepository(db)
	feedbackRouter := feedback.NewRouter(cfg.Feedback.RoutingRulesPath, cfg.Feedback.RoutingCacheTTL, cfg.Feedback.DefaultGroup, cfg.Feedback.DefaultSLAHours)
	feedbackService := feedback.NewService(feedbackRepo, feedbackRouter, traceRepo)

	alertRules, err := alerts.LoadRules(cfg.Alerts.RulesPath)
	if err != nil {
		log.Printf("Warning: could not load alert rules from %s: %v", cfg.Alerts.RulesPath, err)
	}
	alertRepo := alerts.NewRepository(db)
	alertSilences := alerts.NewSilenceRepository(db)
	alertMetrics := alerts.NewTraceMetricSource(db)
	var alertNotifier alerts.Notifier = alerts.NewWebhookNotifier(cfg.Alerts.WebhookURL, cfg.Alerts.WebhookTimeout)
	if slackNotifier := slack.NewNotifier(os.Getenv("SLACK_BOT_TOKEN"), os.Getenv("SLACK_ALERT_CHANNEL"), cfg.Alerts.WebhookTimeout); slackNotifier != nil {
		alertNotifier = slackNotifier
	}
	evaluator := alerts.NewEvaluator(alertRepo, alertSilences, alertMetrics, alertNotifier)

	cleanupSvc := cleanup.NewService(cfg.Retention, conversationRepo, traceRepo)
	cleanupSvc.Start(ctx)

	server := api.NewServer(api.Deps{
		DB:            dbClient,
		Orchestrator:  orch,
		Tools:         toolServer,
		Releases:      releaseService,
		Feedback:      feedbackService,
		AlertEvents:   alertRepo,
		AlertSilences: alertSilences,
		Evaluator:     evaluator,
		AlertRules:    alertRules,
		Traces:        traceRepo,
	})

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func toTTLPolicy(cc *config.CacheConfig) cache.TTLPolicy {
	return cache.TTLPolicy{
		NPCProfile:    int64(cc.NPCProfileTTL.Seconds()),
		PromptActive:  int64(cc.PromptTTL.Seconds()),
		SiteMap:       int64(cc.SiteMapTTL.Seconds()),
		Evidence:      int64(cc.EvidenceTTL.Seconds()),
		ToolResult:    int64(cc.ToolResultTTL.Seconds()),
		RuntimeConfig: int64(cc.RuntimeCfgTTL.Seconds()),
		IntentCache:   int64(cc.IntentCacheTTL.Seconds()),
	}
}
