package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/adapters/datasource"
	"github.com/casepulse-ai/casepulse-engine/pkg/chatstate"
	"github.com/casepulse-ai/casepulse-engine/pkg/config"
	"github.com/casepulse-ai/casepulse-engine/pkg/database"
	"github.com/casepulse-ai/casepulse-engine/pkg/dimensions"
	"github.com/casepulse-ai/casepulse-engine/pkg/handlers"
	"github.com/casepulse-ai/casepulse-engine/pkg/llm"
	"github.com/casepulse-ai/casepulse-engine/pkg/logging"
	"github.com/casepulse-ai/casepulse-engine/pkg/prompts"
	"github.com/casepulse-ai/casepulse-engine/pkg/repositories"
	"github.com/casepulse-ai/casepulse-engine/pkg/services"
	sqlguard "github.com/casepulse-ai/casepulse-engine/pkg/sql"
	"github.com/casepulse-ai/casepulse-engine/pkg/timewindow"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Engine database for chat turn history. The engine still answers
	// questions without it; history is just not recorded.
	var turnRepo repositories.ChatTurnRepository
	db, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Warn("Engine database unavailable, chat history disabled", zap.Error(err))
		turnRepo = repositories.NewChatTurnRepository(nil)
	} else {
		defer db.Close()
		if err := database.RunMigrations(cfg.Database.ConnectionString(), "migrations", logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		turnRepo = repositories.NewChatTurnRepository(db)
	}

	// Conversation state store: Redis when configured, in-memory otherwise.
	sessionTTL := time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute
	var store chatstate.Store
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		store = chatstate.NewRedisStore(redisClient, sessionTTL)
		logger.Info("Using Redis conversation state store")
	} else {
		store = chatstate.NewMemoryStore(sessionTTL)
		logger.Info("Using in-memory conversation state store")
	}

	executor, err := datasource.New(ctx, cfg.Reporting, logger)
	if err != nil {
		logger.Fatal("Failed to connect to reporting warehouse", zap.Error(err))
	}
	defer func() { _ = executor.Close() }()

	registry, err := dimensions.NewRegistry()
	if err != nil {
		logger.Fatal("Failed to load dimension catalog", zap.Error(err))
	}
	finder := dimensions.NewFinder(executor, cfg.Reporting.Table, cfg.Reporting.DateColumn, logger)

	client, err := llm.NewFromConfig(cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to build AI client", zap.Error(err))
	}
	schema := prompts.SchemaContext{
		Table:      cfg.Reporting.Table,
		DateColumn: cfg.Reporting.DateColumn,
		Columns:    schemaColumns(registry, cfg.Reporting.DateColumn),
		MaxRows:    cfg.Chat.MaxRows,
	}

	guard := sqlguard.NewGuard(cfg.Reporting.Table, cfg.Chat.MaxRows)
	pipeline := sqlguard.NewPipeline(cfg.Reporting.DateColumn, registry.Person().Column, registry.PersonColumns())

	statusColumn := "Status"
	if def := registry.Get("status"); def != nil {
		statusColumn = def.Column
	}

	chatService := services.NewChatService(services.ChatServiceDeps{
		Store:          store,
		Registry:       registry,
		Extractor:      dimensions.NewExtractor(registry),
		Finder:         finder,
		Windows:        timewindow.NewResolver(cfg.Reporting.DateColumn),
		Pipeline:       pipeline,
		Guard:          guard,
		Proposer:       llm.NewProposer(client, schema, logger),
		Narrator:       llm.NewNarrator(client),
		Executor:       executor,
		KPI:            services.NewKPIService(executor, guard, cfg.Reporting.Table, statusColumn, logger),
		Turns:          turnRepo,
		Logger:         logger,
		Debug:          cfg.Debug,
		DefaultDays:    cfg.Chat.DefaultWindowDays,
		CandidateLimit: cfg.Chat.CandidateLimit,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting casepulse-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("reporting_type", cfg.Reporting.Type),
		zap.String("ai_provider", cfg.AI.Provider))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// schemaColumns lists the reporting columns the proposer may use: the date
// column plus every dimension column from the catalog.
func schemaColumns(registry *dimensions.Registry, dateColumn string) []string {
	columns := []string{dateColumn}
	seen := map[string]struct{}{dateColumn: {}}
	for _, def := range registry.List() {
		for _, col := range []string{def.Column, def.FallbackColumn} {
			if col == "" {
				continue
			}
			if _, dup := seen[col]; dup {
				continue
			}
			seen[col] = struct{}{}
			columns = append(columns, col)
		}
	}
	return columns
}
