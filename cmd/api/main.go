package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyq-platform/studyq/internal/auth"
	"github.com/studyq-platform/studyq/internal/cache"
	"github.com/studyq-platform/studyq/internal/config"
	"github.com/studyq-platform/studyq/internal/content"
	"github.com/studyq-platform/studyq/internal/database"
	"github.com/studyq-platform/studyq/internal/llm"
	"github.com/studyq-platform/studyq/internal/middleware"
	inats "github.com/studyq-platform/studyq/internal/nats"
	"github.com/studyq-platform/studyq/internal/query"
	iredis "github.com/studyq-platform/studyq/internal/redis"
	"github.com/studyq-platform/studyq/internal/retrieval"
	"github.com/studyq-platform/studyq/internal/server"
	"github.com/studyq-platform/studyq/internal/tokens"
	"github.com/studyq-platform/studyq/internal/usage"
	"github.com/studyq-platform/studyq/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Cancelled on SIGINT/SIGTERM; stops the server, sweeper and usage consumer.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Usage records go through JetStream when NATS is configured.
	usageRepo := usage.NewRepository(pool)
	var recorder usage.Recorder = usageRepo
	var natsClient *inats.Client
	if cfg.NATS.URL != "" {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		recorder = usage.NewPublishingRecorder(inats.NewPublisher(natsClient.JetStream()))
		consumer := usage.NewConsumer(usageRepo, inats.NewConsumerManager(natsClient.JetStream()))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("usage consumer stopped", "error", err)
			}
		}()
	}

	// Interpretation
	llmClient := llm.NewClient(cfg.LLM)
	interpreter := query.NewInterpreter(query.NewFallbackClient(llmClient, cfg.LLM.Timeout))

	// Tokens
	tokenStore := tokens.NewPostgresStore(pool)
	ledger := tokens.NewLedger(tokenStore)
	tokens.NewSweeper(ledger, tokenStore, cfg.Sweep.Interval).Start(ctx)

	// Retrieval
	resultCache := cache.New(cache.NewRedisStore(redisClient), map[string]time.Duration{
		string(tokens.OpSearch):             cfg.Cache.SearchTTL,
		string(tokens.OpPastPaper):          cfg.Cache.PastPaperTTL,
		string(tokens.OpQuestionGeneration): cfg.Cache.QuestionsTTL,
	})
	orch := retrieval.NewOrchestrator(retrieval.Deps{
		Interpreter:    interpreter,
		Preferences:    users.NewService(users.NewRepository(pool)),
		Ledger:         ledger,
		Cache:          resultCache,
		Searcher:       content.NewPostgresSearcher(pool),
		Generator:      content.NewGenerator(llmClient),
		Recorder:       recorder,
		Timeout:        cfg.Retrieval.Timeout,
		StorageTimeout: cfg.DB.StatementTimeout,
	})

	retrievalHandler := retrieval.NewHandler(orch)
	tokenHandler := tokens.NewHandler(ledger)
	queryLimiter := middleware.NewRateLimiter(redisClient, "query", cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec)

	// Router
	router := server.NewRouter(
		server.Dependencies{DB: pool, Redis: redisClient, NATS: natsClient},
		server.RouterConfig{CORSAllowedOrigins: cfg.CORS.AllowedOrigins},
		server.HandlerSet{
			Query:           retrievalHandler.Query,
			InvalidateCache: retrievalHandler.InvalidateCache,
			GetTokens:       tokenHandler.GetBalance,

			AuthMiddleware:   auth.Middleware(auth.NewJWTManager(cfg.JWT.AccessSecret)),
			QueryRateLimiter: queryLimiter.Middleware,
		},
	)

	// Start server
	srv := server.New(cfg.Server, router, cfg.Retrieval.Timeout)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
