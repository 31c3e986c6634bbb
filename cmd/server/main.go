package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	arango "github.com/vicharanashala/ajrasakha-sub003/common/arangodb"
	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/common/llm"
	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/common/otel"
	"github.com/vicharanashala/ajrasakha-sub003/core/config"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/auth"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	httprouter "github.com/vicharanashala/ajrasakha-sub003/internal/http/router"
	"github.com/vicharanashala/ajrasakha-sub003/internal/jobs"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
	"github.com/vicharanashala/ajrasakha-sub003/internal/search"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.Env, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "ajrasakha api starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, arango.Config{
		URL:      cfg.ArangoDB.URL,
		Username: cfg.ArangoDB.Username,
		Password: cfg.ArangoDB.Password,
		Database: cfg.ArangoDB.Database,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected", "database", cfg.ArangoDB.Database)

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.AssignmentStream)

	chunkProducer := queue.NewRedisProducer(redisClient, cfg.Redis.AssignmentStream, nil)
	defer chunkProducer.Close()

	index, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open search index", "error", err)
		os.Exit(1)
	}
	defer index.Close()

	deps := service.Deps{
		Stores:      store.NewStores(database.Documents()),
		TxRunner:    service.NewTxRunner(database),
		AdminEmails: cfg.WorkOS.AdminEmailList(),
		Push:        queue.NewPushPublisher(redisClient, cfg.Redis.PushStream),
		Chunks:      chunkProducer,
		Index:       index,
		Paging: service.Paging{
			DefaultLimit: cfg.Workflow.DefaultPageSize,
			MaxLimit:     cfg.Workflow.MaxPageSize,
		},
		ExpiryWindow:          cfg.Workflow.ExpiryWindow,
		NotificationRetention: cfg.Workflow.NotificationRetention,
		ApprovalThreshold:     cfg.Workflow.ApprovalThreshold,
	}
	if cfg.WorkOS.Enabled() {
		deps.Identity = service.NewWorkOSIdentityProvider(cfg.WorkOS)
	} else {
		slog.WarnContext(ctx, "workos disabled, only existing users can sign in")
	}
	if cfg.LLM.Enabled() {
		llmClient, err := llm.New(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			MaxRetries:     2,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create llm client", "error", err)
			os.Exit(1)
		}
		deps.LLM = llmClient
		deps.Embedder = llmClient
		slog.InfoContext(ctx, "llm enabled", "model", llmClient.Model())
	}

	services := service.NewServices(deps)

	if cfg.Search.IndexPath == "" {
		n, err := services.Questions().Reindex(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to build search index", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "in-memory search index built", "questions", n)
	}

	jwksURL, err := auth.JWKSURL(cfg.WorkOS.ClientID, cfg.WorkOS.JWKSURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve jwks url", "error", err)
		os.Exit(1)
	}
	verifier, err := auth.NewJWTVerifier(ctx, jwksURL, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to create token verifier", "error", err)
		os.Exit(1)
	}

	registry := jobs.NewRegistry(jobs.Standard(cfg.Scheduler, jobs.Deps{
		Questions:     services.Questions(),
		Notifications: services.Notifications(),
		Users:         services.Users(),
		Workload:      services.Workload(),
		Backup:        jobs.NewBackup(database.Documents(), cfg.Backup.Dir, db.CollectionNames()),
	})...)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(); err != nil {
		slog.ErrorContext(ctx, "failed to register request validators", "error", err)
		os.Exit(1)
	}

	router := setupRouter(cfg, services, httprouter.RouterConfig{
		Prefix:      cfg.RoutePrefix,
		AdminAPIKey: cfg.AdminAPIKey,
		Verifier:    verifier,
		Jobs:        registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withCORS(cfg, router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port, "prefix", cfg.RoutePrefix)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, routerCfg httprouter.RouterConfig) *gin.Engine {
	router := gin.New()

	// The request span has to exist before the logger reads its trace id.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	httprouter.SetupRoutes(router, services, routerCfg)

	return router
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOriginList(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Admin-API-Key"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(h)
}

const banner = `
   _     _                     _    _
  /_\   (_)_ _ __ _ ___ __ _| |__| |_  __ _
 / _ \  | | '_/ _' (_-</ _' | / /| ' \/ _' |
/_/ \_\_/ |_| \__,_/__/\__,_|_\_\|_||_\__,_|
      |__/                         api
`
