package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	arango "github.com/vicharanashala/ajrasakha-sub003/common/arangodb"
	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/common/otel"
	"github.com/vicharanashala/ajrasakha-sub003/core/config"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/balancer"
	"github.com/vicharanashala/ajrasakha-sub003/internal/jobs"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
	"github.com/vicharanashala/ajrasakha-sub003/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.Env, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	poolSize := balancer.PoolSize(runtime.NumCPU())
	slog.InfoContext(ctx, "ajrasakha worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Redis.Group,
		"consumer_name", cfg.Redis.Consumer,
		"pool_size", poolSize)

	// Snowflake node 2; the API is node 1.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
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
	slog.InfoContext(ctx, "database connected")

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

	services := service.NewServices(service.Deps{
		Stores:   store.NewStores(database.Documents()),
		TxRunner: service.NewTxRunner(database),
		Push:     queue.NewPushPublisher(redisClient, cfg.Redis.PushStream),
		Chunks:   chunkProducer,
		Paging: service.Paging{
			DefaultLimit: cfg.Workflow.DefaultPageSize,
			MaxLimit:     cfg.Workflow.MaxPageSize,
		},
		ExpiryWindow:          cfg.Workflow.ExpiryWindow,
		NotificationRetention: cfg.Workflow.NotificationRetention,
		ApprovalThreshold:     cfg.Workflow.ApprovalThreshold,
	})

	newConsumer := func(name string) *queue.RedisConsumer {
		consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
			Stream:       cfg.Redis.AssignmentStream,
			Group:        cfg.Redis.Group,
			Consumer:     name,
			DLQStream:    cfg.Redis.DLQStream,
			BatchSize:    1, // One chunk per read keeps the pool evenly loaded
			Block:        5 * time.Second,
			MaxAttempts:  cfg.Redis.MaxAttempts,
			RequeueDelay: time.Second,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create consumer", "error", err, "consumer", name)
			os.Exit(1)
		}
		return consumer
	}

	workerCfg := worker.Config{MaxAttempts: cfg.Redis.MaxAttempts}

	workers := make([]*worker.Worker, 0, poolSize)
	for i := range poolSize {
		name := fmt.Sprintf("%s-%d", cfg.Redis.Consumer, i)
		c := workerCfg
		c.Name = name
		workers = append(workers, worker.New(newConsumer(name), services.Workload(), c))
	}
	pool := worker.NewPool(workers...)

	reclaimName := cfg.Redis.Consumer + "-reclaimer"
	reclaimCfg := workerCfg
	reclaimCfg.Name = reclaimName
	reclaimConsumer := newConsumer(reclaimName)
	reclaimWorker := worker.New(reclaimConsumer, services.Workload(), reclaimCfg)
	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Redis.AssignmentStream,
		Group:     cfg.Redis.Group,
		Consumer:  reclaimName,
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
		MaxPages:  10,
	}, reclaimConsumer, reclaimWorker.Handle)

	registry := jobs.NewRegistry(jobs.Standard(cfg.Scheduler, jobs.Deps{
		Questions:     services.Questions(),
		Notifications: services.Notifications(),
		Users:         services.Users(),
		Workload:      services.Workload(),
		Backup:        jobs.NewBackup(database.Documents(), cfg.Backup.Dir, db.CollectionNames()),
	})...)
	scheduler, err := jobs.NewScheduler(cfg.Scheduler.Location(), registry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create scheduler", "error", err)
		os.Exit(1)
	}

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	errCh := make(chan error, 1)
	go func() {
		errCh <- pool.Run(runCtx)
	}()
	go reclaimer.Run(runCtx)
	scheduler.Start(runCtx)

	slog.InfoContext(ctx, "worker initialized and running",
		"workers", pool.Size(),
		"jobs", registry.Names(),
		"timezone", cfg.Scheduler.Timezone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Scheduler first so no new balance run is dispatched mid-shutdown
	scheduler.Stop(shutdownCtx)
	reclaimer.Stop()
	pool.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
   _     _                     _    _
  /_\   (_)_ _ __ _ ___ __ _| |__| |_  __ _
 / _ \  | | '_/ _' (_-</ _' | / /| ' \/ _' |
/_/ \_\_/ |_| \__,_/__/\__,_|_\_\|_||_\__,_|
      |__/                       worker
`
