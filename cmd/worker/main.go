package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"candlebliss-api/internal/config"
	"candlebliss-api/internal/jobs"
	"candlebliss-api/internal/metrics"
	"candlebliss-api/internal/pricing"
	"candlebliss-api/internal/service/candlebliss"
	"candlebliss-api/internal/service/catalog"
)

// metricsAddr serves the worker's /metrics
const metricsAddr = ":9091"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	log.Println("🚀 Starting CandleBliss catalog worker...")

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Worker needs Redis: %v", err)
	}
	defer redisClient.Close()

	m := metrics.New()
	backend := candlebliss.NewService(cfg, m)
	catalogSvc := catalog.NewService(
		backend,
		catalog.NewCache(redisClient, cfg.CatalogCacheTTL, m),
		pricing.NewPipeline(cfg.Discount(), cfg.FilterOptions()),
		catalog.Options{DefaultCategoryID: cfg.CandleCategoryID, FanOutLimit: cfg.FanOutLimit},
	)

	warmJob := jobs.NewCatalogWarmJob(catalogSvc, m, cfg.UpstreamTimeout*3)
	warmTask, err := jobs.NewCatalogWarmTask("schedule")
	if err != nil {
		log.Fatalf("❌ Failed to build warmup task: %v", err)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.AsynqRedis(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogWarm, Handler: warmJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CatalogWarmInterval, Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(1), asynq.Unique(time.Minute)}},
		},
	})
	if err != nil {
		log.Fatalf("❌ Failed to init worker: %v", err)
	}

	metricsServer := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️  Metrics server error: %v", err)
		}
	}()

	log.Printf("✅ Worker running, warming catalog %s", cfg.CatalogWarmInterval)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ Worker stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Println("👋 Worker exited")
}
