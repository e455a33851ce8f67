package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"candlebliss-api/internal/config"
	"candlebliss-api/internal/handler"
	"candlebliss-api/internal/jobs"
	"candlebliss-api/internal/metrics"
	"candlebliss-api/internal/middleware"
	"candlebliss-api/internal/pricing"
	"candlebliss-api/internal/repository"
	"candlebliss-api/internal/service/candlebliss"
	"candlebliss-api/internal/service/catalog"
	"candlebliss-api/internal/service/svip"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	log.Println("🚀 Starting CandleBliss Storefront API...")
	log.Printf("📍 Environment: %s", cfg.Env)
	log.Printf("🔗 Backend: %s (discount mode %s)", cfg.BaseURL(), cfg.Discount())

	ctx := context.Background()
	m := metrics.New()

	// Redis backs the catalog and SVIP caches; without it every call goes upstream
	var redisClient *redis.Client
	if client, err := config.ConnectRedis(ctx, cfg); err != nil {
		log.Printf("⚠️  Redis unavailable, caching disabled: %v", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	// Postgres backs the browsing history; without it history is not recorded
	var history handler.HistoryStore
	if cfg.DatabaseURL != "" {
		db, err := config.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := config.RunMigrations(ctx, db); err != nil {
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}
		history = repository.NewHistoryRepository(db)
	} else {
		log.Println("⚠️  DATABASE_URL not set, browsing history disabled")
	}

	// Initialize services
	backend := candlebliss.NewService(cfg, m)
	pipeline := pricing.NewPipeline(cfg.Discount(), cfg.FilterOptions())
	catalogSvc := catalog.NewService(backend, catalog.NewCache(redisClient, cfg.CatalogCacheTTL, m), pipeline, catalog.Options{
		DefaultCategoryID: cfg.CandleCategoryID,
		FanOutLimit:       cfg.FanOutLimit,
	})
	svipSvc := svip.NewService(backend, redisClient, cfg.SVIPOrderThreshold, cfg.SVIPCacheTTL, m)

	// Ask the worker for a warm cache right away
	if redisClient != nil {
		jobClient := jobs.NewClient(cfg.AsynqRedis())
		if _, err := jobClient.EnqueueCatalogWarm(ctx, "startup"); err != nil {
			log.Printf("⚠️  Failed to enqueue catalog warmup: %v", err)
		}
		jobClient.Close()
	}

	// Initialize handlers
	validate := handler.NewValidator()
	sessions := middleware.NewSessionMiddleware(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET not set, /api/v1/me routes will reject every session")
	}
	catalogHandler := handler.NewCatalogHandler(catalogSvc, backend)
	giftHandler := handler.NewGiftHandler(catalogSvc, history)
	accountHandler := handler.NewAccountHandler(history, svipSvc)
	authHandler := handler.NewAuthHandler(backend, validate)
	adminHandler := handler.NewAdminHandler(backend, catalogSvc, validate)

	// Setup router
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", m.Handler())

	// ==========================================
	// STOREFRONT ROUTES (session optional)
	// ==========================================
	mux.HandleFunc("GET /api/v1/catalog/products", catalogHandler.GetProducts)
	mux.HandleFunc("GET /api/v1/catalog/products/{id}", catalogHandler.GetProduct)
	mux.HandleFunc("GET /api/v1/catalog/carousel", catalogHandler.GetCarousel)
	mux.HandleFunc("GET /api/v1/categories", catalogHandler.GetCategories)

	mux.HandleFunc("GET /api/v1/gifts", giftHandler.GetGifts)
	mux.HandleFunc("GET /api/v1/gifts/search", giftHandler.SearchGifts)
	mux.HandleFunc("GET /api/v1/gifts/{id}", giftHandler.GetGift)

	// Auth endpoints
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/reset-password", authHandler.ResetPassword)

	// ==========================================
	// CUSTOMER ROUTES (session required)
	// ==========================================
	mux.HandleFunc("GET /api/v1/me/history/{kind}", sessions.RequireVerifiedSession(accountHandler.GetHistory))
	mux.HandleFunc("DELETE /api/v1/me/history/{kind}", sessions.RequireVerifiedSession(accountHandler.ClearHistory))
	mux.HandleFunc("GET /api/v1/me/svip", sessions.RequireVerifiedSession(accountHandler.GetSVIP))

	// ==========================================
	// SELLER ROUTES (session required, backend enforces the role)
	// ==========================================
	mux.HandleFunc("POST /api/v1/admin/categories", sessions.RequireSession(adminHandler.CreateCategory))
	mux.HandleFunc("PATCH /api/v1/admin/categories/{id}", sessions.RequireSession(adminHandler.UpdateCategory))
	mux.HandleFunc("DELETE /api/v1/admin/categories/{id}", sessions.RequireSession(adminHandler.DeleteCategory))

	mux.HandleFunc("GET /api/v1/admin/vouchers", sessions.RequireSession(adminHandler.GetVouchers))
	mux.HandleFunc("POST /api/v1/admin/vouchers", sessions.RequireSession(adminHandler.CreateVoucher))
	mux.HandleFunc("GET /api/v1/admin/vouchers/{id}", sessions.RequireSession(adminHandler.GetVoucher))
	mux.HandleFunc("PATCH /api/v1/admin/vouchers/{id}", sessions.RequireSession(adminHandler.UpdateVoucher))
	mux.HandleFunc("DELETE /api/v1/admin/vouchers/{id}", sessions.RequireSession(adminHandler.DeleteVoucher))
	mux.HandleFunc("PATCH /api/v1/admin/vouchers/{id}/status", sessions.RequireSession(adminHandler.UpdateVoucherStatus))

	// Metrics wraps the mux directly so the matched route pattern is visible
	apiHandler := middleware.Chain(m.Middleware(mux),
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
		middleware.SecureHeaders(!cfg.IsDevelopment()),
		middleware.CORS(cfg.FrontendURL),
		middleware.RateLimit(cfg.RateLimitPerMinute),
		middleware.ContentTypeJSON,
		sessions.Session,
	)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apiHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
		log.Println("📋 API Documentation:")
		log.Println("   GET  /health                         - Health check")
		log.Println("   GET  /metrics                        - Prometheus metrics")
		log.Println("   GET  /api/v1/catalog/products        - Priced product listing")
		log.Println("   GET  /api/v1/catalog/products/{id}   - Product page with variants")
		log.Println("   GET  /api/v1/catalog/carousel        - Carousel feed")
		log.Println("   GET  /api/v1/gifts                   - Gift bundles")
		log.Println("   GET  /api/v1/me/svip                 - SVIP status")
		log.Println("   GET  /api/v1/admin/vouchers          - Vouchers with status")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server exited")
}
