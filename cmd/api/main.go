package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"allergen-scanner/internal/api"
	"allergen-scanner/internal/core/cache"
	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/core/product"
	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/infrastructure/metrics"
	"allergen-scanner/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定", zap.Any("config", cfg.Summary()))

	// 知識庫載入失敗屬於設定錯誤，不啟動服務
	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		common.LogFatal("Failed to load knowledge base",
			zap.String("path", cfg.Knowledge.Path),
			zap.Bool("config_error", knowledge.IsConfigError(err)),
			zap.Error(err),
		)
	}
	stats := kb.Stats()
	common.LogInfo("知識庫已載入",
		zap.Int("allergens", stats.Allergens),
		zap.Int("medications", stats.Medications),
		zap.Int("medication_categories", stats.MedicationCategories),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 初始化快取
	store, err := cache.NewStore(context.Background(), cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}

	deps := api.Dependencies{
		Knowledge: kb,
		Cache:     store,
		Metrics:   m,
		Gatherer:  registry,
	}
	if cfg.Product.Enabled {
		deps.Products = product.NewClient(cfg.Product, store, m)
	}

	stop := make(chan struct{})
	deps.Stop = stop

	router := api.SetupRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	if store != nil {
		if err := store.Close(); err != nil {
			common.LogWarn("Failed to close cache", zap.Error(err))
		}
	}

	common.LogInfo("Server exited")
}
