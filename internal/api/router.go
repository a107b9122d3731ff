package api

import (
	"context"
	"net/http"
	"time"

	"allergen-scanner/internal/api/handlers/health"
	knowledgeHandler "allergen-scanner/internal/api/handlers/knowledge"
	safetyHandler "allergen-scanner/internal/api/handlers/safety"
	"allergen-scanner/internal/api/middleware"
	"allergen-scanner/internal/core/cache"
	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/infrastructure/metrics"
	"allergen-scanner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 去重記錄清理間隔
	dedupCleanupInterval = 10 * time.Minute
)

// Dependencies 路由所需的服務；Cache、Products、Metrics、Gatherer 可為 nil
type Dependencies struct {
	Knowledge *knowledge.KnowledgeBase
	Cache     cache.Store
	Products  safetyHandler.ProductLookup
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	// Stop 關閉時停止背景清理
	Stop <-chan struct{}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Knowledge, deps.Cache)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	analyzer := safety.NewAnalyzer(deps.Knowledge)
	safetyHandlerInstance := safetyHandler.NewHandler(analyzer, deps.Products, deps.Metrics, cfg.Batch.Workers, cfg.Batch.MaxItems)
	knowledgeHandlerInstance := knowledgeHandler.NewHandler(deps.Knowledge)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, deps.Stop))
	}
	{
		dedup := middleware.NewDeduplicator(cfg.DedupWindow)
		go dedup.Run(dedupCleanupInterval, deps.Stop)

		// 成分安全分析
		safetyGroup := api.Group("/safety")
		safetyGroup.Use(dedup.Middleware())
		{
			safetyGroup.POST("/analyze", safetyHandlerInstance.HandleAnalyze)
			safetyGroup.POST("/batch", safetyHandlerInstance.HandleBatch)
			safetyGroup.POST("/scan", safetyHandlerInstance.HandleScan)
		}

		// 知識庫查詢
		knowledgeGroup := api.Group("/knowledge")
		{
			knowledgeGroup.GET("/allergens", knowledgeHandlerInstance.HandleAllergens)
			knowledgeGroup.GET("/medications/:name", knowledgeHandlerInstance.HandleMedication)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
		})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("product_lookup_enabled", deps.Products != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
