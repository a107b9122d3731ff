package health

import (
	"net/http"
	"runtime"
	"time"

	"allergen-scanner/internal/core/cache"
	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Knowledge knowledge.Stats        `json:"knowledge"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理程序
type Handler struct {
	cfg   *config.Config
	kb    *knowledge.KnowledgeBase
	cache cache.Store
}

// NewHandler 創建健康檢查處理程序；store 可為 nil
func NewHandler(cfg *config.Config, kb *knowledge.KnowledgeBase, store cache.Store) *Handler {
	return &Handler{cfg: cfg, kb: kb, cache: store}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Knowledge: h.kb.Stats(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.cache != nil {
		response.Cache = h.cache.GetStats()
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：知識庫必須已載入且不為空
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.kb == nil || h.kb.Stats().Allergens == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
