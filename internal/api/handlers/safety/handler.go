package safety

import (
	"context"
	"errors"
	"net/http"
	"time"

	"allergen-scanner/internal/core/product"
	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/infrastructure/metrics"
	"allergen-scanner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductLookup 依條碼查詢商品
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*product.Product, error)
}

// AnalyzeRequest 成分分析請求
type AnalyzeRequest struct {
	Ingredients string               `json:"ingredients" binding:"max=20000"` // 商品標示上的成分文字
	Profile     safety.HealthProfile `json:"profile"`                         // 過敏與用藥
}

// BatchRequest 批次分析請求
type BatchRequest struct {
	Items []safety.BatchItem `json:"items" binding:"required,min=1,dive"`
}

// BatchResponse 批次分析回應
type BatchResponse struct {
	Results []safety.BatchResult `json:"results"`
}

// ScanRequest 條碼掃描請求
type ScanRequest struct {
	Barcode string               `json:"barcode" binding:"required"`
	Profile safety.HealthProfile `json:"profile"`
}

// ScanResponse 條碼掃描回應
type ScanResponse struct {
	Product    *product.Product  `json:"product"`
	Assessment safety.Assessment `json:"assessment"`
}

// Handler 成分安全分析處理程序
type Handler struct {
	analyzer      *safety.Analyzer
	products      ProductLookup
	metrics       *metrics.Metrics
	batchWorkers  int
	batchMaxItems int
}

// NewHandler 創建處理程序；products 為 nil 時停用條碼查詢
func NewHandler(analyzer *safety.Analyzer, products ProductLookup, m *metrics.Metrics, batchWorkers, batchMaxItems int) *Handler {
	return &Handler{
		analyzer:      analyzer,
		products:      products,
		metrics:       m,
		batchWorkers:  batchWorkers,
		batchMaxItems: batchMaxItems,
	}
}

// HandleAnalyze 分析成分文字
func (h *Handler) HandleAnalyze(c *gin.Context) {
	requestID := requestid.Get(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		respondError(c, common.ErrInvalidRequest, err)
		return
	}

	assessment := h.analyze(req.Ingredients, req.Profile)
	common.LogInfo("成分分析完成",
		zap.String("request_id", requestID),
		zap.String("overall_level", string(assessment.OverallLevel)),
		zap.Int("ingredients_count", len(assessment.Ingredients)),
	)
	c.JSON(http.StatusOK, assessment)
}

// HandleBatch 批次分析，結果順序與輸入相同
func (h *Handler) HandleBatch(c *gin.Context) {
	requestID := requestid.Get(c)

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		respondError(c, common.ErrInvalidRequest, err)
		return
	}
	if len(req.Items) > h.batchMaxItems {
		respondError(c, common.ErrBatchTooLarge, nil)
		return
	}

	start := time.Now()
	results, err := h.analyzer.AnalyzeBatch(c.Request.Context(), req.Items, h.batchWorkers)
	if err != nil {
		common.LogWarn("批次分析中止", zap.Error(err), zap.String("request_id", requestID))
		respondError(c, common.ErrRequestTimeout, err)
		return
	}
	for _, r := range results {
		h.record(r.Assessment)
	}

	common.LogInfo("批次分析完成",
		zap.String("request_id", requestID),
		zap.Int("items", len(results)),
		zap.Duration("耗時", time.Since(start)),
	)
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

// HandleScan 以條碼查詢商品並分析其成分
func (h *Handler) HandleScan(c *gin.Context) {
	requestID := requestid.Get(c)

	if h.products == nil {
		respondError(c, common.ErrProductLookupOff, nil)
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		respondError(c, common.ErrInvalidRequest, err)
		return
	}

	ctx := product.WithRequestID(c.Request.Context(), requestID)
	p, err := h.products.Lookup(ctx, req.Barcode)
	switch {
	case errors.Is(err, product.ErrInvalidBarcode):
		respondError(c, common.ErrInvalidRequest, err)
		return
	case errors.Is(err, product.ErrProductNotFound):
		respondError(c, common.ErrProductNotFound, err)
		return
	case err != nil:
		respondError(c, common.ErrProductLookupFailed, err)
		return
	}

	c.JSON(http.StatusOK, ScanResponse{
		Product:    p,
		Assessment: h.analyze(p.AnalysisText(), req.Profile),
	})
}

func (h *Handler) analyze(ingredients string, profile safety.HealthProfile) safety.Assessment {
	start := time.Now()
	assessment := h.analyzer.Analyze(ingredients, profile)
	h.metrics.ObserveAnalyzeLatency(time.Since(start))
	h.record(assessment)
	return assessment
}

func (h *Handler) record(a safety.Assessment) {
	h.metrics.IncrementAnalysis(string(a.OverallLevel))
	for _, diag := range a.Diagnostics {
		if diag.Kind != safety.DiagnosticEmptyInput {
			h.metrics.IncrementUnknown(string(diag.Kind))
		}
	}
}

// respondError 以統一格式回應錯誤，僅在 debug 模式附上原始錯誤
func respondError(c *gin.Context, e *common.CustomError, err error) {
	resp := common.ErrorResponse{Code: e.Code, Message: e.Message}
	if err != nil {
		_ = c.Error(err)
		if gin.IsDebugging() {
			resp.Details = err.Error()
		}
	}
	c.AbortWithStatusJSON(e.Status, resp)
}
