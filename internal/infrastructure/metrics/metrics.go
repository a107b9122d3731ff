package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 成分分析相關指標，nil 時所有記錄方法皆為 no-op
type Metrics struct {
	// 依整體風險等級統計的分析次數
	Analyses *prometheus.CounterVec

	// 知識庫未收錄的過敏原/藥物
	UnknownEntities *prometheus.CounterVec

	// 商品條碼查詢結果：hit / miss / not_found / error
	ProductLookups *prometheus.CounterVec

	AnalyzeLatency prometheus.Histogram
}

// New 在指定 registry 註冊指標
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allergen_scanner_analyses_total",
			Help: "Total ingredient analyses by overall risk level",
		}, []string{"level"}),

		UnknownEntities: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allergen_scanner_unknown_entities_total",
			Help: "Declared allergies or medications not present in the knowledge base",
		}, []string{"kind"}),

		ProductLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allergen_scanner_product_lookups_total",
			Help: "Barcode product lookups by result",
		}, []string{"result"}),

		AnalyzeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "allergen_scanner_analyze_duration_seconds",
			Help:    "Duration of a single ingredient analysis",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.1},
		}),
	}
}

// IncrementAnalysis 記錄一次分析的整體風險等級
func (m *Metrics) IncrementAnalysis(level string) {
	if m != nil {
		m.Analyses.WithLabelValues(level).Inc()
	}
}

// ObserveAnalyzeLatency 記錄單次分析耗時
func (m *Metrics) ObserveAnalyzeLatency(d time.Duration) {
	if m != nil {
		m.AnalyzeLatency.Observe(d.Seconds())
	}
}

// IncrementUnknown 記錄一筆未知實體診斷
func (m *Metrics) IncrementUnknown(kind string) {
	if m != nil {
		m.UnknownEntities.WithLabelValues(kind).Inc()
	}
}

// IncrementLookup 記錄商品查詢結果
func (m *Metrics) IncrementLookup(result string) {
	if m != nil {
		m.ProductLookups.WithLabelValues(result).Inc()
	}
}
