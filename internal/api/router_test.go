package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/core/product"
	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/infrastructure/metrics"
	"allergen-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type fakeProducts struct {
	products map[string]*product.Product
	err      error
}

func (f *fakeProducts) Lookup(_ context.Context, barcode string) (*product.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := product.ValidateBarcode(barcode); err != nil {
		return nil, err
	}
	p, ok := f.products[barcode]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

type RouterSuite struct {
	suite.Suite
	cfg      *config.Config
	deps     Dependencies
	router   *gin.Engine
	stop     chan struct{}
	products *fakeProducts
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.cfg = &config.Config{
		App:         config.AppConfig{Version: "test"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		Batch:       config.BatchConfig{Workers: 2, MaxItems: 3},
		Metrics:     config.MetricsConfig{Enabled: true},
		DedupWindow: time.Second,
	}
	s.products = &fakeProducts{products: map[string]*product.Product{
		"0123456789012": {
			Barcode:         "0123456789012",
			Name:            "Peanut Crunch Bar",
			IngredientsText: "sugar, roasted peanuts",
			Allergens:       []string{"peanuts"},
			Source:          "openfoodfacts",
		},
	}}
	reg := prometheus.NewRegistry()
	s.stop = make(chan struct{})
	s.deps = Dependencies{
		Knowledge: knowledge.MustLoadDefault(),
		Products:  s.products,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Stop:      s.stop,
	}
	s.router = SetupRouter(s.cfg, s.deps)
}

func (s *RouterSuite) TearDownTest() {
	close(s.stop)
}

func (s *RouterSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Status    string          `json:"status"`
		Version   string          `json:"version"`
		Knowledge knowledge.Stats `json:"knowledge"`
	}
	s.decode(w, &resp)
	s.Equal("ok", resp.Status)
	s.Equal("test", resp.Version)
	s.Equal(9, resp.Knowledge.Allergens)
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/ready", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/live", "").Code)
}

func (s *RouterSuite) TestAnalyze() {
	w := s.do(http.MethodPost, "/api/v1/safety/analyze",
		`{"ingredients":"Sugar, peanut oil, salt","profile":{"allergies":["peanuts"]}}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var a safety.Assessment
	s.decode(w, &a)
	s.Equal(safety.RiskHigh, a.OverallLevel)
	s.Len(a.AllergenMatches, 1)
	s.Equal("DO NOT CONSUME this product.", a.Recommendations[0])
}

func (s *RouterSuite) TestAnalyzeSerializesEmptyCollections() {
	w := s.do(http.MethodPost, "/api/v1/safety/analyze", `{"ingredients":"","profile":{}}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"allergen_matches":[]`)
	s.Contains(w.Body.String(), `"overall_level":"unknown"`)
}

func (s *RouterSuite) TestAnalyzeInvalidBody() {
	w := s.do(http.MethodPost, "/api/v1/safety/analyze", `{"ingredients":`)
	s.Equal(http.StatusBadRequest, w.Code)

	var resp common.ErrorResponse
	s.decode(w, &resp)
	s.Equal(common.ErrCodeInvalidRequest, resp.Code)
}

func (s *RouterSuite) TestDuplicateRequestRejected() {
	body := `{"ingredients":"milk","profile":{"allergies":["dairy"]}}`
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/safety/analyze", body).Code)
	s.Equal(http.StatusTooManyRequests, s.do(http.MethodPost, "/api/v1/safety/analyze", body).Code)
}

func (s *RouterSuite) TestBatch() {
	w := s.do(http.MethodPost, "/api/v1/safety/batch", `{"items":[
		{"id":"a","ingredients":"peanuts","profile":{"allergies":["peanuts"]}},
		{"id":"b","ingredients":"rice","profile":{"allergies":["peanuts"]}}
	]}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results []safety.BatchResult `json:"results"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Results, 2)
	s.Equal("a", resp.Results[0].ID)
	s.Equal(safety.RiskHigh, resp.Results[0].Assessment.OverallLevel)
	s.Equal(safety.RiskSafe, resp.Results[1].Assessment.OverallLevel)
}

func (s *RouterSuite) TestBatchLimits() {
	w := s.do(http.MethodPost, "/api/v1/safety/batch", `{"items":[{},{},{},{}]}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "BATCH_TOO_LARGE")

	w = s.do(http.MethodPost, "/api/v1/safety/batch", `{"items":[]}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), common.ErrCodeInvalidRequest)
}

func (s *RouterSuite) TestScan() {
	w := s.do(http.MethodPost, "/api/v1/safety/scan", `{"barcode":"0123456789012","profile":{"allergies":["peanuts"]}}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Product    product.Product   `json:"product"`
		Assessment safety.Assessment `json:"assessment"`
	}
	s.decode(w, &resp)
	s.Equal("Peanut Crunch Bar", resp.Product.Name)
	s.Equal(safety.RiskHigh, resp.Assessment.OverallLevel)
	s.Equal([]string{"sugar", "roasted peanuts", "peanuts"}, []string(resp.Assessment.Ingredients))
}

func (s *RouterSuite) TestScanErrors() {
	w := s.do(http.MethodPost, "/api/v1/safety/scan", `{"barcode":"11111111","profile":{}}`)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "PRODUCT_NOT_FOUND")

	w = s.do(http.MethodPost, "/api/v1/safety/scan", `{"barcode":"abc","profile":{}}`)
	s.Equal(http.StatusBadRequest, w.Code)

	s.products.err = errors.New("upstream down")
	w = s.do(http.MethodPost, "/api/v1/safety/scan", `{"barcode":"22222222","profile":{}}`)
	s.Equal(http.StatusBadGateway, w.Code)
	s.Contains(w.Body.String(), "PRODUCT_LOOKUP_FAILED")
}

func (s *RouterSuite) TestScanDisabled() {
	deps := s.deps
	deps.Products = nil
	router := SetupRouter(s.cfg, deps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/safety/scan", strings.NewReader(`{"barcode":"0123456789012"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterSuite) TestKnowledgeEndpoints() {
	w := s.do(http.MethodGet, "/api/v1/knowledge/allergens", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var list struct {
		Allergens []knowledge.AllergenRecord `json:"allergens"`
	}
	s.decode(w, &list)
	s.Len(list.Allergens, 9)

	w = s.do(http.MethodGet, "/api/v1/knowledge/medications/Coumadin", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var rec knowledge.MedicationRecord
	s.decode(w, &rec)
	s.Equal("warfarin", rec.Name)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/knowledge/medications/unknownol", "").Code)
}

func (s *RouterSuite) TestMetrics() {
	s.do(http.MethodPost, "/api/v1/safety/analyze", `{"ingredients":"kiwi, peanuts","profile":{"allergies":["kiwi"]}}`)

	w := s.do(http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `allergen_scanner_analyses_total{level="safe"} 1`)
	s.Contains(w.Body.String(), `allergen_scanner_unknown_entities_total{kind="unknown_allergy"} 1`)
}

func (s *RouterSuite) TestRateLimit() {
	s.cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Hour}
	router := SetupRouter(s.cfg, s.deps)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/allergens", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		s.Equal(want, w.Code, "request %d", i)
	}
}

func (s *RouterSuite) TestNotFound() {
	w := s.do(http.MethodGet, "/nope", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), common.ErrCodeNotFound)
}
