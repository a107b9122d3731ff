package product

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"allergen-scanner/internal/core/cache"
	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foundBody = `{
  "status": 1,
  "product": {
    "product_name": "Peanut Crunch Bar",
    "brands": "Acme",
    "ingredients_text": "Sugar, roasted peanuts, palm oil, salt",
    "allergens_tags": ["en:peanuts", "en:tree-nuts"],
    "nutrition_grades": "d"
  }
}`

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v0/product/0123456789012.json":
			_, _ = w.Write([]byte(foundBody))
		case "/api/v0/product/99999999.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, store cache.Store, m *metrics.Metrics) *Client {
	return NewClient(config.ProductConfig{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		UserAgent: "allergen-scanner-test",
	}, store, m)
}

func TestLookupFound(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newServer(t, &hits), nil, nil)

	p, err := client.Lookup(context.Background(), "0123456789012")
	require.NoError(t, err)
	assert.Equal(t, "Peanut Crunch Bar", p.Name)
	assert.Equal(t, "Acme", p.Brand)
	assert.Equal(t, []string{"peanuts", "tree nuts"}, p.Allergens)
	assert.Equal(t, "openfoodfacts", p.Source)
	assert.Equal(t, "Sugar, roasted peanuts, palm oil, salt, peanuts, tree nuts", p.AnalysisText())
}

func TestLookupNotFound(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newServer(t, &hits), nil, nil)

	_, err := client.Lookup(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestLookupUpstreamError(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newServer(t, &hits), nil, nil)

	_, err := client.Lookup(context.Background(), "99999999")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}

func TestLookupInvalidBarcode(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newServer(t, &hits), nil, nil)

	for _, barcode := range []string{"", "123", "abcdefghij", "123456789012345"} {
		_, err := client.Lookup(context.Background(), barcode)
		assert.ErrorIs(t, err, ErrInvalidBarcode, barcode)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestLookupUsesCache(t *testing.T) {
	var hits atomic.Int32
	store := cache.NewManager(10, time.Hour, 0)
	t.Cleanup(func() { _ = store.Close() })
	m := metrics.New(prometheus.NewRegistry())
	client := newTestClient(newServer(t, &hits), store, m)

	first, err := client.Lookup(context.Background(), "0123456789012")
	require.NoError(t, err)
	second, err := client.Lookup(context.Background(), "0123 4567 89012")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookups.WithLabelValues("hit")))
}

func TestAnalysisTextWithoutAllergens(t *testing.T) {
	p := Product{IngredientsText: "water, salt"}
	assert.Equal(t, "water, salt", p.AnalysisText())

	p = Product{Allergens: []string{"milk"}}
	assert.Equal(t, "milk", p.AnalysisText())
}
