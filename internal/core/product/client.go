package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"allergen-scanner/internal/core/cache"
	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/infrastructure/metrics"
	"allergen-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const sourceOpenFoodFacts = "openfoodfacts"

// Client 商品條碼查詢客戶端（OpenFoodFacts）
type Client struct {
	client  *resty.Client
	cache   cache.Store
	metrics *metrics.Metrics
}

// NewClient 創建商品查詢客戶端；store 與 m 可為 nil
func NewClient(cfg config.ProductConfig, store cache.Store, m *metrics.Metrics) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		client:  client,
		cache:   store,
		metrics: m,
	}
}

// Lookup 依條碼查詢商品，優先讀取快取
func (c *Client) Lookup(ctx context.Context, barcode string) (*Product, error) {
	barcode, err := ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	key := "product:" + barcode

	if p, ok := c.fromCache(ctx, key); ok {
		c.metrics.IncrementLookup("hit")
		return p, nil
	}

	p, err := c.fetch(ctx, barcode)
	common.LogProductLookup(barcode, time.Since(start), err, requestIDFrom(ctx))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			c.metrics.IncrementLookup("not_found")
		} else {
			c.metrics.IncrementLookup("error")
		}
		return nil, err
	}
	c.metrics.IncrementLookup("miss")

	c.toCache(ctx, key, p)
	return p, nil
}

func (c *Client) fetch(ctx context.Context, barcode string) (*Product, error) {
	var body offResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/api/v0/product/%s.json", barcode))
	if err != nil {
		return nil, fmt.Errorf("failed to query product database: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("product database returned status %d", resp.StatusCode())
	case body.Status != 1:
		return nil, ErrProductNotFound
	}

	p := &Product{
		Barcode:         barcode,
		Name:            body.Product.ProductName,
		Brand:           body.Product.Brands,
		IngredientsText: body.Product.IngredientsText,
		Allergens:       make([]string, 0, len(body.Product.AllergensTags)),
		NutritionGrade:  body.Product.NutritionGrades,
		Source:          sourceOpenFoodFacts,
	}
	if p.Name == "" {
		p.Name = "Unknown Product"
	}
	for _, tag := range body.Product.AllergensTags {
		if a := allergenTag(tag); a != "" {
			p.Allergens = append(p.Allergens, a)
		}
	}
	return p, nil
}

func (c *Client) fromCache(ctx context.Context, key string) (*Product, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.String("鍵", key), zap.Error(err))
		}
		return nil, false
	}
	var p Product
	if err := common.ParseJSON(raw, &p); err != nil {
		common.LogWarn("快取資料格式錯誤", zap.String("鍵", key), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *Client) toCache(ctx context.Context, key string, p *Product) {
	if c.cache == nil {
		return
	}
	raw, err := common.ToJSON(p)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw); err != nil {
		common.LogWarn("寫入快取失敗", zap.String("鍵", key), zap.Error(err))
	}
}

type requestIDKey struct{}

// WithRequestID 將 request id 放入 context，供查詢日誌使用
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
