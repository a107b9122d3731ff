package product

import (
	"errors"
	"regexp"
	"strings"
)

var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

var (
	// ErrInvalidBarcode 條碼格式錯誤（需為 8 到 14 位數字）
	ErrInvalidBarcode = errors.New("invalid barcode")
	// ErrProductNotFound 商品資料庫查無此條碼
	ErrProductNotFound = errors.New("product not found")
)

// Product 商品資料
type Product struct {
	Barcode         string   `json:"barcode"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand"`
	IngredientsText string   `json:"ingredients_text"`
	Allergens       []string `json:"allergens"`
	NutritionGrade  string   `json:"nutrition_grade,omitempty"`
	Source          string   `json:"source"`
}

// AnalysisText 成分文字加上商品宣告的過敏原，供成分分析使用
func (p Product) AnalysisText() string {
	if len(p.Allergens) == 0 {
		return p.IngredientsText
	}
	parts := make([]string, 0, len(p.Allergens)+1)
	if text := strings.TrimSpace(p.IngredientsText); text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, p.Allergens...)
	return strings.Join(parts, ", ")
}

// ValidateBarcode 檢查並正規化條碼（移除空白）
func ValidateBarcode(barcode string) (string, error) {
	barcode = strings.Join(strings.Fields(barcode), "")
	if !barcodePattern.MatchString(barcode) {
		return "", ErrInvalidBarcode
	}
	return barcode, nil
}

// offResponse OpenFoodFacts v0 商品回應
type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName     string   `json:"product_name"`
	Brands          string   `json:"brands"`
	IngredientsText string   `json:"ingredients_text"`
	AllergensTags   []string `json:"allergens_tags"`
	NutritionGrades string   `json:"nutrition_grades"`
}

// allergenTag 將 "en:tree-nuts" 轉為 "tree nuts"
func allergenTag(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(tag, "-", " "))
}
