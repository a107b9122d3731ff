package safety

import (
	"strings"

	"allergen-scanner/internal/core/knowledge"
)

// InsightScanner 營養提示掃描（單向子字串比對）
type InsightScanner struct {
	kb *knowledge.KnowledgeBase
}

// NewInsightScanner 創建營養提示掃描器
func NewInsightScanner(kb *knowledge.KnowledgeBase) *InsightScanner {
	return &InsightScanner{kb: kb}
}

// Scan 掃描成分
func (s *InsightScanner) Scan(ingredients IngredientList) NutritionInsights {
	indicators := s.kb.Nutrition()
	return NutritionInsights{
		HighSodium: collect(ingredients, indicators.HighSodium),
		HighSugar:  collect(ingredients, indicators.HighSugar),
		Beneficial: collect(ingredients, indicators.Beneficial),
	}
}

func collect(ingredients IngredientList, indicators []string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, ingredient := range ingredients {
		if _, dup := seen[ingredient]; dup {
			continue
		}
		for _, ind := range indicators {
			if strings.Contains(ingredient, ind) {
				seen[ingredient] = struct{}{}
				out = append(out, ingredient)
				break
			}
		}
	}
	return out
}
