package safety

import (
	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Analyzer 成分安全分析服務，無共享可變狀態，可並行呼叫
type Analyzer struct {
	allergens   *AllergenMatcher
	hidden      *HiddenAllergenDetector
	medications *MedicationMatcher
	insights    *InsightScanner
	aggregator  *Aggregator
}

// NewAnalyzer 以同一份知識庫組裝各比對元件
func NewAnalyzer(kb *knowledge.KnowledgeBase) *Analyzer {
	return &Analyzer{
		allergens:   NewAllergenMatcher(kb),
		hidden:      NewHiddenAllergenDetector(kb),
		medications: NewMedicationMatcher(kb),
		insights:    NewInsightScanner(kb),
		aggregator:  NewAggregator(kb),
	}
}

// Analyze 解析成分文字並評估風險
func (a *Analyzer) Analyze(raw string, profile HealthProfile) Assessment {
	profile = profile.Normalize()
	ingredients := Parse(raw)

	findings := Findings{
		Ingredients: ingredients,
		Allergens:   a.allergens.Match(ingredients, profile.Allergies),
		Hidden:      a.hidden.Detect(ingredients, profile.Allergies),
		Medications: a.medications.Match(ingredients, profile.Medications),
		Insights:    a.insights.Scan(ingredients),
	}
	assessment := a.aggregator.Aggregate(findings, profile)

	common.LogDebug("成分分析完成",
		zap.Int("ingredients_count", len(ingredients)),
		zap.String("overall_level", string(assessment.OverallLevel)),
		zap.Int("allergen_matches", len(assessment.AllergenMatches)),
		zap.Int("hidden_matches", len(assessment.HiddenMatches)),
		zap.Int("medication_matches", len(assessment.MedicationMatches)),
		zap.Int("diagnostics", len(assessment.Diagnostics)),
	)

	return assessment
}
