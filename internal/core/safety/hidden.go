package safety

import (
	"fmt"
	"strings"

	"allergen-scanner/internal/core/knowledge"
)

// HiddenAllergenDetector 偵測以技術名稱出現的隱藏過敏原（例如 casein 之於 dairy）
type HiddenAllergenDetector struct {
	kb *knowledge.KnowledgeBase
}

// NewHiddenAllergenDetector 創建隱藏過敏原偵測器
func NewHiddenAllergenDetector(kb *knowledge.KnowledgeBase) *HiddenAllergenDetector {
	return &HiddenAllergenDetector{kb: kb}
}

// Detect 隱藏別名需完整出現在成分中（單向比對）
func (d *HiddenAllergenDetector) Detect(ingredients IngredientList, allergies []string) []Match {
	records := d.kb.Allergens()
	found := newMatchSet()

	for _, allergy := range normalizeSet(allergies) {
		rec, ok := resolveAllergy(records, allergy)
		if !ok || len(rec.HiddenAliases) == 0 {
			continue
		}
		for _, ingredient := range ingredients {
			for _, alias := range rec.HiddenAliases {
				if !strings.Contains(ingredient, alias) {
					continue
				}
				found.add(Match{
					Subject:     rec.Category,
					MatchedTerm: alias,
					Ingredient:  ingredient,
					Kind:        KindHidden,
					Severity:    rec.Severity,
					Label:       HiddenLabel(ingredient, rec.Category),
				})
				break
			}
		}
	}

	return found.list()
}

// HiddenLabel 格式為 "<ingredient> (hidden <category>)"
func HiddenLabel(ingredient, category string) string {
	return fmt.Sprintf("%s (hidden %s)", ingredient, category)
}
