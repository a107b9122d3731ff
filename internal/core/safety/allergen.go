package safety

import (
	"fmt"

	"allergen-scanner/internal/core/knowledge"
)

// AllergenResult 過敏原比對結果
type AllergenResult struct {
	Matches                    []Match
	CrossContamination         []Match
	CrossContaminationWarnings []string
	Unresolved                 []string
}

// AllergenMatcher 依知識庫比對使用者過敏原
type AllergenMatcher struct {
	kb *knowledge.KnowledgeBase
}

// NewAllergenMatcher 創建過敏原比對器
func NewAllergenMatcher(kb *knowledge.KnowledgeBase) *AllergenMatcher {
	return &AllergenMatcher{kb: kb}
}

// Match 比對成分與過敏清單，產生直接命中與交叉污染警告
func (m *AllergenMatcher) Match(ingredients IngredientList, allergies []string) AllergenResult {
	records := m.kb.Allergens()
	direct := newMatchSet()
	cross := newMatchSet()
	warnings := make([]string, 0)
	warned := make(map[string]struct{})
	unresolved := make([]string, 0)

	for _, allergy := range normalizeSet(allergies) {
		rec, ok := resolveAllergy(records, allergy)
		if !ok {
			unresolved = append(unresolved, allergy)
			continue
		}

		for _, ingredient := range ingredients {
			term, hit := firstTerm(rec.Synonyms, ingredient)
			if !hit {
				continue
			}
			direct.add(Match{
				Subject:     rec.Category,
				MatchedTerm: term,
				Ingredient:  ingredient,
				Kind:        KindDirect,
				Severity:    rec.Severity,
			})
		}

		for _, related := range rec.RelatedCategories {
			terms := []string{related}
			if relatedRec, found := m.kb.Allergen(related); found {
				terms = relatedRec.Synonyms
			}
			for _, ingredient := range ingredients {
				term, hit := firstTerm(terms, ingredient)
				if !hit {
					continue
				}
				cross.add(Match{
					Subject:     related,
					MatchedTerm: term,
					Ingredient:  ingredient,
					Kind:        KindCrossContamination,
					Severity:    knowledge.SeverityLow,
					Label:       fmt.Sprintf("%s (related to %s)", ingredient, rec.Category),
				})
				if _, seen := warned[related]; !seen {
					warned[related] = struct{}{}
					warnings = append(warnings, fmt.Sprintf("Cross-contamination risk with %s", related))
				}
			}
		}
	}

	return AllergenResult{
		Matches:                    direct.list(),
		CrossContamination:         cross.list(),
		CrossContaminationWarnings: warnings,
		Unresolved:                 unresolved,
	}
}
