package safety

import (
	"strings"

	"allergen-scanner/internal/core/knowledge"
)

// MedicationResult 藥物交互作用比對結果
type MedicationResult struct {
	Matches     []Match
	TimingNotes []TimingNote
	Unresolved  []string
}

// MedicationMatcher 依知識庫比對食物與藥物交互作用
type MedicationMatcher struct {
	kb *knowledge.KnowledgeBase
}

// NewMedicationMatcher 創建藥物比對器
func NewMedicationMatcher(kb *knowledge.KnowledgeBase) *MedicationMatcher {
	return &MedicationMatcher{kb: kb}
}

// Match 逐一比對宣告的藥物：先比對藥物記錄，再比對藥物類別
func (m *MedicationMatcher) Match(ingredients IngredientList, medications []string) MedicationResult {
	terms := termMatcher{aliases: m.kb.IngredientAliases()}
	categories := m.kb.MedicationCategories()
	found := newMatchSet()
	timing := make([]TimingNote, 0)
	timed := make(map[string]struct{})
	unresolved := make([]string, 0)

	for _, medication := range normalizeSet(medications) {
		rec, resolved := m.kb.MedicationInfo(medication)
		if resolved {
			for _, ingredient := range ingredients {
				if term, hit := terms.first(rec.AvoidTerms, ingredient); hit {
					found.add(Match{
						Subject:     rec.Name,
						MatchedTerm: term,
						Ingredient:  ingredient,
						Kind:        KindAvoid,
						Severity:    rec.Severity,
						Via:         medication,
					})
				}
				if term, hit := terms.first(rec.CautionTerms, ingredient); hit {
					found.add(Match{
						Subject:     rec.Name,
						MatchedTerm: term,
						Ingredient:  ingredient,
						Kind:        KindCaution,
						Severity:    rec.Severity.Lower(),
						Via:         medication,
					})
				}
			}
			if _, seen := timed[rec.Name]; rec.TimingNote != "" && !seen {
				timed[rec.Name] = struct{}{}
				timing = append(timing, TimingNote{Medication: rec.Name, Note: rec.TimingNote})
			}
		}

		inCategory := false
		for _, cat := range categories {
			if !belongsTo(cat, medication, rec.Name) {
				continue
			}
			inCategory = true
			for _, ingredient := range ingredients {
				term, hit := terms.first(cat.FoodInteractions, ingredient)
				if !hit {
					continue
				}
				found.add(Match{
					Subject:     cat.Name,
					MatchedTerm: term,
					Ingredient:  ingredient,
					Kind:        KindAvoid,
					Severity:    cat.Severity,
					Via:         medication,
				})
			}
		}

		if !resolved && !inCategory {
			unresolved = append(unresolved, medication)
		}
	}

	return MedicationResult{
		Matches:     found.list(),
		TimingNotes: timing,
		Unresolved:  unresolved,
	}
}

// belongsTo 宣告的藥物字串或其正式名稱包含類別成員
func belongsTo(cat knowledge.MedicationCategory, declared, canonical string) bool {
	for _, member := range cat.Members {
		if strings.Contains(declared, member) {
			return true
		}
		if canonical != "" && strings.Contains(canonical, member) {
			return true
		}
	}
	return false
}
