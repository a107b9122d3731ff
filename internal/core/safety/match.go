package safety

import (
	"slices"
	"strings"

	"allergen-scanner/internal/core/knowledge"
)

// containsEither 雙向子字串比對。
// 刻意保留寬鬆比對：例如 "egg" 會命中 "eggplant"，"oil" 會命中 "peanut oil"。
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// resolveAllergy 將使用者宣告的過敏字串對應到類別：完全相同的類別名或同義詞優先，
// 否則取知識庫順序中第一個雙向包含的類別（"shellfish" 不會落到 fish）
func resolveAllergy(records []knowledge.AllergenRecord, allergy string) (knowledge.AllergenRecord, bool) {
	for _, rec := range records {
		if allergy == rec.Category || slices.Contains(rec.Synonyms, allergy) {
			return rec, true
		}
	}
	for _, rec := range records {
		if containsEither(allergy, rec.Category) {
			return rec, true
		}
		for _, syn := range rec.Synonyms {
			if containsEither(allergy, syn) {
				return rec, true
			}
		}
	}
	return knowledge.AllergenRecord{}, false
}

// firstTerm 回傳第一個與成分雙向比對成功的詞
func firstTerm(terms []string, ingredient string) (string, bool) {
	for _, term := range terms {
		if containsEither(ingredient, term) {
			return term, true
		}
	}
	return "", false
}

// termMatcher 藥物交互作用的詞比對：子字串、逐字包含或次要別名表
type termMatcher struct {
	aliases []knowledge.IngredientAlias
}

func (t termMatcher) matches(term, ingredient string) bool {
	if term == "" || ingredient == "" {
		return false
	}
	if strings.Contains(ingredient, term) {
		return true
	}
	if allWordsIn(term, ingredient) {
		return true
	}
	return t.sameAliasEntry(term, ingredient)
}

func allWordsIn(term, ingredient string) bool {
	words := strings.Fields(term)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(ingredient, w) {
			return false
		}
	}
	return true
}

// sameAliasEntry term 與成分是否對應到同一個別名項目
func (t termMatcher) sameAliasEntry(term, ingredient string) bool {
	for _, entry := range t.aliases {
		if !containsEither(term, entry.Term) {
			continue
		}
		if strings.Contains(ingredient, entry.Term) {
			return true
		}
		for _, alias := range entry.Aliases {
			if strings.Contains(ingredient, alias) {
				return true
			}
		}
	}
	return false
}

func (t termMatcher) first(terms []string, ingredient string) (string, bool) {
	for _, term := range terms {
		if t.matches(term, ingredient) {
			return term, true
		}
	}
	return "", false
}
