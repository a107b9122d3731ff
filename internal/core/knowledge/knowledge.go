package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigError 知識庫載入或驗證失敗，屬於致命錯誤
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("knowledge base %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError 檢查是否為知識庫設定錯誤
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// KnowledgeBase 不可變的知識庫，建立後只讀，可在多個 goroutine 間共用
type KnowledgeBase struct {
	allergens   []AllergenRecord
	byCategory  map[string]int
	medications []MedicationRecord
	categories  []MedicationCategory
	aliases     []IngredientAlias
	nutrition   NutritionIndicators
}

// NormalizeTerm 轉小寫並合併空白
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = NormalizeTerm(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// New 驗證並建立知識庫
func New(doc Document) (*KnowledgeBase, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, &ConfigError{Op: "validate", Err: err}
	}

	kb := &KnowledgeBase{
		byCategory: make(map[string]int, len(doc.Allergens)),
	}

	for _, rec := range doc.Allergens {
		rec = rec.clone()
		rec.Category = NormalizeTerm(rec.Category)
		rec.Synonyms = normalizeTerms(rec.Synonyms)
		rec.HiddenAliases = normalizeTerms(rec.HiddenAliases)
		rec.RelatedCategories = normalizeTerms(rec.RelatedCategories)
		rec.Alternatives = trimTerms(rec.Alternatives)
		if rec.Category == "" || len(rec.Synonyms) == 0 {
			return nil, blankTerms("allergen", rec.Category)
		}
		if rec.Severity == "" {
			rec.Severity = SeverityModerate
		}
		if _, dup := kb.byCategory[rec.Category]; dup {
			return nil, &ConfigError{Op: "validate", Err: fmt.Errorf("duplicate allergen category %q", rec.Category)}
		}
		kb.byCategory[rec.Category] = len(kb.allergens)
		kb.allergens = append(kb.allergens, rec)
	}

	for _, rec := range kb.allergens {
		for _, related := range rec.RelatedCategories {
			if related == rec.Category {
				return nil, &ConfigError{Op: "validate", Err: fmt.Errorf("allergen %q lists itself as related", rec.Category)}
			}
		}
	}

	names := make(map[string]struct{}, len(doc.Medications))
	for _, rec := range doc.Medications {
		rec = rec.clone()
		rec.Name = NormalizeTerm(rec.Name)
		rec.Aliases = normalizeTerms(rec.Aliases)
		rec.AvoidTerms = normalizeTerms(rec.AvoidTerms)
		rec.CautionTerms = normalizeTerms(rec.CautionTerms)
		rec.TimingNote = strings.TrimSpace(rec.TimingNote)
		if rec.Name == "" {
			return nil, blankTerms("medication", rec.Name)
		}
		if _, dup := names[rec.Name]; dup {
			return nil, &ConfigError{Op: "validate", Err: fmt.Errorf("duplicate medication %q", rec.Name)}
		}
		names[rec.Name] = struct{}{}
		kb.medications = append(kb.medications, rec)
	}

	for _, cat := range doc.MedicationCategories {
		cat = cat.clone()
		cat.Name = NormalizeTerm(cat.Name)
		cat.Members = normalizeTerms(cat.Members)
		cat.FoodInteractions = normalizeTerms(cat.FoodInteractions)
		if cat.Name == "" || len(cat.Members) == 0 || len(cat.FoodInteractions) == 0 {
			return nil, blankTerms("medication category", cat.Name)
		}
		kb.categories = append(kb.categories, cat)
	}

	for _, alias := range doc.IngredientAliases {
		alias = alias.clone()
		alias.Term = NormalizeTerm(alias.Term)
		alias.Aliases = normalizeTerms(alias.Aliases)
		if alias.Term == "" || len(alias.Aliases) == 0 {
			return nil, blankTerms("ingredient alias", alias.Term)
		}
		kb.aliases = append(kb.aliases, alias)
	}

	kb.nutrition = NutritionIndicators{
		HighSodium: normalizeTerms(doc.Nutrition.HighSodium),
		HighSugar:  normalizeTerms(doc.Nutrition.HighSugar),
		Beneficial: normalizeTerms(doc.Nutrition.Beneficial),
	}

	return kb, nil
}

// blankTerms 正規化後名稱或必要詞表為空（例如只有空白）
func blankTerms(kind, name string) error {
	return &ConfigError{Op: "validate", Err: fmt.Errorf("%s %q has a blank name or no usable terms after normalization", kind, name)}
}

func trimTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Allergens 回傳所有過敏原類別的副本（依知識庫順序）
func (kb *KnowledgeBase) Allergens() []AllergenRecord {
	out := make([]AllergenRecord, len(kb.allergens))
	for i, rec := range kb.allergens {
		out[i] = rec.clone()
	}
	return out
}

// Allergen 依類別名稱查詢
func (kb *KnowledgeBase) Allergen(category string) (AllergenRecord, bool) {
	idx, ok := kb.byCategory[NormalizeTerm(category)]
	if !ok {
		return AllergenRecord{}, false
	}
	return kb.allergens[idx].clone(), true
}

// Medications 回傳所有藥物記錄的副本
func (kb *KnowledgeBase) Medications() []MedicationRecord {
	out := make([]MedicationRecord, len(kb.medications))
	for i, rec := range kb.medications {
		out[i] = rec.clone()
	}
	return out
}

// MedicationCategories 回傳藥物類別表的副本
func (kb *KnowledgeBase) MedicationCategories() []MedicationCategory {
	out := make([]MedicationCategory, len(kb.categories))
	for i, cat := range kb.categories {
		out[i] = cat.clone()
	}
	return out
}

// IngredientAliases 回傳次要別名表的副本
func (kb *KnowledgeBase) IngredientAliases() []IngredientAlias {
	out := make([]IngredientAlias, len(kb.aliases))
	for i, a := range kb.aliases {
		out[i] = a.clone()
	}
	return out
}

// Nutrition 回傳營養指標詞的副本
func (kb *KnowledgeBase) Nutrition() NutritionIndicators {
	return kb.nutrition.clone()
}

// MedicationInfo 依名稱或別名查詢藥物記錄
func (kb *KnowledgeBase) MedicationInfo(name string) (MedicationRecord, bool) {
	name = NormalizeTerm(name)
	if name == "" {
		return MedicationRecord{}, false
	}
	for _, rec := range kb.medications {
		if strings.Contains(name, rec.Name) {
			return rec.clone(), true
		}
		for _, alias := range rec.Aliases {
			if strings.Contains(name, alias) {
				return rec.clone(), true
			}
		}
	}
	return MedicationRecord{}, false
}

// Stats 知識庫統計
type Stats struct {
	Allergens            int `json:"allergens"`
	Medications          int `json:"medications"`
	MedicationCategories int `json:"medication_categories"`
	IngredientAliases    int `json:"ingredient_aliases"`
}

// Stats 回傳各表的筆數
func (kb *KnowledgeBase) Stats() Stats {
	return Stats{
		Allergens:            len(kb.allergens),
		Medications:          len(kb.medications),
		MedicationCategories: len(kb.categories),
		IngredientAliases:    len(kb.aliases),
	}
}
