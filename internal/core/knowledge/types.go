package knowledge

import "slices"

// Severity 嚴重程度，順序為 low < moderate < high
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Rank 回傳排序用的等級，未知值為 0
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Valid 檢查是否為已知的嚴重程度
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Lower 降低一級，最低為 low
func (s Severity) Lower() Severity {
	switch s {
	case SeverityHigh:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// AllergenRecord 過敏原類別
type AllergenRecord struct {
	Category          string   `yaml:"category" json:"category" validate:"required"`
	Synonyms          []string `yaml:"synonyms" json:"synonyms" validate:"required,min=1,dive,required"`
	HiddenAliases     []string `yaml:"hidden_aliases" json:"hidden_aliases" validate:"dive,required"`
	Severity          Severity `yaml:"severity" json:"severity" validate:"omitempty,oneof=low moderate high"`
	RelatedCategories []string `yaml:"related_categories" json:"related_categories" validate:"dive,required"`
	Alternatives      []string `yaml:"alternatives" json:"alternatives" validate:"dive,required"`
}

// MedicationRecord 藥物與食物交互作用
type MedicationRecord struct {
	Name         string   `yaml:"name" json:"name" validate:"required"`
	Aliases      []string `yaml:"aliases" json:"aliases" validate:"dive,required"`
	AvoidTerms   []string `yaml:"avoid" json:"avoid" validate:"dive,required"`
	CautionTerms []string `yaml:"caution" json:"caution" validate:"dive,required"`
	Severity     Severity `yaml:"severity" json:"severity" validate:"required,oneof=low moderate high"`
	TimingNote   string   `yaml:"timing" json:"timing,omitempty"`
}

// MedicationCategory 藥物類別（如 blood thinners）
type MedicationCategory struct {
	Name             string   `yaml:"name" json:"name" validate:"required"`
	Members          []string `yaml:"members" json:"members" validate:"required,min=1,dive,required"`
	FoodInteractions []string `yaml:"food_interactions" json:"food_interactions" validate:"required,min=1,dive,required"`
	Severity         Severity `yaml:"severity" json:"severity" validate:"required,oneof=low moderate high"`
}

// IngredientAlias 次要別名表，例如 vitamin k ≈ phylloquinone
type IngredientAlias struct {
	Term    string   `yaml:"term" json:"term" validate:"required"`
	Aliases []string `yaml:"aliases" json:"aliases" validate:"required,min=1,dive,required"`
}

// NutritionIndicators 營養提示用的指標詞
type NutritionIndicators struct {
	HighSodium []string `yaml:"high_sodium" json:"high_sodium" validate:"dive,required"`
	HighSugar  []string `yaml:"high_sugar" json:"high_sugar" validate:"dive,required"`
	Beneficial []string `yaml:"beneficial" json:"beneficial" validate:"dive,required"`
}

// Document 知識庫檔案結構
type Document struct {
	Allergens            []AllergenRecord     `yaml:"allergens" validate:"required,min=1,dive"`
	Medications          []MedicationRecord   `yaml:"medications" validate:"dive"`
	MedicationCategories []MedicationCategory `yaml:"medication_categories" validate:"dive"`
	IngredientAliases    []IngredientAlias    `yaml:"ingredient_aliases" validate:"dive"`
	Nutrition            NutritionIndicators  `yaml:"nutrition"`
}

func (r AllergenRecord) clone() AllergenRecord {
	r.Synonyms = slices.Clone(r.Synonyms)
	r.HiddenAliases = slices.Clone(r.HiddenAliases)
	r.RelatedCategories = slices.Clone(r.RelatedCategories)
	r.Alternatives = slices.Clone(r.Alternatives)
	return r
}

func (r MedicationRecord) clone() MedicationRecord {
	r.Aliases = slices.Clone(r.Aliases)
	r.AvoidTerms = slices.Clone(r.AvoidTerms)
	r.CautionTerms = slices.Clone(r.CautionTerms)
	return r
}

func (c MedicationCategory) clone() MedicationCategory {
	c.Members = slices.Clone(c.Members)
	c.FoodInteractions = slices.Clone(c.FoodInteractions)
	return c
}

func (a IngredientAlias) clone() IngredientAlias {
	a.Aliases = slices.Clone(a.Aliases)
	return a
}

func (n NutritionIndicators) clone() NutritionIndicators {
	return NutritionIndicators{
		HighSodium: slices.Clone(n.HighSodium),
		HighSugar:  slices.Clone(n.HighSugar),
		Beneficial: slices.Clone(n.Beneficial),
	}
}
