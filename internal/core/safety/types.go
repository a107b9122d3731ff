package safety

import (
	"slices"

	"allergen-scanner/internal/core/knowledge"
)

// HealthProfile 使用者健康檔案，核心只讀不寫
type HealthProfile struct {
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	Conditions  []string `json:"conditions,omitempty"`
}

// Normalize 轉小寫、去除空白與重複，並排序（集合語意）
func (p HealthProfile) Normalize() HealthProfile {
	return HealthProfile{
		Allergies:   normalizeSet(p.Allergies),
		Medications: normalizeSet(p.Medications),
		Conditions:  normalizeSet(p.Conditions),
	}
}

// HasRiskFactors 是否宣告了任何過敏或用藥
func (p HealthProfile) HasRiskFactors() bool {
	for _, a := range p.Allergies {
		if knowledge.NormalizeTerm(a) != "" {
			return true
		}
	}
	for _, m := range p.Medications {
		if knowledge.NormalizeTerm(m) != "" {
			return true
		}
	}
	return false
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = knowledge.NormalizeTerm(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// InteractionKind 比對類型
type InteractionKind string

const (
	KindDirect             InteractionKind = "direct"
	KindHidden             InteractionKind = "hidden"
	KindAvoid              InteractionKind = "avoid"
	KindCaution            InteractionKind = "caution"
	KindCrossContamination InteractionKind = "cross_contamination"
)

// RiskLevel 整體風險等級
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "unknown"
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Rank unknown 為 -1，safe 為 0，其餘依嚴重程度
func (l RiskLevel) Rank() int {
	switch l {
	case RiskSafe:
		return 0
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	default:
		return -1
	}
}

func levelFor(sev knowledge.Severity) RiskLevel {
	switch sev {
	case knowledge.SeverityHigh:
		return RiskHigh
	case knowledge.SeverityModerate:
		return RiskModerate
	case knowledge.SeverityLow:
		return RiskLow
	default:
		return RiskSafe
	}
}

// Match 單一比對結果
type Match struct {
	// Subject 過敏原類別或藥物名稱（類別比對時為藥物類別名稱）
	Subject     string             `json:"subject"`
	MatchedTerm string             `json:"matched_term"`
	Ingredient  string             `json:"ingredient"`
	Kind        InteractionKind    `json:"interaction_kind"`
	Severity    knowledge.Severity `json:"severity"`
	// Via 使用者宣告的原始藥物字串
	Via   string `json:"via,omitempty"`
	Label string `json:"label,omitempty"`
}

type matchKey struct {
	subject    string
	ingredient string
	kind       InteractionKind
}

func (m Match) key() matchKey {
	return matchKey{subject: m.Subject, ingredient: m.Ingredient, kind: m.Kind}
}

// TimingNote 服藥時間建議
type TimingNote struct {
	Medication string `json:"medication"`
	Note       string `json:"note"`
}

// DiagnosticKind 診斷類型
type DiagnosticKind string

const (
	DiagnosticEmptyInput        DiagnosticKind = "empty_input"
	DiagnosticUnknownAllergy    DiagnosticKind = "unknown_allergy"
	DiagnosticUnknownMedication DiagnosticKind = "unknown_medication"
)

// Diagnostic 非致命的診斷訊息，不計入風險
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Subject string         `json:"subject,omitempty"`
	Message string         `json:"message"`
}

// NutritionInsights 營養提示，僅供參考，不影響風險等級
type NutritionInsights struct {
	HighSodium []string `json:"high_sodium"`
	HighSugar  []string `json:"high_sugar"`
	Beneficial []string `json:"beneficial"`
}

// Assessment 風險評估結果
type Assessment struct {
	OverallLevel               RiskLevel         `json:"overall_level"`
	Ingredients                IngredientList    `json:"ingredients"`
	AllergenMatches            []Match           `json:"allergen_matches"`
	HiddenMatches              []Match           `json:"hidden_matches"`
	MedicationMatches          []Match           `json:"medication_matches"`
	CrossContaminationMatches  []Match           `json:"cross_contamination_matches"`
	CrossContaminationWarnings []string          `json:"cross_contamination_warnings"`
	TimingNotes                []TimingNote      `json:"timing_notes"`
	Insights                   NutritionInsights `json:"insights"`
	Recommendations            []string          `json:"recommendations"`
	Diagnostics                []Diagnostic      `json:"diagnostics"`
}

// HasDiagnostic 是否含有指定類型的診斷
func (a Assessment) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range a.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// matchSet 依 (subject, ingredient, kind) 去重並保留先出現的順序
type matchSet struct {
	seen  map[matchKey]struct{}
	items []Match
}

func newMatchSet() *matchSet {
	return &matchSet{seen: make(map[matchKey]struct{}), items: []Match{}}
}

func (s *matchSet) add(m Match) bool {
	k := m.key()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, m)
	return true
}

func (s *matchSet) list() []Match {
	return s.items
}
