package safety

import (
	"fmt"
	"strings"

	"allergen-scanner/internal/core/knowledge"
)

// Findings 各比對階段的輸出
type Findings struct {
	Ingredients IngredientList
	Allergens   AllergenResult
	Hidden      []Match
	Medications MedicationResult
	Insights    NutritionInsights
}

// Aggregator 合併比對結果為單一風險評估
type Aggregator struct {
	kb *knowledge.KnowledgeBase
}

// NewAggregator 創建風險彙整器
func NewAggregator(kb *knowledge.KnowledgeBase) *Aggregator {
	return &Aggregator{kb: kb}
}

var tierTemplates = map[RiskLevel][]string{
	RiskHigh: {
		"DO NOT CONSUME this product.",
		"It contains ingredients that are high risk for your allergies or medications.",
		"Contact your doctor or pharmacist before consuming; seek medical attention if you have already consumed it.",
		"Keep your emergency medication (such as an epinephrine auto-injector) readily available.",
	},
	RiskModerate: {
		"CAUTION: this product may trigger a reaction or interact with your medications.",
		"Read the full ingredient list carefully before consuming.",
		"Monitor for symptoms and consider consulting your healthcare provider.",
	},
	RiskLow: {
		"Low risk detected: proceed with care.",
		"Monitor for any unusual reactions.",
	},
	RiskSafe: {
		"No known allergens or medication interactions detected.",
		"This product appears safe for your profile; formulations change, so re-check labels.",
	},
	RiskUnknown: {
		"Risk could not be determined.",
	},
}

// Aggregate 計算整體風險並產生建議（空集合是合法的最終狀態）
func (a *Aggregator) Aggregate(f Findings, profile HealthProfile) Assessment {
	out := Assessment{
		Ingredients:                nonNil(f.Ingredients),
		AllergenMatches:            nonNilMatches(f.Allergens.Matches),
		HiddenMatches:              nonNilMatches(f.Hidden),
		MedicationMatches:          nonNilMatches(f.Medications.Matches),
		CrossContaminationMatches:  nonNilMatches(f.Allergens.CrossContamination),
		CrossContaminationWarnings: nonNilStrings(f.Allergens.CrossContaminationWarnings),
		TimingNotes:                f.Medications.TimingNotes,
		Insights: NutritionInsights{
			HighSodium: nonNilStrings(f.Insights.HighSodium),
			HighSugar:  nonNilStrings(f.Insights.HighSugar),
			Beneficial: nonNilStrings(f.Insights.Beneficial),
		},
		Diagnostics: make([]Diagnostic, 0),
	}
	if out.TimingNotes == nil {
		out.TimingNotes = []TimingNote{}
	}

	if len(out.Ingredients) == 0 {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Kind:    DiagnosticEmptyInput,
			Message: "no ingredients could be parsed from the input",
		})
	}
	for _, allergy := range f.Allergens.Unresolved {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Kind:    DiagnosticUnknownAllergy,
			Subject: allergy,
			Message: fmt.Sprintf("allergy %q is not in the knowledge base", allergy),
		})
	}
	for _, medication := range f.Medications.Unresolved {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Kind:    DiagnosticUnknownMedication,
			Subject: medication,
			Message: fmt.Sprintf("medication %q is not in the knowledge base", medication),
		})
	}

	out.OverallLevel = a.overallLevel(out, profile)
	out.Recommendations = a.recommendations(out, profile)
	return out
}

func (a *Aggregator) overallLevel(out Assessment, profile HealthProfile) RiskLevel {
	if !profile.HasRiskFactors() || len(out.Ingredients) == 0 {
		return RiskUnknown
	}

	level := RiskSafe
	for _, group := range [][]Match{out.AllergenMatches, out.HiddenMatches, out.MedicationMatches} {
		for _, m := range group {
			if l := levelFor(m.Severity); l.Rank() > level.Rank() {
				level = l
			}
		}
	}
	if len(out.CrossContaminationWarnings) > 0 && level.Rank() < RiskLow.Rank() {
		level = RiskLow
	}
	return level
}

func (a *Aggregator) recommendations(out Assessment, profile HealthProfile) []string {
	recs := make([]string, 0, 8)

	switch {
	case !profile.HasRiskFactors():
		recs = append(recs, "No allergies or medications declared; add them to your profile for a personalised check.")
	case out.HasDiagnostic(DiagnosticEmptyInput):
		recs = append(recs, "No ingredients could be read; please provide the ingredient list or check the label manually.")
	default:
		recs = append(recs, tierTemplates[out.OverallLevel]...)
	}

	categories := detectedCategories(out)
	if len(categories) > 0 {
		recs = append(recs, "Detected allergens: "+strings.Join(categories, ", "))
	}
	for _, m := range out.MedicationMatches {
		subject := m.Subject
		if m.Via != "" && m.Via != m.Subject {
			subject = fmt.Sprintf("%s (%s)", m.Subject, m.Via)
		}
		recs = append(recs, fmt.Sprintf("Medication interaction: %s + %s (%s, %s)", subject, m.Ingredient, m.Kind, m.Severity))
	}
	recs = append(recs, out.CrossContaminationWarnings...)
	for _, m := range out.HiddenMatches {
		recs = append(recs, "Hidden allergen: "+m.Label)
	}
	for _, t := range out.TimingNotes {
		recs = append(recs, fmt.Sprintf("Timing for %s: %s", t.Medication, t.Note))
	}

	if out.OverallLevel == RiskHigh || out.OverallLevel == RiskModerate {
		if alts := a.alternatives(categories); len(alts) > 0 {
			recs = append(recs, "Consider these alternatives: "+strings.Join(alts, ", "))
		}
	}

	if len(out.Insights.HighSodium) > 0 {
		recs = append(recs, "High sodium ingredients: "+strings.Join(out.Insights.HighSodium, ", "))
	}
	if len(out.Insights.HighSugar) > 0 {
		recs = append(recs, "High sugar ingredients: "+strings.Join(out.Insights.HighSugar, ", "))
	}
	if len(out.Insights.Beneficial) > 0 {
		recs = append(recs, "Contains beneficial ingredients: "+strings.Join(out.Insights.Beneficial, ", "))
	}

	for _, d := range out.Diagnostics {
		if d.Kind == DiagnosticUnknownAllergy || d.Kind == DiagnosticUnknownMedication {
			recs = append(recs, fmt.Sprintf("Not checked (unknown to the knowledge base): %s", d.Subject))
		}
	}

	return recs
}

func (a *Aggregator) alternatives(categories []string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, category := range categories {
		rec, ok := a.kb.Allergen(category)
		if !ok {
			continue
		}
		for _, alt := range rec.Alternatives {
			if _, dup := seen[alt]; dup {
				continue
			}
			seen[alt] = struct{}{}
			out = append(out, alt)
		}
	}
	return out
}

func detectedCategories(out Assessment) []string {
	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, group := range [][]Match{out.AllergenMatches, out.HiddenMatches} {
		for _, m := range group {
			if _, dup := seen[m.Subject]; dup {
				continue
			}
			seen[m.Subject] = struct{}{}
			categories = append(categories, m.Subject)
		}
	}
	return categories
}

func nonNil(l IngredientList) IngredientList {
	if l == nil {
		return IngredientList{}
	}
	return l
}

func nonNilMatches(m []Match) []Match {
	if m == nil {
		return []Match{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
