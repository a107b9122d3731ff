package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want IngredientList
	}{
		{
			name: "label with annotations",
			raw:  "Water, Sugar (cane), 2% Salt; [organic] Peanuts.",
			want: IngredientList{"water", "sugar", "salt", "peanuts"},
		},
		{
			name: "numbered lines",
			raw:  "1. Flour\n2. Whole Milk\r\n3 - Eggs",
			want: IngredientList{"flour", "whole milk", "eggs"},
		},
		{
			name: "pipes and bullets",
			raw:  "• Cocoa Butter | * Soy Lecithin | 12.5% hazelnuts",
			want: IngredientList{"cocoa butter", "soy lecithin", "hazelnuts"},
		},
		{
			name: "duplicates preserved in order",
			raw:  "salt, pepper, salt",
			want: IngredientList{"salt", "pepper", "salt"},
		},
		{
			name: "single character tokens dropped",
			raw:  "a, b, ok",
			want: IngredientList{"ok"},
		},
		{
			name: "additive codes and label words",
			raw:  "Emulsifier: E322, Preservative: Sodium Benzoate (E211), colour e150d, acid E330",
			want: IngredientList{"sodium benzoate", "colour", "acid"},
		},
		{
			name: "allergen statements",
			raw:  "Sugar, Cocoa, Contains: Milk; May contain traces of Hazelnuts | produced in a facility with peanuts",
			want: IngredientList{"sugar", "cocoa", "milk", "traces of hazelnuts", "with peanuts"},
		},
		{
			name: "empty",
			raw:  "",
			want: IngredientList{},
		},
		{
			name: "separators only",
			raw:  " , ;; | \n",
			want: IngredientList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		"Water, Sugar (cane), 2% Salt; [organic] Peanuts.",
		"  MILK ,, eggs;wheat flour (enriched [niacin, iron]) ",
		"1. Flour\n2. Whole Milk",
		"Emulsifier: E322, Preservative: Sodium Benzoate (E211), colour e150d",
		"contains contains milk, may may contain contain nuts, 1contains soy",
		"Contains: Milk; May contain traces of Hazelnuts",
		"",
	}
	for _, raw := range inputs {
		once := Parse(raw)
		assert.Equal(t, once, Parse(once.String()), raw)
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	assert.Equal(t, Parse("peanut oil, sugar"), Parse("PEANUT OIL, Sugar"))
}
