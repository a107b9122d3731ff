package safety

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// IngredientList 正規化後的成分序列，保留原文順序與重複
type IngredientList []string

// String 以 ", " 串接，Parse 之後再次解析會得到相同序列
func (l IngredientList) String() string {
	return strings.Join(l, ", ")
}

var (
	parenPattern      = regexp.MustCompile(`\([^)]*\)`)
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]`)
	percentagePattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	// 標示用語，不是成分本身
	additivePattern = regexp.MustCompile(`\be\d{3,4}[a-z]?\b`)
	labelPattern    = regexp.MustCompile(`\b(?:preservatives?|antioxidants?|emulsifiers?|stabili[sz]ers?)\s*:`)
	warningPattern  = regexp.MustCompile(`\b(?:may\s+contain|contains|produced\s+in\s+(?:a\s+)?facility)\b`)
)

const (
	leadingTrimSet  = "0123456789.-*#•·: \t"
	trailingTrimSet = ".,;:!? \t"
)

func isSeparator(r rune) bool {
	switch r {
	case ',', ';', '|', '\n', '\r':
		return true
	}
	return false
}

// Parse 將原始成分文字正規化為成分序列
func Parse(raw string) IngredientList {
	text := strings.ToLower(raw)
	text = parenPattern.ReplaceAllString(text, " ")
	text = bracketPattern.ReplaceAllString(text, " ")
	text = percentagePattern.ReplaceAllString(text, " ")

	parts := strings.FieldsFunc(text, isSeparator)
	tokens := make(IngredientList, 0, len(parts))
	for _, part := range parts {
		if token := cleanToken(part); utf8.RuneCountInString(token) > 1 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// cleanToken 重複清理直到不再變化，確保再次解析結果相同
func cleanToken(s string) string {
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = additivePattern.ReplaceAllString(s, " ")
	s = labelPattern.ReplaceAllString(s, " ")
	s = warningPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, leadingTrimSet)
	s = strings.TrimRight(s, trailingTrimSet)
	return s
}
