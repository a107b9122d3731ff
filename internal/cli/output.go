package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/pkg/common"
)

// Exit codes
const (
	ExitSuccess      = 0 // 成功
	ExitFailure      = 1 // 風險達到 --fail-on 門檻
	ExitCommandError = 2 // 參數錯誤、知識庫或查詢失敗
)

// ExitError 帶有結束代碼的錯誤
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError 建立 ExitError
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError 包裝既有錯誤並指定結束代碼
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode 取得錯誤對應的結束代碼，非 ExitError 時為 ExitFailure
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter 處理 JSON 與文字輸出
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// JSON 以縮排 JSON 輸出
func (f *OutputFormatter) JSON(v interface{}) error {
	out, err := common.ToIndentJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.Writer, out)
	return err
}

// VerboseLog 僅在 --verbose 時輸出到 stderr
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Assessment 輸出風險評估
func (f *OutputFormatter) Assessment(a safety.Assessment) error {
	if f.Format == "json" {
		return f.JSON(a)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overall risk: %s\n", strings.ToUpper(string(a.OverallLevel)))
	fmt.Fprintf(&b, "Ingredients (%d): %s\n", len(a.Ingredients), a.Ingredients.String())

	writeMatches(&b, "Allergens", a.AllergenMatches)
	writeMatches(&b, "Hidden allergens", a.HiddenMatches)
	writeMatches(&b, "Medication interactions", a.MedicationMatches)

	if len(a.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range a.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	_, err := io.WriteString(f.Writer, b.String())
	return err
}

func writeMatches(b *strings.Builder, title string, matches []safety.Match) {
	if len(matches) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, m := range matches {
		fmt.Fprintf(b, "  [%s] %s: %s (%s via %q)\n", m.Severity, m.Subject, m.Ingredient, m.Kind, m.MatchedTerm)
	}
}
