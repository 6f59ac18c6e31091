package present

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	absentCell = "-"
	ellipsis   = "…"
)

// printer gives locale-aware thousands separators. Locale is fixed to
// English; the separators themselves are what matter downstream.
var printer = message.NewPrinter(language.English)

// isoDateTimePattern matches ISO-8601-like date-time strings carrying a
// zone, e.g. 2024-03-01T15:04:05Z or 2024-03-01T15:04:05.123+02:00.
var isoDateTimePattern = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|z|[+-]\d{2}:?\d{2})$`)

// Currency detection, like the class markers below, matches on a
// contains basis, case-insensitive.
func isCurrencyColumn(name string) bool {
	lowered := strings.ToLower(name)
	return strings.Contains(lowered, "price") || strings.Contains(lowered, "salary")
}

// columnClass returns the semantic class for downstream styling. Computed
// once per column, applied to every cell in it.
func columnClass(name string) string {
	lowered := strings.ToLower(name)
	switch {
	case strings.Contains(lowered, "price"),
		strings.Contains(lowered, "salary"),
		strings.Contains(lowered, "amount"):
		return "currency"
	case strings.Contains(lowered, "date"), strings.Contains(lowered, "time"):
		return "date"
	case strings.Contains(lowered, "id"):
		return "id"
	default:
		return ""
	}
}

// headerLabel derives a display header: underscores become spaces and
// each word is capitalized ("created_at" -> "Created At").
func headerLabel(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// formatCell applies the per-value rules in priority order: absent, date
// string, currency number, long string, plain stringification. It never
// fails; unparseable dates pass through verbatim.
func formatCell(column string, value any) string {
	if value == nil {
		return absentCell
	}
	if text, ok := value.(string); ok {
		if isoDateTimePattern.MatchString(text) {
			if formatted, ok := formatLocaleDate(text); ok {
				return formatted
			}
		}
		return truncateRunes(text, maxCellRunes)
	}
	if number, ok := asFloat(value); ok {
		if isCurrencyColumn(column) {
			return printer.Sprintf("$%.2f", number)
		}
		return formatScalar(value)
	}
	return fmt.Sprint(value)
}

// formatLocaleDate reformats an ISO date-time string as a locale date.
func formatLocaleDate(text string) (string, bool) {
	normalized := strings.Replace(text, " ", "T", 1)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if parsed, err := time.Parse(layout, normalized); err == nil {
			return parsed.Format("Jan 2, 2006"), true
		}
	}
	return "", false
}

// formatCount renders an integer count with locale separators.
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatLocaleScalar renders a scalar aggregation value: numbers with
// locale separators, strings verbatim, anything else stringified.
func formatLocaleScalar(value any) string {
	if value == nil {
		return absentCell
	}
	if number, ok := asFloat(value); ok {
		if number == math.Trunc(number) && math.Abs(number) < 1e15 {
			return printer.Sprintf("%d", int64(number))
		}
		return printer.Sprintf("%.2f", number)
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

// formatScalar renders a value without locale decoration, collapsing
// integral floats so JSON-decoded IDs print as "1", not "1e+00".
func formatScalar(value any) string {
	if value == nil {
		return absentCell
	}
	if number, ok := asFloat(value); ok {
		if number == math.Trunc(number) && math.Abs(number) < 1e15 {
			return fmt.Sprintf("%d", int64(number))
		}
		return fmt.Sprintf("%v", number)
	}
	return fmt.Sprint(value)
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// truncateRunes caps a string at limit runes, appending an ellipsis when
// anything was cut.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}
