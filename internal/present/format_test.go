package present

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderLabel(t *testing.T) {
	cases := map[string]string{
		"created_at":    "Created At",
		"name":          "Name",
		"order_item_id": "Order Item Id",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, headerLabel(in), in)
	}
}

func TestColumnClass(t *testing.T) {
	cases := map[string]string{
		"base_salary":  "currency",
		"unit_price":   "currency",
		"total_amount": "currency",
		"hire_date":    "date",
		"updated_time": "date",
		"user_id":      "id",
		"name":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, columnClass(in), in)
	}
}

func TestFormatCellNil(t *testing.T) {
	assert.Equal(t, "-", formatCell("anything", nil))
}

func TestFormatCellCurrency(t *testing.T) {
	assert.Equal(t, "$87,234.50", formatCell("salary", float64(87234.5)))
	assert.Equal(t, "$1,000.00", formatCell("unit_price", float64(1000)))
	// Numbers outside currency columns stay plain.
	assert.Equal(t, "42", formatCell("age", float64(42)))
}

func TestFormatCellDates(t *testing.T) {
	assert.Equal(t, "Mar 1, 2024", formatCell("hire_date", "2024-03-01T10:00:00Z"))
	assert.Equal(t, "Mar 1, 2024", formatCell("hire_date", "2024-03-01T10:00:00.250+02:00"))
	// Date-only strings and junk pass through verbatim, never panic.
	assert.Equal(t, "2024-03-01", formatCell("hire_date", "2024-03-01"))
	assert.Equal(t, "2024-99-99T99:99:99Z", formatCell("hire_date", "2024-99-99T99:99:99Z"))
}

func TestFormatCellTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := formatCell("note", long)
	assert.Equal(t, strings.Repeat("a", 50)+"…", got)

	exact := strings.Repeat("b", 50)
	assert.Equal(t, exact, formatCell("note", exact))
}

func TestFormatCellBoolean(t *testing.T) {
	assert.Equal(t, "true", formatCell("active", true))
}

func TestFormatLocaleScalar(t *testing.T) {
	assert.Equal(t, "1,234,567", formatLocaleScalar(float64(1234567)))
	assert.Equal(t, "4.50", formatLocaleScalar(4.5))
	assert.Equal(t, "pending", formatLocaleScalar("pending"))
	assert.Equal(t, "-", formatLocaleScalar(nil))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "5", formatCount(5))
	assert.Equal(t, "12,000", formatCount(12000))
}

func TestTruncateRunesIsRuneAware(t *testing.T) {
	text := strings.Repeat("é", 60)
	got := truncateRunes(text, 50)
	assert.Equal(t, strings.Repeat("é", 50)+"…", got)
}
