package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)

	moneyReplacer = strings.NewReplacer("$", "", ",", "")
)

// Column flattens a single-column value range into one cell per row.
// Rows the API returned empty come back as nil.
func Column(values [][]interface{}) []interface{} {
	cells := make([]interface{}, len(values))
	for i, row := range values {
		if len(row) > 0 {
			cells[i] = row[0]
		}
	}
	return cells
}

// FirstCell returns the top-left cell of a value range, or nil when the range is empty
func FirstCell(values [][]interface{}) interface{} {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil
	}
	return values[0][0]
}

// cellAt returns the cell at index i, treating positions past the end as empty
func cellAt(cells []interface{}, i int) interface{} {
	if i < 0 || i >= len(cells) {
		return nil
	}
	return cells[i]
}

// CellString renders a raw cell value as trimmed text
func CellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// ParseAmount coerces a currency cell such as "$1,250.50" to a float.
// Anything that does not start with a number parses as 0.
func ParseAmount(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return val
	case int:
		return float64(val)
	}

	s := strings.TrimSpace(moneyReplacer.Replace(CellString(v)))
	match := leadingFloat.FindString(s)
	if match == "" {
		return 0
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseCount coerces a count cell such as "1,204" to an integer, defaulting to 0
func ParseCount(v interface{}) int {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return int(val)
	case int:
		return val
	}

	s := strings.ReplaceAll(CellString(v), ",", "")
	match := leadingInt.FindString(s)
	if match == "" {
		return 0
	}

	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
