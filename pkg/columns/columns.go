package columns

import (
	"errors"
	"fmt"
)

// ErrInvalidColumnIndex is returned when a computed column index is not positive
var ErrInvalidColumnIndex = errors.New("invalid column index")

// LetterFor converts a 1-based column index to its spreadsheet letter address
// (1 -> "A", 26 -> "Z", 27 -> "AA", 101 -> "CW")
func LetterFor(index int) (string, error) {
	if index <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumnIndex, index)
	}

	var buf []byte
	for n := index; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}

	// Digits were produced least significant first
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

// IndexFor converts a column letter address back to its 1-based index
func IndexFor(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column address", ErrInvalidColumnIndex)
	}

	index := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: %q is not a column address", ErrInvalidColumnIndex, letters)
		}
		index = index*26 + int(r-'A'+1)
	}

	return index, nil
}

// YearLayout describes where per-year donation columns live in the member sheet.
// Each year occupies Step columns starting at BaseColumn for BaseYear.
type YearLayout struct {
	BaseYear   int
	BaseColumn int
	Step       int
}

// Column returns the column letter holding donations for the given year.
// Years before BaseYear land to the left of BaseColumn.
func (l YearLayout) Column(year int) (string, error) {
	letter, err := LetterFor(l.BaseColumn + (year-l.BaseYear)*l.Step)
	if err != nil {
		return "", fmt.Errorf("no column for year %d: %w", year, err)
	}
	return letter, nil
}
