package sheetsclient

import (
	"fmt"
	"strings"
)

// ColumnRange addresses a whole column from the header row down, e.g. Master!E1:E
func ColumnRange(sheet, column string) string {
	return fmt.Sprintf("%s!%s1:%s", quoteSheet(sheet), column, column)
}

// CellRange addresses a cell or block within a sheet, e.g. Summary!J2 or Summary!A7:A33
func CellRange(sheet, cells string) string {
	return fmt.Sprintf("%s!%s", quoteSheet(sheet), cells)
}

// quoteSheet quotes sheet names that contain anything but letters, digits and underscores
func quoteSheet(sheet string) string {
	simple := true
	for _, r := range sheet {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			simple = false
			break
		}
	}
	if simple && sheet != "" {
		return sheet
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
