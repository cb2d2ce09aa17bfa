package normalize

import (
	"strings"

	"github.com/mitheta/moneyclub/pkg/core/model"
)

// Options controls how member rows are interpreted
type Options struct {
	// DeceasedMarker is the suffix on a first or last name that marks a member deceased
	DeceasedMarker string
	// DeceasedDesignations are designation values (case-insensitive) that mark a member deceased
	DeceasedDesignations []string
	// EligibleDesignations restricts rows to these designations when non-empty
	EligibleDesignations []string
	// RollPrefix is the chapter prefix stripped when building the short roll number
	RollPrefix string
}

// DefaultOptions returns the chapter's sheet conventions
func DefaultOptions() Options {
	return Options{
		DeceasedMarker:       "**",
		DeceasedDesignations: []string{"deceased", "d"},
		RollPrefix:           "214-",
	}
}

// MemberColumns holds the raw member sheet columns, aligned by row.
// Row 0 of each column is the header row.
type MemberColumns struct {
	Designation    []interface{}
	Roll           []interface{}
	FirstName      []interface{}
	LastName       []interface{}
	TotalDonations []interface{}
	CurrentYear    []interface{}
	PreviousYear   []interface{}
	Decade         []interface{}
}

func (c MemberColumns) rowCount() int {
	n := 0
	for _, col := range [][]interface{}{
		c.Designation, c.Roll, c.FirstName, c.LastName,
		c.TotalDonations, c.CurrentYear, c.PreviousYear, c.Decade,
	} {
		if len(col) > n {
			n = len(col)
		}
	}
	return n
}

// Members converts raw member columns into normalized member records.
// Rows without a first or last name are dropped.
func Members(cols MemberColumns, opts Options) []model.Member {
	rows := cols.rowCount()
	if rows <= 1 {
		return []model.Member{}
	}

	deceased := toSet(opts.DeceasedDesignations)
	eligible := toSet(opts.EligibleDesignations)

	members := make([]model.Member, 0, rows-1)
	for i := 1; i < rows; i++ {
		designation := strings.ToLower(CellString(cellAt(cols.Designation, i)))
		if len(eligible) > 0 && !eligible[designation] {
			continue
		}

		firstName := CellString(cellAt(cols.FirstName, i))
		lastName := CellString(cellAt(cols.LastName, i))
		if firstName == "" && lastName == "" {
			continue
		}

		firstName, firstMarked := stripMarker(firstName, opts.DeceasedMarker)
		lastName, lastMarked := stripMarker(lastName, opts.DeceasedMarker)
		if firstName == "" && lastName == "" {
			continue
		}

		total := ParseAmount(cellAt(cols.TotalDonations, i))
		if total < 0 {
			total = 0
		}

		roll := CellString(cellAt(cols.Roll, i))

		members = append(members, model.Member{
			FirstName:           firstName,
			LastName:            lastName,
			FullName:            strings.TrimSpace(firstName + " " + lastName),
			RollFull:            roll,
			RollShort:           ShortRoll(roll, opts.RollPrefix),
			TotalDonations:      total,
			IsDeceased:          firstMarked || lastMarked || deceased[designation],
			IsCurrentYearDonor:  ParseAmount(cellAt(cols.CurrentYear, i)) > 0,
			IsPreviousYearDonor: ParseAmount(cellAt(cols.PreviousYear, i)) > 0,
			Decade:              CellString(cellAt(cols.Decade, i)),
		})
	}

	return members
}

// ShortRoll strips the chapter prefix (and the zero padding after it) and
// any separators from a roll number: "214-0123" -> "123", "12-34" -> "1234"
func ShortRoll(roll, prefix string) string {
	s := strings.TrimSpace(roll)
	if prefix != "" && len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		s = strings.TrimLeft(s[len(prefix):], "0")
	}
	return strings.ReplaceAll(s, "-", "")
}

// stripMarker removes a trailing marker from a name and reports whether it was present
func stripMarker(name, marker string) (string, bool) {
	if marker == "" || !strings.HasSuffix(name, marker) {
		return name, false
	}
	return strings.TrimSpace(strings.TrimSuffix(name, marker)), true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}
