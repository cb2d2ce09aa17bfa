package levels

import (
	"fmt"
	"math"
	"strings"
)

// Level is a named giving bracket. Max is informational; classification only uses Min.
type Level struct {
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"` // +Inf for the top tier
	Badge      string  `json:"badge"`
	StyleClass string  `json:"styleClass"`
}

// IsTop reports whether the level has no upper bound
func (l Level) IsTop() bool {
	return math.IsInf(l.Max, 1)
}

// RangeText renders the level's bracket, e.g. "$1,000 – $2,499" or "$50,000+"
func (l Level) RangeText() string {
	if l.IsTop() {
		return FormatCurrency(l.Min) + "+"
	}
	return FormatCurrency(l.Min) + " – " + FormatCurrency(l.Max)
}

// Table is a set of giving levels ordered by Min, highest first
type Table []Level

// Default is the chapter's giving level table
var Default = Table{
	{Slug: "chairmans-senate", Name: "The Chairman's Senate", Min: 50000, Max: math.Inf(1), Badge: "chairmans-senate.jpg", StyleClass: "level-chairmans"},
	{Slug: "passion-pact", Name: "The Passion Pact", Min: 25000, Max: 49999, Badge: "passion-pact.jpg", StyleClass: "level-passion"},
	{Slug: "founders-club", Name: "Founders Club", Min: 10000, Max: 24999, Badge: "founders-club.jpg", StyleClass: "level-founders"},
	{Slug: "the-1971-society", Name: "The 1971 Society", Min: 2500, Max: 9999, Badge: "the-1971-society.jpg", StyleClass: "level-1971"},
	{Slug: "ducal-crown-club", Name: "Ducal Crown Club", Min: 1000, Max: 2499, Badge: "ducal-crown-club.jpg", StyleClass: "level-ducal"},
	{Slug: "tipos-trust", Name: "TIPO's Trust", Min: 500, Max: 999, Badge: "tipos-trust.jpg", StyleClass: "level-tipos"},
	{Slug: "sigep-sam-club", Name: "SigEp Sam Club", Min: 200, Max: 499, Badge: "sigep-sam-club.jpg", StyleClass: "level-sigep-sam"},
	{Slug: "alpha-beta-club", Name: "Alpha/Beta Club", Min: 100, Max: 199, Badge: "alpha-beta-club.jpg", StyleClass: "level-alpha-beta"},
	{Slug: "red-door-club", Name: "Red Door Club", Min: 50, Max: 99, Badge: "red-door-club.jpg", StyleClass: "level-red-door"},
	{Slug: "sigma-circle", Name: "The Sigma Circle", Min: 1, Max: 49, Badge: "sigma-circle.jpg", StyleClass: "level-sigma"},
}

// Validate checks that levels are strictly descending by Min, the lowest
// starts above zero and only the first level is unbounded
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("level table is empty")
	}
	for i, l := range t {
		if i > 0 && l.Min >= t[i-1].Min {
			return fmt.Errorf("level %q must have a lower minimum than %q", l.Name, t[i-1].Name)
		}
		if i > 0 && l.IsTop() {
			return fmt.Errorf("only the top level may be unbounded, got %q", l.Name)
		}
	}
	if t[len(t)-1].Min <= 0 {
		return fmt.Errorf("lowest level %q must start above zero", t[len(t)-1].Name)
	}
	return nil
}

// LevelFor returns the level an amount falls in. Amounts <= 0 have no level;
// any positive amount below the lowest minimum belongs to the lowest level.
func (t Table) LevelFor(amount float64) (Level, bool) {
	if amount <= 0 || math.IsNaN(amount) || len(t) == 0 {
		return Level{}, false
	}
	for _, l := range t {
		if amount >= l.Min {
			return l, true
		}
	}
	return t[len(t)-1], true
}

// NextLevelFor returns the closest level whose minimum is above amount.
// Amounts <= 0 target the lowest level; amounts at the top level have no next level.
func (t Table) NextLevelFor(amount float64) (Level, bool) {
	if len(t) == 0 {
		return Level{}, false
	}
	if amount <= 0 || math.IsNaN(amount) {
		return t[len(t)-1], true
	}
	// A positive amount is already in the lowest level
	for i := len(t) - 2; i >= 0; i-- {
		if amount < t[i].Min {
			return t[i], true
		}
	}
	return Level{}, false
}

// BySlug finds a level by its slug (case-insensitive)
func (t Table) BySlug(slug string) (Level, bool) {
	for _, l := range t {
		if strings.EqualFold(l.Slug, slug) {
			return l, true
		}
	}
	return Level{}, false
}

// ByName finds a level by its display name (case-insensitive)
func (t Table) ByName(name string) (Level, bool) {
	name = strings.TrimSpace(name)
	for _, l := range t {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Level{}, false
}

// Lowest returns the entry level
func (t Table) Lowest() Level {
	return t[len(t)-1]
}

// Top returns the highest level
func (t Table) Top() Level {
	return t[0]
}

// Progress describes where an amount sits relative to its level and the next one
type Progress struct {
	Current    *Level  `json:"current,omitempty"`
	Next       *Level  `json:"next,omitempty"`
	Remaining  float64 `json:"remaining"`
	Percent    float64 `json:"percent"`
	TopReached bool    `json:"topReached"`
}

// minProgressPercent keeps a sliver of the bar visible just after a level is reached
const minProgressPercent = 2

// ProgressFor computes level progress for an amount
func (t Table) ProgressFor(amount float64) Progress {
	var p Progress

	current, hasCurrent := t.LevelFor(amount)
	next, hasNext := t.NextLevelFor(amount)

	if hasCurrent {
		p.Current = &current
	}
	if hasNext {
		p.Next = &next
		p.Remaining = next.Min - math.Max(amount, 0)
	}
	if hasCurrent && !hasNext {
		p.TopReached = true
		p.Percent = 100
	}
	if hasCurrent && hasNext {
		pct := (amount - current.Min) / (next.Min - current.Min) * 100
		p.Percent = math.Min(math.Max(pct, minProgressPercent), 100)
	}

	return p
}
