package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// staleNotice describes a stale load, or "" when the data is current
func staleNotice(state *services.State) string {
	if !state.Stale {
		return ""
	}
	if state.CacheDate.IsZero() {
		return "⚠️  Showing cached data (the spreadsheet could not be reached)"
	}
	return fmt.Sprintf("⚠️  Showing cached data from %s (the spreadsheet could not be reached)",
		state.CacheDate.Format("Jan 02, 2006 15:04"))
}

// progressBar renders percent (0-100) as a fixed-width bar
func progressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(percent / 100 * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func levelName(l *levels.Level) string {
	if l == nil {
		return "-"
	}
	return l.Name
}

// memberLine is the one-line listing used by search and level views
func memberLine(m model.Member, table levels.Table) string {
	name := m.FullName
	switch services.StatusFor(m) {
	case services.DonorStatusCurrent:
		name = colorGreen + name + colorReset
	case services.DonorStatusPrevious:
		name = colorYellow + name + colorReset
	case services.DonorStatusDeceased:
		name = colorDim + name + " (deceased)" + colorReset
	}

	level := "-"
	if l, ok := table.LevelFor(m.TotalDonations); ok {
		level = l.Name
	}
	return fmt.Sprintf("%s  #%s  %s  %s", name, m.RollShort, levels.FormatCurrency(m.TotalDonations), level)
}
