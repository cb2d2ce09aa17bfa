package services

import (
	"strings"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
)

// DonorStatus summarizes recent giving
type DonorStatus string

const (
	DonorStatusDeceased DonorStatus = "deceased"
	DonorStatusCurrent  DonorStatus = "current"
	DonorStatusPrevious DonorStatus = "previous"
	DonorStatusLapsed   DonorStatus = "lapsed"
	DonorStatusNone     DonorStatus = "none"
)

// MemberProfile is everything shown for one member
type MemberProfile struct {
	Member    model.Member    `json:"member"`
	Progress  levels.Progress `json:"progress"`
	Status    DonorStatus     `json:"status"`
	NameStyle string          `json:"nameStyle,omitempty"`
	// TotalText is the formatted lifetime total, e.g. "$1,250"
	TotalText string `json:"totalText"`
}

// Profile builds the profile for m against table
func Profile(m model.Member, table levels.Table) MemberProfile {
	p := MemberProfile{
		Member:    m,
		Progress:  table.ProgressFor(m.TotalDonations),
		Status:    StatusFor(m),
		NameStyle: NameStyle(m),
		TotalText: levels.FormatCurrency(m.TotalDonations),
	}

	// Members with no giving see the entry level as a target but no distance to it
	if m.TotalDonations <= 0 {
		p.Progress.Remaining = 0
	}
	return p
}

// StatusFor classifies recent giving; deceased wins over any giving flag
func StatusFor(m model.Member) DonorStatus {
	switch {
	case m.IsDeceased:
		return DonorStatusDeceased
	case m.IsCurrentYearDonor:
		return DonorStatusCurrent
	case m.IsPreviousYearDonor:
		return DonorStatusPrevious
	case m.TotalDonations > 0:
		return DonorStatusLapsed
	default:
		return DonorStatusNone
	}
}

// NameStyle returns the display class for a member's name
func NameStyle(m model.Member) string {
	switch {
	case m.IsDeceased:
		return "deceased"
	case m.IsCurrentYearDonor:
		return "current-year-donor"
	case m.IsPreviousYearDonor:
		return "previous-year-donor"
	default:
		return ""
	}
}

// FindByRoll looks a member up by short or full roll number
func FindByRoll(members []model.Member, roll string) (model.Member, bool) {
	roll = strings.TrimSpace(roll)
	if roll == "" {
		return model.Member{}, false
	}
	for _, m := range members {
		if m.RollShort == roll || strings.EqualFold(m.RollFull, roll) {
			return m, true
		}
	}
	return model.Member{}, false
}
