package services

import (
	"math"
	"sort"
	"strings"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
)

// DefaultTopDonors is the size of the top donors board
const DefaultTopDonors = 10

// RankedDonor is one row of the top donors board
type RankedDonor struct {
	Rank   int           `json:"rank"`
	Member model.Member  `json:"member"`
	Level  *levels.Level `json:"level,omitempty"`
}

// TopDonors returns the n largest donors, largest first. n <= 0 uses DefaultTopDonors.
func TopDonors(members []model.Member, table levels.Table, n int) []RankedDonor {
	if n <= 0 {
		n = DefaultTopDonors
	}

	donors := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.TotalDonations > 0 {
			donors = append(donors, m)
		}
	}
	sort.SliceStable(donors, func(i, j int) bool {
		return donors[i].TotalDonations > donors[j].TotalDonations
	})
	if len(donors) > n {
		donors = donors[:n]
	}

	ranked := make([]RankedDonor, len(donors))
	for i, m := range donors {
		ranked[i] = RankedDonor{Rank: i + 1, Member: m}
		if l, ok := table.LevelFor(m.TotalDonations); ok {
			ranked[i].Level = &l
		}
	}
	return ranked
}

// MembersAtLevel returns members whose total falls in level, sorted by last name
func MembersAtLevel(members []model.Member, table levels.Table, level levels.Level) []model.Member {
	out := make([]model.Member, 0)
	for _, m := range members {
		if l, ok := table.LevelFor(m.TotalDonations); ok && l.Slug == level.Slug {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].LastName) < strings.ToLower(out[j].LastName)
	})
	return out
}

// LevelSummary is a level with the number of members in it
type LevelSummary struct {
	Index int          `json:"index"`
	Level levels.Level `json:"level"`
	Count int          `json:"count"`
}

// LevelSummaries counts members per level, in table order
func LevelSummaries(members []model.Member, table levels.Table) []LevelSummary {
	counts := make(map[string]int, len(table))
	for _, m := range members {
		if l, ok := table.LevelFor(m.TotalDonations); ok {
			counts[l.Slug]++
		}
	}

	summaries := make([]LevelSummary, len(table))
	for i, l := range table {
		summaries[i] = LevelSummary{Index: i, Level: l, Count: counts[l.Slug]}
	}
	return summaries
}

// DecadeStanding is one cohort on the decade board
type DecadeStanding struct {
	Rank   int     `json:"rank"`
	Label  string  `json:"label"`
	Total  float64 `json:"total"`
	Donors int     `json:"donors"`
	// Share is the cohort's percentage of all giving, to one decimal
	Share float64 `json:"share"`
	// ShareBar and DonorBar are bar heights in percent of the leading cohort
	ShareBar float64 `json:"shareBar"`
	DonorBar float64 `json:"donorBar"`
}

// DecadeBoard ranks join-date cohorts by total giving
type DecadeBoard struct {
	Standings   []DecadeStanding `json:"standings"`
	GrandTotal  float64          `json:"grandTotal"`
	TotalDonors int              `json:"totalDonors"`
}

// DecadeBattle ranks cohorts by total, skipping excluded labels (case-insensitive)
func DecadeBattle(decades []model.DecadeTotal, excluded []string) DecadeBoard {
	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[strings.ToLower(strings.TrimSpace(e))] = true
	}

	sorted := make([]model.DecadeTotal, 0, len(decades))
	for _, d := range decades {
		if !skip[strings.ToLower(d.Label)] {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})

	board := DecadeBoard{Standings: make([]DecadeStanding, len(sorted))}
	maxDonors := 1
	for _, d := range sorted {
		board.GrandTotal += d.Total
		board.TotalDonors += d.Donors
		maxDonors = max(maxDonors, d.Donors)
	}

	maxShare := 1.0
	if board.GrandTotal > 0 && len(sorted) > 0 {
		maxShare = sorted[0].Total / board.GrandTotal * 100
	}

	for i, d := range sorted {
		s := DecadeStanding{Rank: i + 1, Label: d.Label, Total: d.Total, Donors: d.Donors}
		if board.GrandTotal > 0 {
			s.Share = math.Round(d.Total/board.GrandTotal*1000) / 10
			if d.Total > 0 {
				s.ShareBar = s.Share / maxShare * 100
			}
		}
		if d.Donors > 0 {
			s.DonorBar = float64(d.Donors) / float64(maxDonors) * 100
		}
		board.Standings[i] = s
	}

	return board
}

// StreakTier is a milestone for consecutive monthly giving
type StreakTier struct {
	Months int    `json:"months"`
	Label  string `json:"label"`
	Class  string `json:"class"`
}

// StreakTiers are ordered longest first
var StreakTiers = []StreakTier{
	{Months: 60, Label: "5yr+", Class: "legendary"},
	{Months: 36, Label: "3yr+", Class: "epic"},
	{Months: 24, Label: "2yr+", Class: "gold"},
	{Months: 12, Label: "1yr+", Class: "silver"},
	{Months: 6, Label: "6mo+", Class: "bronze"},
}

// TierForStreak returns the highest milestone reached by streak
func TierForStreak(streak int) (StreakTier, bool) {
	for _, t := range StreakTiers {
		if streak >= t.Months {
			return t, true
		}
	}
	return StreakTier{}, false
}

// MonthlyStanding is one row of the monthly donor board
type MonthlyStanding struct {
	Rank  int                `json:"rank"`
	Donor model.MonthlyDonor `json:"donor"`
	Tier  *StreakTier        `json:"tier,omitempty"`
}

// MonthlyLeaderboard ranks recurring donors in the given order and tags milestones
func MonthlyLeaderboard(donors []model.MonthlyDonor) []MonthlyStanding {
	standings := make([]MonthlyStanding, len(donors))
	for i, d := range donors {
		standings[i] = MonthlyStanding{Rank: i + 1, Donor: d}
		if t, ok := TierForStreak(d.Streak); ok {
			standings[i].Tier = &t
		}
	}
	return standings
}
