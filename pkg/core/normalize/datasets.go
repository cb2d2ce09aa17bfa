package normalize

import (
	"sort"
	"strings"

	"github.com/mitheta/moneyclub/pkg/core/model"
)

// FundCells are the raw total and goal cells for one fund
type FundCells struct {
	Key   string
	Name  string
	Total [][]interface{}
	Goal  [][]interface{}
}

// FundProgress builds the fund summary from the as-of cell and each fund's cells
func FundProgress(asOf [][]interface{}, funds []FundCells) model.FundProgress {
	progress := model.FundProgress{
		AsOfDate: CellString(FirstCell(asOf)),
		Funds:    make([]model.Fund, 0, len(funds)),
	}

	for _, f := range funds {
		progress.Funds = append(progress.Funds, model.Fund{
			Key:   f.Key,
			Name:  f.Name,
			Total: ParseAmount(FirstCell(f.Total)),
			Goal:  ParseAmount(FirstCell(f.Goal)),
		})
	}

	return progress
}

// Scholarship builds a scholarship from its purpose cell and the parallel
// recipient name and year columns. Rows without a name are dropped.
func Scholarship(key, name string, purpose, names, years [][]interface{}) model.Scholarship {
	nameCol := Column(names)
	yearCol := Column(years)

	rows := max(len(nameCol), len(yearCol))
	recipients := make([]model.ScholarshipRecipient, 0, rows)
	for i := 0; i < rows; i++ {
		recipient := CellString(cellAt(nameCol, i))
		if recipient == "" {
			continue
		}
		recipients = append(recipients, model.ScholarshipRecipient{
			Name: recipient,
			Year: CellString(cellAt(yearCol, i)),
		})
	}

	return model.Scholarship{
		Key:        key,
		Name:       name,
		Purpose:    CellString(FirstCell(purpose)),
		Recipients: recipients,
	}
}

// Decades builds per-cohort giving totals. Rows without a label are dropped.
func Decades(labels, totals, donors [][]interface{}) []model.DecadeTotal {
	labelCol := Column(labels)
	totalCol := Column(totals)
	donorCol := Column(donors)

	rows := max(len(labelCol), len(totalCol))
	decades := make([]model.DecadeTotal, 0, rows)
	for i := 0; i < rows; i++ {
		label := CellString(cellAt(labelCol, i))
		if label == "" {
			continue
		}
		decades = append(decades, model.DecadeTotal{
			Label:  label,
			Total:  ParseAmount(cellAt(totalCol, i)),
			Donors: ParseCount(cellAt(donorCol, i)),
		})
	}

	return decades
}

// MonthlyDonors builds the recurring donor list ordered by streak, longest first.
// Rows without a name are dropped.
func MonthlyDonors(names, streaks, funds [][]interface{}) []model.MonthlyDonor {
	nameCol := Column(names)
	streakCol := Column(streaks)
	fundCol := Column(funds)

	donors := make([]model.MonthlyDonor, 0, len(nameCol))
	for i := range nameCol {
		name := CellString(nameCol[i])
		if name == "" {
			continue
		}
		streak := ParseCount(cellAt(streakCol, i))
		if streak < 0 {
			streak = 0
		}
		donors = append(donors, model.MonthlyDonor{
			Name:   name,
			Streak: streak,
			Fund:   parseMonthlyFund(CellString(cellAt(fundCol, i))),
		})
	}

	sort.SliceStable(donors, func(i, j int) bool {
		return donors[i].Streak > donors[j].Streak
	})

	return donors
}

// parseMonthlyFund maps the sheet's fund label; anything unrecognized counts as Leadership
func parseMonthlyFund(s string) model.MonthlyFund {
	switch strings.ToLower(s) {
	case "both":
		return model.MonthlyFundBoth
	case "bms":
		return model.MonthlyFundBMS
	default:
		return model.MonthlyFundLeadership
	}
}
