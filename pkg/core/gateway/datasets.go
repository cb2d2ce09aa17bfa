package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/clients/sheetsclient"
	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/normalize"
)

// rangeSet collects the ranges of one batch request against a sheet
type rangeSet struct {
	sheet  string
	ranges []string
}

// column adds a whole-column range and returns its position, or -1 for an empty column
func (r *rangeSet) column(col string) int {
	if col == "" {
		return -1
	}
	r.ranges = append(r.ranges, sheetsclient.ColumnRange(r.sheet, col))
	return len(r.ranges) - 1
}

// cells adds a cell or block range and returns its position, or -1 for an empty reference
func (r *rangeSet) cells(ref string) int {
	if ref == "" {
		return -1
	}
	r.ranges = append(r.ranges, sheetsclient.CellRange(r.sheet, ref))
	return len(r.ranges) - 1
}

func pick(values [][][]interface{}, i int) [][]interface{} {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

// GetMembers returns the normalized member list
func (g *Gateway) GetMembers(ctx context.Context) (*Result[[]model.Member], error) {
	return load(ctx, g, DatasetMembers, g.fetchMembers)
}

func (g *Gateway) fetchMembers(ctx context.Context) ([]model.Member, error) {
	m := g.cfg.Members
	year := g.now().Year()

	req := &rangeSet{sheet: m.SheetName}
	designation := req.column(m.Columns.Designation)
	roll := req.column(m.Columns.RollNumber)
	first := req.column(m.Columns.FirstName)
	last := req.column(m.Columns.LastName)
	total := req.column(m.Columns.TotalDonations)
	current := req.column(g.yearColumn(year))
	previous := req.column(g.yearColumn(year - 1))
	decade := req.column(m.Columns.Decade)

	values, err := g.batch(ctx, m.SpreadsheetID, req.ranges)
	if err != nil {
		return nil, err
	}

	cols := normalize.MemberColumns{
		Designation:    normalize.Column(pick(values, designation)),
		Roll:           normalize.Column(pick(values, roll)),
		FirstName:      normalize.Column(pick(values, first)),
		LastName:       normalize.Column(pick(values, last)),
		TotalDonations: normalize.Column(pick(values, total)),
		CurrentYear:    normalize.Column(pick(values, current)),
		PreviousYear:   normalize.Column(pick(values, previous)),
		Decade:         normalize.Column(pick(values, decade)),
	}

	members := normalize.Members(cols, normalize.Options{
		DeceasedMarker:       m.DeceasedMarker,
		DeceasedDesignations: m.DeceasedDesignations,
		EligibleDesignations: m.EligibleDesignations,
		RollPrefix:           m.RollPrefix,
	})

	g.logger.Debug("Normalized members", zap.Int("count", len(members)), zap.Int("year", year))
	return members, nil
}

// yearColumn returns the donation column for year, or "" when the layout has none
func (g *Gateway) yearColumn(year int) string {
	col, err := g.cfg.Members.YearDonor.Layout().Column(year)
	if err != nil {
		g.logger.Warn("No donation column for year, treating as no donors", zap.Int("year", year), zap.Error(err))
		return ""
	}
	return col
}

// GetFundProgress returns the active funds from the summary sheet
func (g *Gateway) GetFundProgress(ctx context.Context) (*Result[model.FundProgress], error) {
	return load(ctx, g, DatasetFunds, g.fetchFundProgress)
}

func (g *Gateway) fetchFundProgress(ctx context.Context) (model.FundProgress, error) {
	s := g.cfg.Summary
	if s == nil {
		return model.FundProgress{}, ErrNotConfigured
	}

	req := &rangeSet{sheet: s.SheetName}
	asOf := req.cells(s.AsOfDate)
	type fundIdx struct{ total, goal int }
	idx := make([]fundIdx, len(s.Funds))
	for i, f := range s.Funds {
		idx[i] = fundIdx{total: req.cells(f.Total), goal: req.cells(f.Goal)}
	}

	if len(req.ranges) == 0 {
		return model.FundProgress{Funds: []model.Fund{}}, nil
	}

	values, err := g.batch(ctx, s.SpreadsheetID, req.ranges)
	if err != nil {
		return model.FundProgress{}, err
	}

	funds := make([]normalize.FundCells, len(s.Funds))
	for i, f := range s.Funds {
		funds[i] = normalize.FundCells{
			Key:   f.Key,
			Name:  f.Name,
			Total: pick(values, idx[i].total),
			Goal:  pick(values, idx[i].goal),
		}
	}

	return normalize.FundProgress(pick(values, asOf), funds), nil
}

// GetScholarships returns every configured scholarship with its recipients
func (g *Gateway) GetScholarships(ctx context.Context) (*Result[[]model.Scholarship], error) {
	return load(ctx, g, DatasetScholarships, g.fetchScholarships)
}

func (g *Gateway) fetchScholarships(ctx context.Context) ([]model.Scholarship, error) {
	s := g.cfg.Scholarships
	if s == nil {
		return nil, ErrNotConfigured
	}

	req := &rangeSet{sheet: s.SheetName}
	type entryIdx struct{ purpose, names, years int }
	idx := make([]entryIdx, len(s.Entries))
	for i, e := range s.Entries {
		idx[i] = entryIdx{
			purpose: req.cells(e.Purpose),
			names:   req.cells(e.Names),
			years:   req.cells(e.Years),
		}
	}

	values, err := g.batch(ctx, s.SpreadsheetID, req.ranges)
	if err != nil {
		return nil, err
	}

	scholarships := make([]model.Scholarship, len(s.Entries))
	for i, e := range s.Entries {
		scholarships[i] = normalize.Scholarship(e.Key, e.Name,
			pick(values, idx[i].purpose),
			pick(values, idx[i].names),
			pick(values, idx[i].years))
	}

	return scholarships, nil
}

// GetDecades returns giving totals per join-date cohort
func (g *Gateway) GetDecades(ctx context.Context) (*Result[[]model.DecadeTotal], error) {
	return load(ctx, g, DatasetDecades, g.fetchDecades)
}

func (g *Gateway) fetchDecades(ctx context.Context) ([]model.DecadeTotal, error) {
	if g.cfg.Summary == nil || g.cfg.Summary.Decades == nil {
		return nil, ErrNotConfigured
	}
	s := g.cfg.Summary
	d := s.Decades

	req := &rangeSet{sheet: s.SheetName}
	labels := req.cells(d.Labels)
	totals := req.cells(d.Totals)
	donors := req.cells(d.Donors)

	values, err := g.batch(ctx, s.SpreadsheetID, req.ranges)
	if err != nil {
		return nil, err
	}

	return normalize.Decades(pick(values, labels), pick(values, totals), pick(values, donors)), nil
}

// GetMonthlyDonors returns recurring donors ordered by streak, longest first
func (g *Gateway) GetMonthlyDonors(ctx context.Context) (*Result[[]model.MonthlyDonor], error) {
	return load(ctx, g, DatasetMonthly, g.fetchMonthlyDonors)
}

func (g *Gateway) fetchMonthlyDonors(ctx context.Context) ([]model.MonthlyDonor, error) {
	m := g.cfg.Monthly
	if m == nil {
		return nil, ErrNotConfigured
	}

	req := &rangeSet{sheet: m.SheetName}
	names := req.cells(m.Names)
	streaks := req.cells(m.Streaks)
	funds := req.cells(m.Funds)

	values, err := g.batch(ctx, m.SpreadsheetID, req.ranges)
	if err != nil {
		return nil, err
	}

	return normalize.MonthlyDonors(pick(values, names), pick(values, streaks), pick(values, funds)), nil
}
