package model

// Member is a normalized row from the member sheet
type Member struct {
	FirstName           string  `json:"firstName"`
	LastName            string  `json:"lastName"`
	FullName            string  `json:"fullName"`
	RollFull            string  `json:"roll"`
	RollShort           string  `json:"rollShort"`
	TotalDonations      float64 `json:"totalDonations"`
	IsDeceased          bool    `json:"isDeceased"`
	IsCurrentYearDonor  bool    `json:"isCurrentYearDonor"`
	IsPreviousYearDonor bool    `json:"isPreviousYearDonor"`
	Decade              string  `json:"decade,omitempty"` // Empty string if no cohort label
}

// Fund is a single fundraising campaign with its running total and goal
type Fund struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Goal  float64 `json:"goal"`
}

// Percent returns progress toward the goal, capped at 100
func (f Fund) Percent() float64 {
	if f.Goal <= 0 {
		return 0
	}
	pct := f.Total / f.Goal * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// FundProgress is the summary sheet snapshot of active funds
type FundProgress struct {
	AsOfDate string `json:"asOfDate"`
	Funds    []Fund `json:"funds"`
}

// ScholarshipRecipient is one awarded recipient of a scholarship
type ScholarshipRecipient struct {
	Name string `json:"name"`
	Year string `json:"year"`
}

// Scholarship is an endowed scholarship with its purpose and recipients
type Scholarship struct {
	Key        string                 `json:"key"`
	Name       string                 `json:"name"`
	Purpose    string                 `json:"purpose"`
	Recipients []ScholarshipRecipient `json:"recipients"`
}

// DecadeTotal aggregates giving for one join-date cohort
type DecadeTotal struct {
	Label  string  `json:"label"`
	Total  float64 `json:"total"`
	Donors int     `json:"donors"`
}

// MonthlyFund identifies which fund(s) a recurring donor gives to
type MonthlyFund string

const (
	MonthlyFundBMS        MonthlyFund = "BMS"
	MonthlyFundLeadership MonthlyFund = "Leadership"
	MonthlyFundBoth       MonthlyFund = "Both"
)

// MonthlyDonor is a recurring donor and the length of their streak in months
type MonthlyDonor struct {
	Name   string      `json:"name"`
	Streak int         `json:"streak"`
	Fund   MonthlyFund `json:"fund"`
}
