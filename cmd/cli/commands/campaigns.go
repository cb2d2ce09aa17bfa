package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
)

// FundsCmd creates the funds command
func FundsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "funds",
		Short: "Show progress of active fundraising campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}
			if state.Funds == nil {
				return fmt.Errorf("fund progress is unavailable")
			}

			fmt.Printf("\nFund progress")
			if state.Funds.AsOfDate != "" {
				fmt.Printf(" as of %s", state.Funds.AsOfDate)
			}
			fmt.Printf(":\n\n")

			for _, f := range state.Funds.Funds {
				fmt.Printf("  %-28s %s %5.1f%%  %s of %s\n",
					f.Name, progressBar(f.Percent(), 25), f.Percent(),
					levels.FormatCurrency(f.Total), levels.FormatCurrency(f.Goal))
			}
			fmt.Println()
			return nil
		},
	}
}

// ScholarshipsCmd creates the scholarships command
func ScholarshipsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scholarships [key]",
		Short: "List scholarships and their recipients",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}
			if state.Scholarships == nil {
				return fmt.Errorf("scholarships are unavailable")
			}

			shown := 0
			for _, s := range state.Scholarships {
				if len(args) > 0 && !strings.EqualFold(s.Key, args[0]) {
					continue
				}
				printScholarship(s)
				shown++
			}
			if len(args) > 0 && shown == 0 {
				return fmt.Errorf("unknown scholarship: %s", args[0])
			}
			return nil
		},
	}
}

func printScholarship(s model.Scholarship) {
	fmt.Printf("\n%s\n", s.Name)
	if s.Purpose != "" {
		fmt.Printf("%s%s%s\n", colorDim, s.Purpose, colorReset)
	}
	if len(s.Recipients) == 0 {
		fmt.Println("  No recipients yet")
		return
	}
	for _, r := range s.Recipients {
		if r.Year != "" {
			fmt.Printf("  %s  %s\n", r.Year, r.Name)
			continue
		}
		fmt.Printf("  %s\n", r.Name)
	}
}
