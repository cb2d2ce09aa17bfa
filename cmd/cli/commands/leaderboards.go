package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/services"
)

// LevelsCmd creates the levels command
func LevelsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "levels [level]",
		Short: "List giving levels, or the members of one level (by number or slug)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Printf("\nGiving levels:\n\n")
				for _, s := range services.LevelSummaries(state.Members, app.Levels) {
					fmt.Printf("  %2d. %-26s %-20s %4d members\n", s.Index+1, s.Level.Name, s.Level.RangeText(), s.Count)
				}
				fmt.Println()
				return nil
			}

			level, err := resolveLevel(app.Levels, args[0])
			if err != nil {
				return err
			}
			app.Logger.Debug("levels command", zap.String("level", level.Slug))

			members := services.MembersAtLevel(state.Members, app.Levels, level)
			fmt.Printf("\n%s (%s): %d members\n\n", level.Name, level.RangeText(), len(members))
			for _, m := range members {
				fmt.Printf("  %s\n", memberLine(m, app.Levels))
			}
			fmt.Println()
			return nil
		},
	}
}

// resolveLevel accepts a 1-based position in the table or a slug
func resolveLevel(table levels.Table, arg string) (levels.Level, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(table) {
			return levels.Level{}, fmt.Errorf("level must be between 1 and %d, got: %d", len(table), n)
		}
		return table[n-1], nil
	}
	if l, ok := table.BySlug(arg); ok {
		return l, nil
	}
	if l, ok := table.ByName(arg); ok {
		return l, nil
	}
	return levels.Level{}, fmt.Errorf("unknown level: %s", arg)
}

// TopDonorsCmd creates the topDonors command
func TopDonorsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topDonors",
		Short: "Show the largest lifetime donors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			if n < 1 {
				return fmt.Errorf("count must be a positive integer, got: %d", n)
			}

			state, err := app.LoadState()
			if err != nil {
				return err
			}

			fmt.Printf("\nTop %d donors:\n\n", n)
			for _, d := range services.TopDonors(state.Members, app.Levels, n) {
				fmt.Printf("  %2d. %-30s %12s  %s\n", d.Rank, d.Member.FullName, levels.FormatCurrency(d.Member.TotalDonations), levelName(d.Level))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntP("count", "n", services.DefaultTopDonors, "Number of donors to show")
	return cmd
}

// DecadesCmd creates the decades command
func DecadesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decades",
		Short: "Show giving totals by decade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}
			if state.Decades == nil {
				return fmt.Errorf("decade totals are unavailable")
			}

			board := services.DecadeBattle(state.Decades, excludedDecades(app.Cfg))

			fmt.Printf("\nBattle of the decades: %s from %d donors\n\n", levels.FormatCurrency(board.GrandTotal), board.TotalDonors)
			for _, s := range board.Standings {
				fmt.Printf("  %d. %-10s %s %12s  %5.1f%%  %4d donors\n",
					s.Rank, s.Label, progressBar(s.ShareBar, 20), levels.FormatCurrency(s.Total), s.Share, s.Donors)
			}
			fmt.Println()
			return nil
		},
	}
}

// MonthlyDonorsCmd creates the monthlyDonors command
func MonthlyDonorsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "monthlyDonors",
		Short: "Show recurring donors by streak length",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}
			if state.Monthly == nil {
				return fmt.Errorf("monthly donors are unavailable")
			}

			standings := services.MonthlyLeaderboard(state.Monthly)
			fmt.Printf("\n%d monthly donors:\n\n", len(standings))
			for _, s := range standings {
				tier := ""
				if s.Tier != nil {
					tier = s.Tier.Label
				}
				fmt.Printf("  %3d. %-30s %3d months  %-6s %s\n", s.Rank, s.Donor.Name, s.Donor.Streak, tier, s.Donor.Fund)
			}
			fmt.Println()
			return nil
		},
	}
}
