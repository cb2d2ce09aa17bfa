package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/services"
)

// SearchCmd creates the search command
func SearchCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find members by name or roll number",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			app.Logger.Debug("search command", zap.String("query", query))

			state, err := app.LoadState()
			if err != nil {
				return err
			}

			results := state.Index.Query(query)
			if len(results) == 0 {
				fmt.Printf("No members match %q\n", query)
				return nil
			}

			fmt.Printf("\n%d matches for %q:\n\n", len(results), query)
			for i, r := range results {
				fmt.Printf("  %2d. %s\n", i+1, memberLine(r.Member, app.Levels))
			}
			fmt.Println()
			return nil
		},
	}
}

// MemberCmd creates the member command
func MemberCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "member <roll>",
		Short: "Show a member's giving level and progress to the next level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.LoadState()
			if err != nil {
				return err
			}

			m, ok := services.FindByRoll(state.Members, args[0])
			if !ok {
				return fmt.Errorf("no member with roll number %s", args[0])
			}
			p := services.Profile(m, app.Levels)

			fmt.Printf("\n%s (%s)\n", m.FullName, m.RollFull)
			if m.Decade != "" {
				fmt.Printf("Decade:   %s\n", m.Decade)
			}
			fmt.Printf("Total:    %s\n", p.TotalText)
			fmt.Printf("Status:   %s\n", p.Status)
			fmt.Printf("Level:    %s\n", levelName(p.Progress.Current))

			switch {
			case p.Progress.TopReached:
				fmt.Println("Progress: top level reached")
			case p.Progress.Next != nil:
				fmt.Printf("Next:     %s (%s to go)\n", p.Progress.Next.Name, levels.FormatCurrency(p.Progress.Remaining))
				fmt.Printf("Progress: %s %.0f%%\n", progressBar(p.Progress.Percent, 30), p.Progress.Percent)
			}
			fmt.Println()
			return nil
		},
	}
}
