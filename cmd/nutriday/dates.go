package nutriday

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List dates with at least one logged entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *appEnv) error {
			dates := app.ledger.LoggedDates()
			if len(dates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No logged dates yet")
				return nil
			}
			for _, date := range dates {
				fmt.Fprintln(cmd.OutOrStdout(), date)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(datesCmd)
}
