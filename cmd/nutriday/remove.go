package nutriday

import (
	"errors"
	"fmt"

	"github.com/nickolasww/nutriday/internal/ledger"
	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/store"
	"github.com/spf13/cobra"
)

var (
	removeSlot string
	removeID   string
	removeDate string
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a food entry from a meal slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := model.ParseMealSlot(removeSlot)
		if err != nil {
			return err
		}
		id, err := parseEntryID(removeID)
		if err != nil {
			return err
		}
		date, err := parseDateOrToday(removeDate)
		if err != nil {
			return err
		}

		return withApp(func(app *appEnv) error {
			out := cmd.OutOrStdout()
			loadErr := app.ledger.SelectDate(cmd.Context(), date)

			var invalidErr *ledger.InvalidDateError
			if errors.As(loadErr, &invalidErr) {
				return fmt.Errorf("%s is in the future", date)
			}
			if loadErr != nil {
				if cached, ok, cacheErr := store.CachedDay(app.db, date); cacheErr == nil && ok {
					_ = app.ledger.SeedDay(cached)
				}
				fmt.Fprintf(out, "! Could not sync %s first: %v\n", date, loadErr)
			}

			if app.ledger.RemoveEntry(slot, id) {
				fmt.Fprintf(out, "Removed %s from %s\n", id, slot)
			} else {
				fmt.Fprintf(out, "No entry %s in %s; nothing to do\n", id, slot)
			}

			if day, ok := app.ledger.Day(date); ok {
				if err := store.CacheDay(app.db, day); err != nil {
					app.log.Warnw("cache day snapshot", "date", date, "error", err)
				}
			}

			totals := app.ledger.DailyTotals()
			fmt.Fprintf(out, "Calories: %.0f / %.0f kcal\n", totals.Calories.Current, totals.Calories.Target)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVar(&removeSlot, "slot", "", "Meal slot: breakfast, lunch, or dinner")
	removeCmd.Flags().StringVar(&removeID, "id", "", "Entry id (server id or local:<uuid>)")
	removeCmd.Flags().StringVar(&removeDate, "date", "", "Date YYYY-MM-DD (default today)")
	_ = removeCmd.MarkFlagRequired("slot")
	_ = removeCmd.MarkFlagRequired("id")
}
