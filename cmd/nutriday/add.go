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
	addSlot     string
	addName     string
	addCalories int
	addCarbs    float64
	addProtein  float64
	addFat      float64
	addFiber    float64
	addDate     string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food entry to a meal slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := model.ParseMealSlot(addSlot)
		if err != nil {
			return err
		}
		if addName == "" {
			return fmt.Errorf("--name is required")
		}
		if addCalories < 0 || addCarbs < 0 || addProtein < 0 || addFat < 0 || addFiber < 0 {
			return fmt.Errorf("nutrient values must be >= 0")
		}
		date, err := parseDateOrToday(addDate)
		if err != nil {
			return err
		}

		return withApp(func(app *appEnv) error {
			out := cmd.OutOrStdout()
			loadErr := app.ledger.SelectDate(cmd.Context(), date)

			var invalidErr *ledger.InvalidDateError
			if errors.As(loadErr, &invalidErr) {
				return fmt.Errorf("%s is in the future; you can only log food for days that have occurred", date)
			}
			if loadErr != nil {
				// The optimistic add applies regardless of sync state; seed
				// the cached snapshot when we have one so totals start from
				// the last known data.
				if cached, ok, cacheErr := store.CachedDay(app.db, date); cacheErr == nil && ok {
					_ = app.ledger.SeedDay(cached)
				}
				fmt.Fprintf(out, "! Could not sync %s first: %v\n", date, loadErr)
			}

			entry := app.ledger.AddEntry(slot, ledger.EntryInput{
				Name:     addName,
				Calories: addCalories,
				CarbsG:   addCarbs,
				ProteinG: addProtein,
				FatG:     addFat,
				FiberG:   addFiber,
			})
			fmt.Fprintf(out, "Added %s to %s as %s\n", entry.Name, slot, entry.ID)

			if day, ok := app.ledger.Day(date); ok {
				if err := store.CacheDay(app.db, day); err != nil {
					app.log.Warnw("cache day snapshot", "date", date, "error", err)
				}
			}
			if err := store.MarkLogged(app.db, date); err != nil {
				app.log.Warnw("mark date logged", "date", date, "error", err)
			}

			// Best-effort remote persistence; a failure queues the write and
			// never rolls back the entry.
			if err := app.ledger.PersistEntry(cmd.Context(), slot, entry.ID); err != nil {
				if qErr := store.EnqueueSave(app.db, date, slot.String(), []string{entry.ID.String()}); qErr != nil {
					app.log.Errorw("queue pending save", "date", date, "error", qErr)
				} else {
					fmt.Fprintln(out, "Remote food log unreachable; queued for `nutriday sync`.")
				}
			}

			totals := app.ledger.DailyTotals()
			fmt.Fprintf(out, "Calories: %.0f / %.0f kcal\n", totals.Calories.Current, totals.Calories.Target)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addSlot, "slot", "", "Meal slot: breakfast, lunch, or dinner")
	addCmd.Flags().StringVar(&addName, "name", "", "Food name")
	addCmd.Flags().IntVar(&addCalories, "calories", 0, "Calories (kcal)")
	addCmd.Flags().Float64Var(&addCarbs, "carbs", 0, "Carbohydrates (g)")
	addCmd.Flags().Float64Var(&addProtein, "protein", 0, "Protein (g)")
	addCmd.Flags().Float64Var(&addFat, "fat", 0, "Fat (g)")
	addCmd.Flags().Float64Var(&addFiber, "fiber", 0, "Fiber (g)")
	addCmd.Flags().StringVar(&addDate, "date", "", "Date YYYY-MM-DD (default today)")
	_ = addCmd.MarkFlagRequired("slot")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("calories")
}
