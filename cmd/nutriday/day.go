package nutriday

import (
	"errors"
	"fmt"
	"io"

	"github.com/nickolasww/nutriday/internal/ledger"
	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/store"
	"github.com/spf13/cobra"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show the nutrition ledger for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(dayDate)
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
			var authErr *ledger.AuthRequiredError
			if errors.As(loadErr, &authErr) {
				return fmt.Errorf("credential missing or rejected; run `nutriday login <token>` and retry")
			}

			var failErr *ledger.LoadFailedError
			if errors.As(loadErr, &failErr) {
				fmt.Fprintf(out, "! Could not load %s from the server: %v\n", date, failErr)
				if cached, ok, cacheErr := store.CachedDay(app.db, date); cacheErr == nil && ok {
					if err := app.ledger.SeedDay(cached); err == nil {
						fmt.Fprintln(out, "Showing the last locally cached snapshot instead.")
					}
				}
			} else if loadErr != nil {
				return loadErr
			}

			day, ok := app.ledger.Day(date)
			if !ok {
				return fmt.Errorf("no ledger available for %s", date)
			}

			if failErr == nil {
				// Keep the offline cache and date index in step with the
				// freshly loaded snapshot.
				if err := store.CacheDay(app.db, day); err != nil {
					app.log.Warnw("cache day snapshot", "date", date, "error", err)
				}
				if !day.Empty() {
					if err := store.MarkLogged(app.db, date); err != nil {
						app.log.Warnw("mark date logged", "date", date, "error", err)
					}
				}
			}

			renderDay(out, day)
			if failErr == nil && day.Empty() {
				fmt.Fprintln(out, "No food logged for this date yet. Add something with `nutriday add`.")
			}
			return nil
		})
	},
}

func renderDay(w io.Writer, day *model.DayLedger) {
	fmt.Fprintf(w, "Date: %s\n", day.Date)
	for _, slot := range model.Slots() {
		b := day.Bucket(slot)
		fmt.Fprintf(w, "%s: %d kcal\n", b.Tag, b.TotalCalories)
		for _, e := range b.Entries {
			fmt.Fprintf(w, "  [%s] %s  %d kcal (C %.1fg | P %.1fg | F %.1fg | Fb %.1fg)\n",
				e.ID, e.Name, e.Calories, e.CarbsG, e.ProteinG, e.FatG, e.FiberG)
			if e.Difficulty != "" {
				fmt.Fprintf(w, "        recipe: %d steps, %d ingredients, %s\n", len(e.Steps), len(e.Ingredients), e.Difficulty)
			}
		}
	}
	renderTrack(w, "Calories", day.Calories, "kcal")
	renderTrack(w, "Carbs", day.Carbs, "g")
	renderTrack(w, "Protein", day.Protein, "g")
	renderTrack(w, "Fat", day.Fat, "g")
	renderTrack(w, "Fiber", day.Fiber, "g")
}

func renderTrack(w io.Writer, name string, t model.NutrientTrack, unit string) {
	marker := ""
	if t.Exceeded() {
		marker = "  (over target)"
	}
	fmt.Fprintf(w, "%s: %.0f / %.0f %s%s\n", name, t.Current, t.Target, unit, marker)
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
