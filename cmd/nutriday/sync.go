package nutriday

import (
	"fmt"

	"github.com/nickolasww/nutriday/internal/store"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Flush queued food-log writes to the remote service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *appEnv) error {
			out := cmd.OutOrStdout()
			saves, err := store.PendingSaves(app.db)
			if err != nil {
				return err
			}
			if len(saves) == 0 {
				fmt.Fprintln(out, "Nothing to sync")
				return nil
			}

			flushed := 0
			for _, s := range saves {
				if err := app.foodlog.SaveEntries(cmd.Context(), s.Date, s.MealSlot, s.EntryIDs); err != nil {
					app.log.Warnw("pending save still failing", "date", s.Date, "slot", s.MealSlot, "error", err)
					continue
				}
				if err := store.DeletePendingSave(app.db, s.ID); err != nil {
					return err
				}
				flushed++
			}
			fmt.Fprintf(out, "Synced %d of %d queued writes\n", flushed, len(saves))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
