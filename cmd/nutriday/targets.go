package nutriday

import (
	"database/sql"
	"fmt"

	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/store"
	"github.com/spf13/cobra"
)

var (
	targetsWeight   float64
	targetsHeight   float64
	targetsAge      int
	targetsSex      string
	targetsActivity string
	targetsSave     bool
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Compute personalized daily nutrient targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := model.PersonalizedTargets(model.Profile{
			WeightKg: targetsWeight,
			HeightCm: targetsHeight,
			Age:      targetsAge,
			Sex:      targetsSex,
			Activity: targetsActivity,
		})
		if err != nil {
			return err
		}
		bmi, err := model.BMI(targetsWeight, targetsHeight)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "BMI: %.1f\n", bmi)
		fmt.Fprintf(out, "Calories: %d kcal\n", targets.Calories)
		fmt.Fprintf(out, "Carbs: %.0f g | Protein: %.0f g | Fat: %.0f g | Fiber: %.0f g\n",
			targets.CarbsG, targets.ProteinG, targets.FatG, targets.FiberG)

		if !targetsSave {
			return nil
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := store.SetTargetOverride(sqldb, targets); err != nil {
				return err
			}
			fmt.Fprintln(out, "Saved as your daily targets")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().Float64Var(&targetsWeight, "weight", 0, "Body weight (kg)")
	targetsCmd.Flags().Float64Var(&targetsHeight, "height", 0, "Height (cm)")
	targetsCmd.Flags().IntVar(&targetsAge, "age", 0, "Age (years)")
	targetsCmd.Flags().StringVar(&targetsSex, "sex", "", "Sex: male or female")
	targetsCmd.Flags().StringVar(&targetsActivity, "activity", "sedentary", "Activity level: sedentary, light, moderate, active, very_active")
	targetsCmd.Flags().BoolVar(&targetsSave, "save", false, "Save as the daily target override")
	_ = targetsCmd.MarkFlagRequired("weight")
	_ = targetsCmd.MarkFlagRequired("height")
	_ = targetsCmd.MarkFlagRequired("age")
	_ = targetsCmd.MarkFlagRequired("sex")
}
