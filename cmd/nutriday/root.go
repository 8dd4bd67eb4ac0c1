package nutriday

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "nutriday",
	Short: "nutriday tracks your daily nutrition ledger from the terminal",
	Long:  "nutriday is a client for the nutriday nutrition service: it keeps a per-day food ledger across breakfast, lunch, and dinner, tracks nutrient totals against daily targets, and syncs with the remote food log.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
}
