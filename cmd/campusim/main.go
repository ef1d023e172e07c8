package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "campusim",
		Short: "Campus mobility and connectivity simulator",
		Long: `campusim replays a campus day: agents follow the building timetable
between lecture halls, labs, and entrances, and fixed access points record
who is in range. The run produces connectivity reports suitable for
opportunistic-networking studies.`,
	}

	rootCmd.PersistentFlags().String("scenario", "configs/scenario.yaml", "scenario file")
	rootCmd.PersistentFlags().String("routes", "configs/routes", "directory holding route files")
	rootCmd.PersistentFlags().Int64("seed", 1, "random seed for the run")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newValidateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("campusim version %s\n", version)
		},
	}
}
