package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "lenslog",
	Short: "Photo-based food macro and homework tracker",
	Long: `lenslog analyses meal and homework photos with a vision model and keeps a
local history of daily macros and study progress.

Run "lenslog start" to launch the gateway, then use the other commands
from another terminal.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(foodCmd)
	rootCmd.AddCommand(homeworkCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", colorize(colorRed, "error: "+err.Error()))
		os.Exit(1)
	}
}
