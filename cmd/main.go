package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run scripted AI debates",
	Long: `Run multi-turn AI debates between two sides.

Each debate follows a fixed cadence of opening, rebuttal, cross-examination
and closing turns. Every generated turn passes a content guardrail before it
is stored.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: .env)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
