package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rampa",
	Short: "A CLI for off-ramping crypto to INR",
	Long: `rampa moves tokens from your account to the platform's custody address
and tracks the INR payout. Token transfers insert an exact-amount allowance
approval automatically when one is needed.

Examples:
  rampa transfer 0.5 native
  rampa transfer 100 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --network ethereum
  rampa quote 1.5 ETH
  rampa bank --holder "A Sharma" --account 123456789012 --ifsc HDFC0001234
  rampa history`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
