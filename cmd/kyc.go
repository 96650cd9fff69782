package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/session"
)

var kycStatusFlag string

var kycCmd = &cobra.Command{
	Use:   "kyc",
	Short: "View or record KYC verification status",
	Long: `Show the recorded KYC status, or record the outcome reported by the
compliance provider. Verification itself happens with the provider; rampa only
tracks the result.

Examples:
  rampa kyc
  rampa kyc --set verified`,
	Run: runKYC,
}

func init() {
	rootCmd.AddCommand(kycCmd)

	kycCmd.Flags().StringVar(&kycStatusFlag, "set", "", "Record a status: pending, verified or rejected")
}

func runKYC(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(cfg.SessionsFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if kycStatusFlag == "" {
		displayProfile(sessions.Profile(), jsonOutput)
		return
	}

	if err := sessions.SetKYCStatus(session.KYCStatus(kycStatusFlag)); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("KYC status recorded: %s", kycStatusFlag))
}
