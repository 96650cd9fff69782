package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/session"
)

var (
	bankHolder  string
	bankAccount string
	bankIFSC    string
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "View or set the INR payout bank account",
	Long: `Store the bank account that receives INR payouts. Run without flags to
show the account currently on file.

Examples:
  rampa bank
  rampa bank --holder "A Sharma" --account 123456789012 --ifsc HDFC0001234`,
	Run: runBank,
}

func init() {
	rootCmd.AddCommand(bankCmd)

	bankCmd.Flags().StringVar(&bankHolder, "holder", "", "Account holder name")
	bankCmd.Flags().StringVar(&bankAccount, "account", "", "Account number")
	bankCmd.Flags().StringVar(&bankIFSC, "ifsc", "", "IFSC code of the branch")
}

func runBank(cmd *cobra.Command, args []string) {
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

	// No flags: show what's on file
	if bankHolder == "" && bankAccount == "" && bankIFSC == "" {
		displayProfile(sessions.Profile(), jsonOutput)
		return
	}

	bank := &session.BankAccount{
		HolderName:    bankHolder,
		AccountNumber: bankAccount,
		IFSC:          strings.ToUpper(bankIFSC),
	}

	if err := sessions.SetBankAccount(bank); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Bank account saved: %s (%s)", maskAccount(bank.AccountNumber), bank.IFSC))
}

func displayProfile(profile session.Profile, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(profile, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     PAYOUT PROFILE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  KYC Status: %s\n", coloredKYC(profile.KYC))
	if profile.Bank == nil {
		fmt.Printf("  Bank:       %s\n", color.YellowString("not set"))
	} else {
		fmt.Printf("  Holder:     %s\n", profile.Bank.HolderName)
		fmt.Printf("  Account:    %s\n", maskAccount(profile.Bank.AccountNumber))
		fmt.Printf("  IFSC:       %s\n", profile.Bank.IFSC)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func coloredKYC(status session.KYCStatus) string {
	switch status {
	case session.KYCVerified:
		return color.GreenString(string(status))
	case session.KYCRejected:
		return color.RedString(string(status))
	default:
		return color.YellowString(string(status))
	}
}

// maskAccount hides all but the last four digits
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}
