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

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded payout sessions",
	Long: `List payout sessions recorded by previous transfers, newest first.

Examples:
  rampa history
  rampa history --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
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

	list := sessions.ListSessions()

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(list) == 0 {
		fmt.Println("\nNo payout sessions recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                            PAYOUT SESSIONS")
	fmt.Println(strings.Repeat("=", 80))

	for _, sess := range list {
		fmt.Printf("\n  %s  %s\n", sess.Created.Format("2006-01-02 15:04"), coloredSessionStatus(sess.Status))
		fmt.Printf("  Session:  %s\n", color.HiBlackString(sess.ID))
		fmt.Printf("  Amount:   %s %s on %s\n", sess.Amount, sess.AssetID, sess.Network)
		if sess.ApprovalTx != "" {
			fmt.Printf("  Approval: %s\n", color.HiBlackString(sess.ApprovalTx))
		}
		if sess.TransferTx != "" {
			fmt.Printf("  Transfer: %s\n", color.HiBlackString(sess.TransferTx))
		}
		if sess.ErrorMessage != "" {
			fmt.Printf("  Error:    %s\n", color.RedString(sess.ErrorMessage))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d sessions\n\n", len(list))
}

func coloredSessionStatus(status session.Status) string {
	switch status {
	case session.StatusSettled:
		return color.GreenString(string(status))
	case session.StatusTransferred:
		return color.CyanString(string(status))
	case session.StatusFailed:
		return color.RedString(string(status))
	default:
		return color.YellowString(string(status))
	}
}
