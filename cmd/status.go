package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/chain"
	"rampa/pkg/client"
)

var statusNetwork string

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash|deposit-address>",
	Short: "Check the status of a transfer or swap",
	Long: `Check a custody transfer by its transaction hash, or a pre-payout swap by
its aggregator deposit address.

A 66-character 0x value is treated as a transaction hash and looked up
on-chain; anything else is treated as an aggregator deposit address.

Examples:
  rampa status 0x9a7b...e3f1
  rampa status 0x1234...abcd --network polygon`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusNetwork, "network", "", "Network to query for transaction hashes (defaults to config)")
}

func runStatus(cmd *cobra.Command, args []string) {
	reference := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if isTxHash(reference) {
		checkTransactionStatus(cfg, reference, jsonOutput)
	} else {
		checkSwapStatus(cfg, reference, jsonOutput)
	}
}

func isTxHash(reference string) bool {
	return strings.HasPrefix(reference, "0x") && len(reference) == 66
}

func checkTransactionStatus(cfg *config.Config, txHash string, jsonOutput bool) {
	networkName := statusNetwork
	if networkName == "" {
		networkName = cfg.DefaultNetwork
	}
	network, err := cfg.Network(networkName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainClient, err := chain.Dial(network.RPCUrl)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer chainClient.Close()

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		sp.Suffix = " Fetching transaction..."
		sp.Start()
	}

	info, err := chainClient.TransactionInfo(context.Background(), txHash)
	if !jsonOutput {
		sp.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTransaction(info, networkName)
}

func displayTransaction(info map[string]interface{}, networkName string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:     %s\n", color.CyanString(fmt.Sprintf("%v", info["hash"])))
	fmt.Printf("  Network:  %s\n", networkName)
	fmt.Printf("  To:       %s\n", info["to"])
	fmt.Printf("  Value:    %s wei\n", info["value"])

	if pending, ok := info["pending"].(bool); ok && pending {
		fmt.Printf("  Status:   %s\n", color.YellowString("PENDING"))
	} else if status, ok := info["status"]; ok {
		if fmt.Sprintf("%v", status) == "1" {
			fmt.Printf("  Status:   %s\n", color.GreenString("CONFIRMED"))
		} else {
			fmt.Printf("  Status:   %s\n", color.RedString("REVERTED"))
		}
		fmt.Printf("  Block:    %v\n", info["block_number"])
		fmt.Printf("  Gas Used: %v\n", info["gas_used"])
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func checkSwapStatus(cfg *config.Config, depositAddress string, jsonOutput bool) {
	apiClient := client.NewAggregatorClient(cfg.AggregatorJWT)

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		sp.Suffix = " Checking swap status..."
		sp.Start()
	}

	status, err := apiClient.GetSwapStatus(depositAddress)
	if !jsonOutput {
		sp.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displaySwapStatus(status, depositAddress)
}

func displaySwapStatus(status *oneclick.GetExecutionStatusResponse, depositAddress string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Deposit Address: %s\n", color.CyanString(depositAddress))
	fmt.Printf("  Status:          %s\n", coloredSwapStatus(status.GetStatus()))
	fmt.Printf("  Last Updated:    %s\n", status.GetUpdatedAt().Format("2006-01-02 15:04:05"))

	swapDetails := status.GetSwapDetails()

	for _, tx := range swapDetails.GetOriginChainTxHashes() {
		if hash := tx.GetHash(); hash != "" {
			fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(hash))
		}
	}
	for _, tx := range swapDetails.GetDestinationChainTxHashes() {
		if hash := tx.GetHash(); hash != "" {
			fmt.Printf("  Settlement Tx:   %s\n", color.HiBlackString(hash))
		}
	}

	if swapDetails.HasAmountInFormatted() {
		fmt.Printf("  Amount In:       %s\n", swapDetails.GetAmountInFormatted())
	}
	if swapDetails.HasAmountOutFormatted() {
		fmt.Printf("  Amount Out:      %s\n", swapDetails.GetAmountOutFormatted())
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredSwapStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "SUCCESS", "COMPLETED":
		return color.GreenString(status)
	case "PENDING_DEPOSIT", "PENDING", "PROCESSING":
		return color.YellowString(status)
	case "FAILED", "REFUNDED":
		return color.RedString(status)
	case "INCOMPLETE_DEPOSIT":
		return color.MagentaString(status)
	default:
		return status
	}
}
