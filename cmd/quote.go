package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/client"
	"rampa/pkg/types"
)

var (
	quoteChain     string
	quoteRecipient string
	quoteRefund    string
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <token>",
	Short: "Quote a token into the payout stablecoin",
	Long: `Get a DEX-aggregator quote for swapping a token into ` + client.StableSymbol + ` ahead of
an INR payout, with an estimated INR value at the configured rate.

Examples:
  rampa quote 1.5 ETH --chain eth --recipient 0x123...
  rampa quote 250 ARB --chain arb --recipient 0x123...`,
	Args: cobra.ExactArgs(2),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteChain, "chain", "", "Blockchain the token lives on")
	quoteCmd.Flags().StringVar(&quoteRecipient, "recipient", "", "Address receiving the stablecoin (REQUIRED)")
	quoteCmd.Flags().StringVar(&quoteRefund, "refund-to", "", "Refund address if the swap fails (defaults to recipient)")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainName := quoteChain
	if chainName == "" {
		chainName = cfg.DefaultNetwork
	}

	req := &types.QuoteRequest{
		Amount:        args[0],
		Token:         args[1],
		Chain:         chainName,
		RecipientAddr: quoteRecipient,
		RefundAddr:    quoteRefund,
	}

	apiClient := client.NewAggregatorClient(cfg.AggregatorJWT)

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		sp.Suffix = " Fetching quote..."
		sp.Start()
	}

	quote, err := apiClient.GetOfframpQuote(req)
	if !jsonOutput {
		sp.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quoteDetails := quote.GetQuote()
	inrEstimate := estimateINR(quoteDetails.GetAmountOutFormatted(), cfg.USDINRRate)

	if jsonOutput {
		output := map[string]interface{}{
			"deposit_address":   quoteDetails.GetDepositAddress(),
			"source_amount":     req.Amount,
			"source_token":      req.Token,
			"stable_amount":     quoteDetails.GetAmountOutFormatted(),
			"stable_token":      client.StableSymbol,
			"inr_estimate":      inrEstimate,
			"time_estimate_sec": quoteDetails.GetTimeEstimate(),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayOfframpQuote(&types.QuoteDisplay{
		SourceAmount:   quoteDetails.GetAmountInFormatted(),
		SourceToken:    req.Token,
		StableAmount:   quoteDetails.GetAmountOutFormatted(),
		StableToken:    client.StableSymbol,
		INREstimate:    inrEstimate,
		EstimatedTime:  fmt.Sprintf("%.0f seconds", quoteDetails.GetTimeEstimate()),
		DepositAddress: quoteDetails.GetDepositAddress(),
		Chain:          req.Chain,
	})
}

// estimateINR converts a formatted stablecoin amount at the configured rate.
// Display only; settlement uses the rail's actual rate.
func estimateINR(stableAmount string, rate float64) string {
	amount, err := strconv.ParseFloat(stableAmount, 64)
	if err != nil || rate <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", amount*rate)
}

func displayOfframpQuote(display *types.QuoteDisplay) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    OFF-RAMP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", display.SourceAmount, color.YellowString(display.SourceToken))
	fmt.Printf("  To:                ~%s %s\n", display.StableAmount, color.YellowString(display.StableToken))
	if display.INREstimate != "" {
		fmt.Printf("  INR Estimate:      ₹%s\n", color.GreenString(display.INREstimate))
	}
	fmt.Printf("  Deposit Address:   %s\n", color.CyanString(display.DepositAddress))
	fmt.Printf("  Estimated Time:    %s\n", display.EstimatedTime)
	fmt.Printf("  Chain:             %s\n", display.Chain)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
