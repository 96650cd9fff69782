package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/client"
)

var (
	filterChain  string
	filterSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens the aggregator can quote",
	Long: `List all tokens the DEX aggregator can quote into the payout stablecoin.

You can filter tokens by blockchain or symbol.

Examples:
  rampa list-tokens
  rampa list-tokens --chain eth
  rampa list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by blockchain")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.NewAggregatorClient(cfg.AggregatorJWT)

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		sp.Suffix = " Fetching supported tokens..."
		sp.Start()
	}

	tokens, err := apiClient.GetSupportedTokens()
	if !jsonOutput {
		sp.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := tokens
	if filterChain != "" {
		var temp []oneclick.TokenResponse
		for _, token := range filtered {
			if strings.EqualFold(token.GetBlockchain(), filterChain) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if filterSymbol != "" {
		var temp []oneclick.TokenResponse
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.GetSymbol()), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}
}

func displayTokens(tokens []oneclick.TokenResponse) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by blockchain
	tokensByChain := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		chain := token.GetBlockchain()
		tokensByChain[chain] = append(tokensByChain[chain], token)
	}

	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			symbol := token.GetSymbol()
			decimals := token.GetDecimals()
			address := token.GetContractAddress()

			if len(address) > 40 {
				address = address[:37] + "..."
			}

			fmt.Printf("  %-10s  %2.0f decimals  %s\n",
				color.YellowString(symbol),
				decimals,
				color.HiBlackString(address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", len(tokens), len(chains))
}
