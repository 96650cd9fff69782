package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rampa/config"
	"rampa/pkg/chain"
	"rampa/pkg/custody"
	"rampa/pkg/session"
	"rampa/pkg/transfer"
	"rampa/pkg/wallet"
)

var (
	transferNetwork string
	noConfirm       bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer <amount> <asset>",
	Short: "Move funds to the platform's custody address",
	Long: `Transfer an amount of a token (by contract address) or the native asset
to the custody destination configured for the network. Token transfers that
need it are preceded by an exact-amount allowance approval, confirmed on-chain
before the transfer is signed.

The asset argument is either the word "native" or an ERC-20 contract address.

Examples:
  rampa transfer 0.5 native
  rampa transfer 100 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --network ethereum
  rampa transfer 25 0xdAC17F958D2ee523a2206206994597C13D831ec7 --yes`,
	Args: cobra.ExactArgs(2),
	Run:  runTransfer,
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&transferNetwork, "network", "", "Network to transfer on (defaults to config)")
	transferCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
}

func runTransfer(cmd *cobra.Command, args []string) {
	amount, assetID := args[0], strings.ToLower(args[1])
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	networkName := transferNetwork
	if networkName == "" {
		networkName = cfg.DefaultNetwork
	}
	network, err := cfg.Network(networkName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(cfg.SessionsFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := checkProfile(sessions.Profile()); err != nil {
		printError(err)
		os.Exit(1)
	}

	chainClient, err := chain.Dial(network.RPCUrl)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer chainClient.Close()

	signer, err := wallet.NewKeySigner(chainClient.Eth(), cfg.PrivateKey, network)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	table, err := custody.NewTable(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	orch := transfer.NewOrchestrator(signer, chainClient, table)

	ctx := context.Background()
	account, _ := signer.ConnectedAccount()

	if !jsonOutput {
		displayTransferSummary(ctx, chainClient, account, assetID, amount, networkName)

		if !noConfirm && !cfg.AutoConfirm {
			if !confirmPrompt("Proceed with transfer?") {
				fmt.Println("\nTransfer cancelled.")
				os.Exit(0)
			}
		}
	}

	sess, err := sessions.CreateSession(networkName, assetID, amount, "")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		sp.Suffix = " Starting transfer..."
		sp.Start()
	}

	// Signing prompts mirror a wallet UI: declining surfaces as a
	// signer-rejected failure, not an aborted process.
	if !noConfirm && !cfg.AutoConfirm && !jsonOutput {
		signer.SetConfirm(func(instr transfer.Instruction) bool {
			sp.Stop()
			ok := confirmPrompt(fmt.Sprintf("Sign transaction to %s?", instr.To.Hex()))
			if ok {
				sp.Start()
			}
			return ok
		})
	}

	// Watch phase transitions for progress feedback and to pick up the
	// approval reference before the transfer overwrites it
	watchDone := make(chan struct{})
	approvalTx := make(chan string, 1)
	go watchPhases(orch, sp, jsonOutput, approvalTx, watchDone)

	txRef, err := orch.TransferToDestination(ctx, assetID, amount)
	close(watchDone)
	sp.Stop()

	select {
	case tx := <-approvalTx:
		_ = sessions.RecordApproval(sess.ID, tx)
	default:
	}

	if err != nil {
		_ = sessions.MarkFailed(sess.ID, err.Error())
		reportFailure(orch.State(), jsonOutput)
		os.Exit(1)
	}

	_ = sessions.RecordTransfer(sess.ID, txRef)

	if jsonOutput {
		output := map[string]interface{}{
			"session_id":  sess.ID,
			"network":     networkName,
			"asset":       assetID,
			"amount":      amount,
			"transfer_tx": txRef,
			"status":      "transferred",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Transfer confirmed!")
	fmt.Printf("  Transaction: %s\n", color.CyanString(txRef))
	fmt.Printf("  Session:     %s\n", sess.ID)
	fmt.Println("\nTrack the payout with:")
	color.Cyan("  rampa history\n")
}

// checkProfile gates transfers on the recorded KYC and bank state
func checkProfile(profile session.Profile) error {
	if profile.KYC == session.KYCRejected {
		return fmt.Errorf("KYC verification was rejected; contact support before transferring")
	}
	if profile.Bank == nil {
		return fmt.Errorf("no bank account on file. Add one with: rampa bank --holder <name> --account <number> --ifsc <code>")
	}
	if profile.KYC != session.KYCVerified {
		color.Yellow("\nWarning: KYC is still %s; the INR payout will be held until it is verified.\n", profile.KYC)
	}
	return nil
}

func displayTransferSummary(ctx context.Context, chainClient *chain.Client, account common.Address, assetID, amount, networkName string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   CUSTODY TRANSFER")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Account:  %s\n", color.CyanString(account.Hex()))
	fmt.Printf("  Network:  %s\n", networkName)
	fmt.Printf("  Amount:   %s %s\n", amount, color.YellowString(assetLabel(assetID)))

	if balance := formatBalance(ctx, chainClient, account, assetID); balance != "" {
		fmt.Printf("  Balance:  %s %s\n", balance, assetLabel(assetID))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func assetLabel(assetID string) string {
	if assetID == transfer.NativeAssetID {
		return "native"
	}
	return assetID
}

// formatBalance renders the account's balance in human units; a read failure
// just omits the line
func formatBalance(ctx context.Context, chainClient *chain.Client, account common.Address, assetID string) string {
	var balance *big.Int
	decimals := uint8(transfer.NativeDecimals)
	var err error

	if assetID == transfer.NativeAssetID {
		balance, err = chainClient.NativeBalance(ctx, account)
	} else {
		if !common.IsHexAddress(assetID) {
			return ""
		}
		asset := common.HexToAddress(assetID)
		if decimals, err = chainClient.AssetDecimals(ctx, asset); err != nil {
			return ""
		}
		balance, err = chainClient.TokenBalance(ctx, asset, account)
	}
	if err != nil {
		return ""
	}

	human := new(big.Float).Quo(new(big.Float).SetInt(balance),
		new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	return human.Text('f', 6)
}

// watchPhases polls the orchestrator's observable state, updating the spinner
// and capturing the approval reference when the approval phase completes
func watchPhases(orch *transfer.Orchestrator, sp *spinner.Spinner, jsonOutput bool, approvalTx chan<- string, done <-chan struct{}) {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	var lastPhase transfer.Phase
	captured := false

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		st := orch.State()
		if st.Phase != lastPhase {
			lastPhase = st.Phase
			if !jsonOutput {
				sp.Suffix = phaseSuffix(st.Phase)
			}
		}
		if !captured && st.ApprovalRequired && st.Phase == transfer.PhaseTransferring && st.LastTxReference != "" {
			captured = true
			approvalTx <- st.LastTxReference
		}
	}
}

func phaseSuffix(phase transfer.Phase) string {
	switch phase {
	case transfer.PhaseCheckingApproval:
		return " Checking allowance..."
	case transfer.PhaseApproving:
		return " Awaiting approval confirmation..."
	case transfer.PhaseTransferring:
		return " Awaiting transfer confirmation..."
	default:
		return " Working..."
	}
}

func reportFailure(st transfer.State, jsonOutput bool) {
	if jsonOutput {
		output := map[string]interface{}{"status": "failed"}
		if st.FailureReason != nil {
			output["kind"] = st.FailureReason.Kind
			output["message"] = st.FailureReason.Message
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if st.FailureReason == nil {
		color.Red("\n✗ Transfer failed")
		return
	}

	color.Red("\n✗ Transfer failed: %s", st.FailureReason.Message)
	switch st.FailureReason.Kind {
	case transfer.ConfigurationError:
		color.Yellow("This network is not yet supported for payouts.")
	case transfer.OnChainRevert:
		color.Yellow("The transaction reverted on-chain. Check your balance and allowance, then retry.")
	default:
		if st.FailureReason.Kind.Retryable() {
			color.Yellow("You can retry the transfer.")
		}
	}
}

func confirmPrompt(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", question)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
