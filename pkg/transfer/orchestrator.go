package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// NativeAssetID is the sentinel asset identifier for the chain's base asset.
// Native transfers carry no approval semantics.
const NativeAssetID = "native"

// ERC20 approve and transfer function ABI
const erc20ABI = `[{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// ErrRejected is returned by a Signer when the user declines to sign
var ErrRejected = errors.New("signing request rejected")

// ErrReverted is returned by a Signer when a submitted instruction was mined
// but reverted
var ErrReverted = errors.New("transaction reverted on-chain")

// Instruction is a prepared on-chain action awaiting signature
type Instruction struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// PendingTx identifies a submitted, not yet confirmed instruction
type PendingTx struct {
	Hash common.Hash
}

// Signer signs and broadcasts instructions on behalf of the connected account.
// Implementations must return ErrRejected when the user declines to sign and
// ErrReverted when a confirmed instruction reverted.
type Signer interface {
	ConnectedAccount() (common.Address, error)
	CurrentNetwork() (uint64, error)
	SignAndSubmit(ctx context.Context, instr Instruction) (PendingTx, error)
	AwaitConfirmation(ctx context.Context, pending PendingTx) (string, error)
}

// Ledger reads the on-chain state needed for allowance checks and base-unit
// conversion
type Ledger interface {
	Allowance(ctx context.Context, owner, asset, spender common.Address) (*big.Int, error)
	AssetDecimals(ctx context.Context, asset common.Address) (uint8, error)
}

// DestinationTable resolves the platform's custody destination for a network
type DestinationTable interface {
	DestinationFor(networkID uint64) (common.Address, error)
}

// Orchestrator drives a value transfer from the connected account to the
// custody destination, inserting an allowance-approval step when the asset is
// not the chain's native asset. One orchestrator instance drives one transfer
// at a time; run independent transfers on separate instances.
type Orchestrator struct {
	signer       Signer
	ledger       Ledger
	destinations DestinationTable
	erc20        abi.ABI

	mu             sync.RWMutex
	state          State
	destination    common.Address
	destinationSet bool
}

// NewOrchestrator creates an orchestrator over the given collaborators
func NewOrchestrator(signer Signer, ledger Ledger, destinations DestinationTable) *Orchestrator {
	parsed, _ := abi.JSON(strings.NewReader(erc20ABI))
	return &Orchestrator{
		signer:       signer,
		ledger:       ledger,
		destinations: destinations,
		erc20:        parsed,
		state:        newIdleState(),
	}
}

// State returns a snapshot of the current transfer session state
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// ResetState returns the orchestrator to Idle, clearing any failure reason
// and transaction reference from the previous attempt
func (o *Orchestrator) ResetState() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = newIdleState()
	o.destination = common.Address{}
	o.destinationSet = false
}

// ResolveDestination looks up the custody destination for a network and
// records it for the current attempt. A network without a configured
// destination is a configuration error, not a recoverable runtime condition.
func (o *Orchestrator) ResolveDestination(networkID uint64) (common.Address, error) {
	destination, err := o.destinations.DestinationFor(networkID)
	if err != nil {
		return common.Address{}, o.fail(ConfigurationError,
			fmt.Sprintf("no custody destination for network %d", networkID), err)
	}

	o.mu.Lock()
	o.destination = destination
	o.destinationSet = true
	o.mu.Unlock()

	return destination, nil
}

// HasSufficientAllowance reports whether the account has already granted the
// custody destination an allowance covering the requested amount. Always true
// for the native asset. Side-effect free; does not mutate session state.
func (o *Orchestrator) HasSufficientAllowance(ctx context.Context, account common.Address, assetID, amount string) (bool, error) {
	if assetID == NativeAssetID {
		return true, nil
	}

	asset, err := parseAssetAddress(assetID)
	if err != nil {
		return false, err
	}

	destination, ok := o.resolvedDestination()
	if !ok {
		return false, fmt.Errorf("destination not resolved")
	}

	baseUnits, err := o.baseUnits(ctx, asset, assetID, amount)
	if err != nil {
		return false, err
	}

	allowance, err := o.ledger.Allowance(ctx, account, asset, destination)
	if err != nil {
		return false, fmt.Errorf("failed to read allowance: %w", err)
	}

	return allowance.Cmp(baseUnits) >= 0, nil
}

// RequestApproval issues an allowance increase for exactly the base-unit
// amount needed, awaits confirmation, and records the transaction reference.
// The exact (non-unlimited) amount keeps the blast radius of a compromised
// destination key minimal.
func (o *Orchestrator) RequestApproval(ctx context.Context, account common.Address, assetID, amount string) (string, error) {
	if assetID == NativeAssetID {
		return "", o.fail(PreconditionUnmet, "native asset has no approval semantics", nil)
	}
	if err := o.checkAccount(account); err != nil {
		return "", err
	}
	destination, ok := o.resolvedDestination()
	if !ok {
		return "", o.fail(PreconditionUnmet, "destination not resolved before approval", nil)
	}

	asset, err := parseAssetAddress(assetID)
	if err != nil {
		return "", o.fail(PreconditionUnmet, "invalid asset identifier", err)
	}
	decimals, err := o.ledger.AssetDecimals(ctx, asset)
	if err != nil {
		return "", o.fail(SubmissionFailure, "failed to read asset decimals", err)
	}
	baseUnits, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return "", o.fail(PreconditionUnmet, "invalid amount", err)
	}

	data, err := o.erc20.Pack("approve", destination, baseUnits)
	if err != nil {
		return "", o.fail(SubmissionFailure, "failed to pack approve data", err)
	}

	o.setPhase(PhaseApproving)
	log.Debug().
		Str("asset", assetID).
		Str("base_units", baseUnits.String()).
		Str("spender", destination.Hex()).
		Msg("requesting allowance approval")

	txRef, err := o.signAndConfirm(ctx, Instruction{To: asset, Value: big.NewInt(0), Data: data}, "approval")
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.state.LastTxReference = txRef
	o.state.approvalConfirmed = true
	o.mu.Unlock()

	return txRef, nil
}

// ExecuteTransfer moves the base-unit amount to the custody destination. For
// non-native assets a required approval must already be confirmed; this step
// never approves implicitly. An allowance that changed between check and
// execution surfaces as an on-chain revert, not a precondition violation.
func (o *Orchestrator) ExecuteTransfer(ctx context.Context, account common.Address, assetID, amount string) (string, error) {
	if err := o.checkAccount(account); err != nil {
		return "", err
	}
	destination, ok := o.resolvedDestination()
	if !ok {
		return "", o.fail(PreconditionUnmet, "destination not resolved before transfer", nil)
	}

	o.mu.RLock()
	approvalPending := o.state.ApprovalRequired && !o.state.approvalConfirmed
	o.mu.RUnlock()
	if approvalPending {
		return "", o.fail(PreconditionUnmet, "transfer requested before required approval confirmed", nil)
	}

	var instr Instruction
	if assetID == NativeAssetID {
		baseUnits, err := ToBaseUnits(amount, NativeDecimals)
		if err != nil {
			return "", o.fail(PreconditionUnmet, "invalid amount", err)
		}
		instr = Instruction{To: destination, Value: baseUnits}
	} else {
		asset, err := parseAssetAddress(assetID)
		if err != nil {
			return "", o.fail(PreconditionUnmet, "invalid asset identifier", err)
		}
		decimals, err := o.ledger.AssetDecimals(ctx, asset)
		if err != nil {
			return "", o.fail(SubmissionFailure, "failed to read asset decimals", err)
		}
		baseUnits, err := ToBaseUnits(amount, decimals)
		if err != nil {
			return "", o.fail(PreconditionUnmet, "invalid amount", err)
		}
		data, err := o.erc20.Pack("transfer", destination, baseUnits)
		if err != nil {
			return "", o.fail(SubmissionFailure, "failed to pack transfer data", err)
		}
		instr = Instruction{To: asset, Value: big.NewInt(0), Data: data}
	}

	o.setPhase(PhaseTransferring)
	log.Debug().
		Str("asset", assetID).
		Str("amount", amount).
		Str("destination", destination.Hex()).
		Msg("executing transfer")

	txRef, err := o.signAndConfirm(ctx, instr, "transfer")
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.state.LastTxReference = txRef
	o.state.Phase = PhaseCompleted
	o.mu.Unlock()

	return txRef, nil
}

// TransferToDestination is the orchestrating entry point: it resolves the
// custody destination for the current network, inserts an approval when the
// allowance is insufficient, and executes the transfer. A required approval is
// always confirmed strictly before the transfer is signed.
func (o *Orchestrator) TransferToDestination(ctx context.Context, assetID, amount string) (string, error) {
	o.ResetState()

	// Malformed input halts the attempt before any chain read or signing
	// prompt. Only the fraction-length check waits for the asset's decimals.
	if err := ValidateAmount(amount); err != nil {
		return "", o.fail(PreconditionUnmet, "invalid amount", err)
	}
	if assetID != NativeAssetID {
		if _, err := parseAssetAddress(assetID); err != nil {
			return "", o.fail(PreconditionUnmet, "invalid asset identifier", err)
		}
	}

	account, err := o.signer.ConnectedAccount()
	if err != nil {
		return "", o.fail(ConfigurationError, "no connected account", err)
	}
	networkID, err := o.signer.CurrentNetwork()
	if err != nil {
		return "", o.fail(ConfigurationError, "failed to determine current network", err)
	}
	if _, err := o.ResolveDestination(networkID); err != nil {
		return "", err
	}

	if assetID != NativeAssetID {
		o.setPhase(PhaseCheckingApproval)
		sufficient, err := o.HasSufficientAllowance(ctx, account, assetID, amount)
		if err != nil {
			return "", o.fail(SubmissionFailure, "allowance check failed", err)
		}
		if !sufficient {
			o.mu.Lock()
			o.state.ApprovalRequired = true
			o.mu.Unlock()

			if _, err := o.RequestApproval(ctx, account, assetID, amount); err != nil {
				return "", err
			}
		}
	}

	return o.ExecuteTransfer(ctx, account, assetID, amount)
}

// signAndConfirm submits one instruction and waits for it to be mined,
// mapping signer and network failures onto the failure taxonomy
func (o *Orchestrator) signAndConfirm(ctx context.Context, instr Instruction, step string) (string, error) {
	pending, err := o.signer.SignAndSubmit(ctx, instr)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return "", o.fail(SignerRejected, fmt.Sprintf("%s rejected by signer", step), err)
		}
		return "", o.fail(SubmissionFailure, fmt.Sprintf("failed to submit %s", step), err)
	}

	txRef, err := o.signer.AwaitConfirmation(ctx, pending)
	if err != nil {
		if errors.Is(err, ErrReverted) {
			return "", o.fail(OnChainRevert, fmt.Sprintf("%s reverted on-chain", step), err)
		}
		return "", o.fail(SubmissionFailure, fmt.Sprintf("%s confirmation failed", step), err)
	}

	return txRef, nil
}

// baseUnits converts a human amount using the asset's declared precision
func (o *Orchestrator) baseUnits(ctx context.Context, asset common.Address, assetID, amount string) (*big.Int, error) {
	decimals, err := o.ledger.AssetDecimals(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to read decimals for %s: %w", assetID, err)
	}
	return ToBaseUnits(amount, decimals)
}

// checkAccount verifies the caller is acting for the connected account
func (o *Orchestrator) checkAccount(account common.Address) error {
	connected, err := o.signer.ConnectedAccount()
	if err != nil {
		return o.fail(ConfigurationError, "no connected account", err)
	}
	if connected != account {
		return o.fail(PreconditionUnmet, "account does not match the connected signer account", nil)
	}
	return nil
}

func (o *Orchestrator) resolvedDestination() (common.Address, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.destination, o.destinationSet
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.mu.Lock()
	o.state.Phase = phase
	o.mu.Unlock()
}

// fail halts the attempt: the state moves to Failed with the failure recorded,
// and the same failure is returned as the error
func (o *Orchestrator) fail(kind FailureKind, message string, err error) error {
	failure := newFailure(kind, message, err)

	o.mu.Lock()
	o.state.Phase = PhaseFailed
	o.state.FailureReason = failure
	o.mu.Unlock()

	log.Debug().Str("kind", string(kind)).Err(err).Msg(message)
	return failure
}

func parseAssetAddress(assetID string) (common.Address, error) {
	if !common.IsHexAddress(assetID) {
		return common.Address{}, fmt.Errorf("invalid asset identifier: %s", assetID)
	}
	return common.HexToAddress(assetID), nil
}
