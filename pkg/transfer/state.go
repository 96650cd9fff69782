package transfer

import "fmt"

// Phase defines where an in-flight transfer currently is
type Phase string

const (
	PhaseIdle             Phase = "idle"              // No transfer in progress
	PhaseCheckingApproval Phase = "checking_approval" // Reading the current allowance
	PhaseApproving        Phase = "approving"         // Allowance increase awaiting signature/confirmation
	PhaseTransferring     Phase = "transferring"      // Transfer awaiting signature/confirmation
	PhaseCompleted        Phase = "completed"         // Transfer confirmed on-chain
	PhaseFailed           Phase = "failed"            // Attempt halted; see FailureReason
)

// FailureKind classifies why a transfer attempt halted
type FailureKind string

const (
	// ConfigurationError means no custody destination is configured for the
	// active network. Not retryable without operator intervention.
	ConfigurationError FailureKind = "configuration_error"
	// SignerRejected means the user declined to sign. Retryable.
	SignerRejected FailureKind = "signer_rejected"
	// SubmissionFailure means the network rejected the instruction before it
	// was mined (bad nonce, gas, connectivity). Retryable.
	SubmissionFailure FailureKind = "submission_failure"
	// OnChainRevert means the instruction was mined but reverted. The caller
	// should refresh balance/allowance before retrying.
	OnChainRevert FailureKind = "onchain_revert"
	// PreconditionUnmet means the call violated a precondition: malformed
	// input, or an ordering violation such as transferring before a required
	// approval confirmed. Not a transient condition.
	PreconditionUnmet FailureKind = "precondition_unmet"
)

// Retryable reports whether re-invoking the transfer may succeed without
// operator or code changes
func (k FailureKind) Retryable() bool {
	switch k {
	case SignerRejected, SubmissionFailure, OnChainRevert:
		return true
	default:
		return false
	}
}

// Failure carries the kind and diagnostic for a halted transfer attempt
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements the error interface
func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// State is the observable session state of one transfer attempt. It is owned
// by the orchestrator; callers read snapshots via Orchestrator.State.
type State struct {
	Phase            Phase    `json:"phase"`
	LastTxReference  string   `json:"last_tx_reference,omitempty"`
	FailureReason    *Failure `json:"failure_reason,omitempty"`
	ApprovalRequired bool     `json:"approval_required"`

	// approvalConfirmed is set once an allowance increase for this attempt
	// has been mined; ExecuteTransfer uses it to enforce ordering.
	approvalConfirmed bool
}

func newIdleState() State {
	return State{Phase: PhaseIdle}
}
