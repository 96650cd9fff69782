package transfer

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	testAccount     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testDestination = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testToken       = "0x3333333333333333333333333333333333333333"
)

// fakeSigner records every submission and the orchestrator phase it was
// issued in
type fakeSigner struct {
	account common.Address
	network uint64

	events *[]string
	phase  func() Phase

	rejectSubmission int // 1-based index of the submission to reject, 0 = never
	revertSubmission int // 1-based index of the submission to revert, 0 = never
	submissions      []Instruction
	submissionPhases []Phase
	confirmations    []string
}

func (f *fakeSigner) ConnectedAccount() (common.Address, error) { return f.account, nil }
func (f *fakeSigner) CurrentNetwork() (uint64, error)           { return f.network, nil }

func (f *fakeSigner) SignAndSubmit(ctx context.Context, instr Instruction) (PendingTx, error) {
	n := len(f.submissions) + 1
	if f.rejectSubmission == n {
		*f.events = append(*f.events, "reject")
		return PendingTx{}, ErrRejected
	}

	f.submissions = append(f.submissions, instr)
	f.submissionPhases = append(f.submissionPhases, f.phase())
	*f.events = append(*f.events, fmt.Sprintf("submit-%d", n))

	return PendingTx{Hash: common.BigToHash(big.NewInt(int64(n)))}, nil
}

func (f *fakeSigner) AwaitConfirmation(ctx context.Context, pending PendingTx) (string, error) {
	n := pending.Hash.Big().Int64()
	if f.revertSubmission == int(n) {
		*f.events = append(*f.events, "revert")
		return "", fmt.Errorf("receipt status 0: %w", ErrReverted)
	}

	ref := pending.Hash.Hex()
	f.confirmations = append(f.confirmations, ref)
	*f.events = append(*f.events, fmt.Sprintf("confirm-%d", n))
	return ref, nil
}

// fakeLedger serves a fixed allowance and decimal precision, counting reads
type fakeLedger struct {
	events *[]string

	allowance *big.Int
	decimals  uint8

	allowanceReads int
	decimalsReads  int
}

func (f *fakeLedger) Allowance(ctx context.Context, owner, asset, spender common.Address) (*big.Int, error) {
	f.allowanceReads++
	*f.events = append(*f.events, "allowance-read")
	return f.allowance, nil
}

func (f *fakeLedger) AssetDecimals(ctx context.Context, asset common.Address) (uint8, error) {
	f.decimalsReads++
	return f.decimals, nil
}

// fakeTable resolves a single configured network
type fakeTable struct {
	network     uint64
	destination common.Address
}

func (f *fakeTable) DestinationFor(networkID uint64) (common.Address, error) {
	if networkID != f.network {
		return common.Address{}, fmt.Errorf("no custody destination configured for network %d", networkID)
	}
	return f.destination, nil
}

type OrchestratorTestSuite struct {
	suite.Suite

	events []string
	signer *fakeSigner
	ledger *fakeLedger
	table  *fakeTable
	orch   *Orchestrator
}

func TestRunOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.events = nil
	s.signer = &fakeSigner{account: testAccount, network: 1, events: &s.events}
	s.ledger = &fakeLedger{events: &s.events, allowance: big.NewInt(0), decimals: 6}
	s.table = &fakeTable{network: 1, destination: testDestination}
	s.orch = NewOrchestrator(s.signer, s.ledger, s.table)
	s.signer.phase = func() Phase { return s.orch.State().Phase }
}

func (s *OrchestratorTestSuite) Test_NativeTransfer_BypassesApproval() {
	txRef, err := s.orch.TransferToDestination(context.Background(), NativeAssetID, "0.5")

	s.Require().NoError(err)
	s.Require().NotEmpty(txRef)

	// Direct Idle -> Transferring -> Completed: no allowance read, no
	// approval submission
	s.Equal(0, s.ledger.allowanceReads)
	s.Equal(0, s.ledger.decimalsReads)
	s.Require().Len(s.signer.submissions, 1)
	s.Equal(PhaseTransferring, s.signer.submissionPhases[0])

	st := s.orch.State()
	s.Equal(PhaseCompleted, st.Phase)
	s.Equal(txRef, st.LastTxReference)
	s.False(st.ApprovalRequired)

	// 0.5 native units = 5e17 base units at 18 decimals
	s.Equal("500000000000000000", s.signer.submissions[0].Value.String())
	s.Equal(testDestination, s.signer.submissions[0].To)
	s.Empty(s.signer.submissions[0].Data)
}

func (s *OrchestratorTestSuite) Test_TokenTransfer_ApprovesBeforeTransferring() {
	txRef, err := s.orch.TransferToDestination(context.Background(), testToken, "100.0")

	s.Require().NoError(err)
	s.Require().NotEmpty(txRef)

	// Approval must be submitted AND confirmed strictly before the
	// transfer is submitted
	s.Equal([]string{"allowance-read", "submit-1", "confirm-1", "submit-2", "confirm-2"}, s.events)
	s.Require().Len(s.signer.submissions, 2)
	s.Equal(PhaseApproving, s.signer.submissionPhases[0])
	s.Equal(PhaseTransferring, s.signer.submissionPhases[1])

	// Two distinct references, the transfer's recorded last
	s.Require().Len(s.signer.confirmations, 2)
	s.NotEqual(s.signer.confirmations[0], s.signer.confirmations[1])
	st := s.orch.State()
	s.Equal(PhaseCompleted, st.Phase)
	s.Equal(s.signer.confirmations[1], st.LastTxReference)
	s.True(st.ApprovalRequired)

	// approve(destination, 100000000): 100.0 at 6 decimals
	approve := s.signer.submissions[0]
	s.Equal(common.HexToAddress(testToken), approve.To)
	s.Equal("100000000", new(big.Int).SetBytes(approve.Data[len(approve.Data)-32:]).String())
	spender := common.BytesToAddress(approve.Data[4:36])
	s.Equal(testDestination, spender)

	transferInstr := s.signer.submissions[1]
	s.Equal(common.HexToAddress(testToken), transferInstr.To)
	s.Equal("100000000", new(big.Int).SetBytes(transferInstr.Data[len(transferInstr.Data)-32:]).String())
}

func (s *OrchestratorTestSuite) Test_TokenTransfer_SkipsApprovalWhenAllowanceSufficient() {
	s.ledger.allowance = big.NewInt(200000000) // covers 100.0 at 6 decimals

	_, err := s.orch.TransferToDestination(context.Background(), testToken, "100.0")

	s.Require().NoError(err)
	s.Require().Len(s.signer.submissions, 1)
	s.Equal(PhaseTransferring, s.signer.submissionPhases[0])

	st := s.orch.State()
	s.Equal(PhaseCompleted, st.Phase)
	s.False(st.ApprovalRequired)
}

func (s *OrchestratorTestSuite) Test_SignerRejection_HaltsBeforeTransfer() {
	s.signer.rejectSubmission = 1 // reject the approval

	_, err := s.orch.TransferToDestination(context.Background(), testToken, "100.0")

	s.Require().Error(err)
	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(SignerRejected, failure.Kind)

	// The transfer was never submitted
	s.Empty(s.signer.submissions)
	s.Equal([]string{"allowance-read", "reject"}, s.events)

	st := s.orch.State()
	s.Equal(PhaseFailed, st.Phase)
	s.Require().NotNil(st.FailureReason)
	s.Equal(SignerRejected, st.FailureReason.Kind)
}

func (s *OrchestratorTestSuite) Test_OnChainRevert_SurfacesAsTransferFailure() {
	s.ledger.allowance = big.NewInt(200000000)
	s.signer.revertSubmission = 1 // the transfer itself reverts

	_, err := s.orch.TransferToDestination(context.Background(), testToken, "100.0")

	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(OnChainRevert, failure.Kind)
	s.Equal(PhaseFailed, s.orch.State().Phase)
}

func (s *OrchestratorTestSuite) Test_UnconfiguredNetwork_FailsBeforeSigning() {
	s.signer.network = 42 // not in the table

	_, err := s.orch.TransferToDestination(context.Background(), NativeAssetID, "1")

	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(ConfigurationError, failure.Kind)
	s.False(failure.Kind.Retryable())
	s.Empty(s.signer.submissions)
}

func (s *OrchestratorTestSuite) Test_InvalidAmounts_RejectedBeforeAnyCall() {
	for _, assetID := range []string{NativeAssetID, testToken} {
		for _, amount := range []string{"0", "0.0", "-1", "abc", "1.2.3", ""} {
			s.SetupTest()
			_, err := s.orch.TransferToDestination(context.Background(), assetID, amount)

			s.Require().Error(err, "asset %s amount %q", assetID, amount)
			var failure *Failure
			s.Require().ErrorAs(err, &failure)
			s.Equal(PreconditionUnmet, failure.Kind)
			s.False(failure.Kind.Retryable())

			// Rejected before any chain read or signing request
			s.Empty(s.signer.submissions, "asset %s amount %q", assetID, amount)
			s.Equal(0, s.ledger.allowanceReads, "asset %s amount %q", assetID, amount)
			s.Equal(0, s.ledger.decimalsReads, "asset %s amount %q", assetID, amount)
		}
	}
}

func (s *OrchestratorTestSuite) Test_InvalidAsset_RejectedBeforeAnyCall() {
	_, err := s.orch.TransferToDestination(context.Background(), "0xnot-an-address", "1")

	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(PreconditionUnmet, failure.Kind)
	s.Empty(s.signer.submissions)
	s.Equal(0, s.ledger.allowanceReads)
	s.Equal(0, s.ledger.decimalsReads)
}

func (s *OrchestratorTestSuite) Test_ResetState_IsolatesAttempts() {
	s.signer.rejectSubmission = 1
	_, err := s.orch.TransferToDestination(context.Background(), testToken, "100.0")
	s.Require().Error(err)
	s.Equal(PhaseFailed, s.orch.State().Phase)

	s.orch.ResetState()
	st := s.orch.State()
	s.Equal(PhaseIdle, st.Phase)
	s.Nil(st.FailureReason)
	s.Empty(st.LastTxReference)
	s.False(st.ApprovalRequired)

	// A fresh attempt proceeds independently of the prior outcome
	s.signer.rejectSubmission = 0
	_, err = s.orch.TransferToDestination(context.Background(), testToken, "100.0")
	s.Require().NoError(err)
	s.Equal(PhaseCompleted, s.orch.State().Phase)
}

func (s *OrchestratorTestSuite) Test_ExecuteTransfer_RequiresResolvedDestination() {
	_, err := s.orch.ExecuteTransfer(context.Background(), testAccount, NativeAssetID, "1")

	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(PreconditionUnmet, failure.Kind)
	s.False(failure.Kind.Retryable())
}

func (s *OrchestratorTestSuite) Test_ExecuteTransfer_RejectsUnknownAccount() {
	_, err := s.orch.ResolveDestination(1)
	s.Require().NoError(err)

	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	_, err = s.orch.ExecuteTransfer(context.Background(), other, NativeAssetID, "1")

	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(PreconditionUnmet, failure.Kind)
}

func (s *OrchestratorTestSuite) Test_HasSufficientAllowance_IsSideEffectFree() {
	_, err := s.orch.ResolveDestination(1)
	s.Require().NoError(err)

	before := s.orch.State()
	ok, err := s.orch.HasSufficientAllowance(context.Background(), testAccount, testToken, "1")
	s.Require().NoError(err)
	s.False(ok)
	s.Equal(before, s.orch.State())

	// Native sentinel: always sufficient, no chain read
	reads := s.ledger.allowanceReads
	ok, err = s.orch.HasSufficientAllowance(context.Background(), testAccount, NativeAssetID, "999999")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(reads, s.ledger.allowanceReads)
}

func TestFailure_ErrorString(t *testing.T) {
	f := newFailure(SubmissionFailure, "failed to submit transfer", fmt.Errorf("nonce too low"))
	require.Contains(t, f.Error(), "submission_failure")
	require.Contains(t, f.Error(), "nonce too low")
	require.ErrorIs(t, f, f.Err)
}
