package session

import (
	"fmt"
	"regexp"
	"time"
)

// KYCStatus defines where the user's identity verification stands. The
// verification itself happens with an external compliance provider; only the
// recorded outcome lives here.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"  // Verification not yet completed
	KYCVerified KYCStatus = "verified" // Identity verified by the provider
	KYCRejected KYCStatus = "rejected" // Verification failed
)

// Status defines the state of a single payout session
type Status string

const (
	StatusCreated     Status = "created"     // Session recorded, transfer not yet confirmed
	StatusTransferred Status = "transferred" // Funds confirmed at the custody destination
	StatusSettled     Status = "settled"     // INR payout confirmed by the payment rail
	StatusFailed      Status = "failed"      // Transfer attempt halted
)

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// BankAccount holds the INR payout destination details
type BankAccount struct {
	HolderName    string `json:"holder_name"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// Validate checks the bank details are shaped like a payable INR account
func (b *BankAccount) Validate() error {
	if b.HolderName == "" {
		return fmt.Errorf("account holder name is required")
	}
	if len(b.AccountNumber) < 6 || len(b.AccountNumber) > 18 {
		return fmt.Errorf("account number must be between 6 and 18 digits")
	}
	for i := 0; i < len(b.AccountNumber); i++ {
		if b.AccountNumber[i] < '0' || b.AccountNumber[i] > '9' {
			return fmt.Errorf("account number must contain only digits")
		}
	}
	if !ifscPattern.MatchString(b.IFSC) {
		return fmt.Errorf("invalid IFSC code: %s", b.IFSC)
	}
	return nil
}

// Profile holds the per-user off-ramp state shared by all sessions
type Profile struct {
	KYC  KYCStatus    `json:"kyc"`
	Bank *BankAccount `json:"bank,omitempty"`
}

// PayoutSession records one attempt to move funds to custody for an INR payout
type PayoutSession struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	LastUpdated  time.Time `json:"last_updated"`
	Network      string    `json:"network"`
	AssetID      string    `json:"asset_id"`
	Amount       string    `json:"amount"`
	ApprovalTx   string    `json:"approval_tx,omitempty"`
	TransferTx   string    `json:"transfer_tx,omitempty"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	INREstimate  string    `json:"inr_estimate,omitempty"`
}

// IsTerminal returns true once the session can no longer change state
func (s *PayoutSession) IsTerminal() bool {
	return s.Status == StatusSettled || s.Status == StatusFailed
}
