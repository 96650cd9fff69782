package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Manager provides high-level operations over payout sessions
type Manager struct {
	storage *Storage
}

// NewManager creates a session manager backed by the given storage path
func NewManager(storagePath string) (*Manager, error) {
	storage, err := NewStorage(storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	return &Manager{storage: storage}, nil
}

// CreateSession records a new payout session before the transfer begins
func (m *Manager) CreateSession(network, assetID, amount, inrEstimate string) (*PayoutSession, error) {
	now := time.Now()
	sess := &PayoutSession{
		ID:          uuid.New().String(),
		Created:     now,
		LastUpdated: now,
		Network:     network,
		AssetID:     assetID,
		Amount:      amount,
		Status:      StatusCreated,
		INREstimate: inrEstimate,
	}

	if err := m.storage.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// RecordApproval attaches a confirmed approval transaction to a session
func (m *Manager) RecordApproval(id, txHash string) error {
	return m.update(id, func(sess *PayoutSession) {
		sess.ApprovalTx = txHash
	})
}

// RecordTransfer attaches the confirmed transfer transaction and marks the
// session transferred
func (m *Manager) RecordTransfer(id, txHash string) error {
	return m.update(id, func(sess *PayoutSession) {
		sess.TransferTx = txHash
		sess.Status = StatusTransferred
	})
}

// MarkSettled records that the INR payout completed
func (m *Manager) MarkSettled(id string) error {
	return m.update(id, func(sess *PayoutSession) {
		sess.Status = StatusSettled
	})
}

// MarkFailed records a halted transfer attempt
func (m *Manager) MarkFailed(id, reason string) error {
	return m.update(id, func(sess *PayoutSession) {
		sess.Status = StatusFailed
		sess.ErrorMessage = reason
	})
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(id string) (*PayoutSession, error) {
	return m.storage.Get(id)
}

// ListSessions returns all sessions, newest first
func (m *Manager) ListSessions() []*PayoutSession {
	sessions := m.storage.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Created.After(sessions[j].Created)
	})
	return sessions
}

// Profile returns the stored user profile
func (m *Manager) Profile() Profile {
	return m.storage.Profile()
}

// SetBankAccount validates and stores the INR payout account
func (m *Manager) SetBankAccount(bank *BankAccount) error {
	if err := bank.Validate(); err != nil {
		return err
	}

	profile := m.storage.Profile()
	profile.Bank = bank
	return m.storage.SetProfile(profile)
}

// SetKYCStatus records the outcome reported by the compliance provider
func (m *Manager) SetKYCStatus(status KYCStatus) error {
	switch status {
	case KYCPending, KYCVerified, KYCRejected:
	default:
		return fmt.Errorf("invalid KYC status: %s", status)
	}

	profile := m.storage.Profile()
	profile.KYC = status
	return m.storage.SetProfile(profile)
}

func (m *Manager) update(id string, apply func(*PayoutSession)) error {
	sess, err := m.storage.Get(id)
	if err != nil {
		return err
	}
	apply(sess)
	sess.LastUpdated = time.Now()
	return m.storage.Update(sess)
}
