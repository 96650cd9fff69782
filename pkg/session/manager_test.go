package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	return m
}

func TestManager_SessionLifecycle(t *testing.T) {
	m := newTestManager(t)

	sess, err := m.CreateSession("ethereum", "native", "0.5", "3400.00")
	require.NoError(t, err)
	require.Equal(t, StatusCreated, sess.Status)
	require.NotEmpty(t, sess.ID)

	require.NoError(t, m.RecordApproval(sess.ID, "0xaaa"))
	require.NoError(t, m.RecordTransfer(sess.ID, "0xbbb"))

	got, err := m.GetSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, "0xaaa", got.ApprovalTx)
	require.Equal(t, "0xbbb", got.TransferTx)
	require.Equal(t, StatusTransferred, got.Status)
	require.False(t, got.IsTerminal())

	require.NoError(t, m.MarkSettled(sess.ID))
	got, err = m.GetSession(sess.ID)
	require.NoError(t, err)
	require.True(t, got.IsTerminal())
}

func TestManager_MarkFailed(t *testing.T) {
	m := newTestManager(t)

	sess, err := m.CreateSession("polygon", "0x3333333333333333333333333333333333333333", "100", "")
	require.NoError(t, err)

	require.NoError(t, m.MarkFailed(sess.ID, "signer_rejected: approval rejected by signer"))

	got, err := m.GetSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage, "signer_rejected")
	require.True(t, got.IsTerminal())
}

func TestManager_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	m, err := NewManager(path)
	require.NoError(t, err)

	sess, err := m.CreateSession("ethereum", "native", "1", "")
	require.NoError(t, err)
	require.NoError(t, m.SetBankAccount(&BankAccount{
		HolderName:    "A Sharma",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
	}))
	require.NoError(t, m.SetKYCStatus(KYCVerified))

	reopened, err := NewManager(path)
	require.NoError(t, err)

	got, err := reopened.GetSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, "native", got.AssetID)

	profile := reopened.Profile()
	require.Equal(t, KYCVerified, profile.KYC)
	require.NotNil(t, profile.Bank)
	require.Equal(t, "HDFC0001234", profile.Bank.IFSC)
}

func TestManager_ListSessionsNewestFirst(t *testing.T) {
	m := newTestManager(t)

	first, err := m.CreateSession("ethereum", "native", "1", "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := m.CreateSession("ethereum", "native", "2", "")
	require.NoError(t, err)

	list := m.ListSessions()
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestManager_RejectsInvalidKYCStatus(t *testing.T) {
	m := newTestManager(t)
	require.Error(t, m.SetKYCStatus("approved-ish"))
}

func TestBankAccount_Validate(t *testing.T) {
	valid := BankAccount{HolderName: "A Sharma", AccountNumber: "123456789012", IFSC: "HDFC0001234"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		bank BankAccount
	}{
		{"missing holder", BankAccount{AccountNumber: "123456789012", IFSC: "HDFC0001234"}},
		{"short account", BankAccount{HolderName: "A", AccountNumber: "123", IFSC: "HDFC0001234"}},
		{"non-digit account", BankAccount{HolderName: "A", AccountNumber: "12345678x", IFSC: "HDFC0001234"}},
		{"bad ifsc", BankAccount{HolderName: "A", AccountNumber: "123456789012", IFSC: "HDFC1234"}},
		{"lowercase ifsc", BankAccount{HolderName: "A", AccountNumber: "123456789012", IFSC: "hdfc0001234"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.bank.Validate())
		})
	}
}
