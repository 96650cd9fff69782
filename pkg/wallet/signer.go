package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"rampa/config"
	"rampa/pkg/transfer"
)

const receiptPollInterval = 3 * time.Second

// ConfirmFunc is consulted before each signing request. Returning false
// declines the request, the CLI analogue of rejecting a wallet prompt.
type ConfirmFunc func(instr transfer.Instruction) bool

// KeySigner signs and broadcasts instructions with a locally configured
// private key. It implements transfer.Signer.
type KeySigner struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	account    common.Address
	chainID    uint64
	gasLimit   *uint64
	gasPrice   *int64
	confirm    ConfirmFunc
}

// NewKeySigner creates a signer for the given network from a hex-encoded
// private key
func NewKeySigner(client *ethclient.Client, hexKey string, network config.NetworkConfig) (*KeySigner, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to get public key")
	}

	return &KeySigner{
		client:     client,
		privateKey: privateKey,
		account:    crypto.PubkeyToAddress(*publicKey),
		chainID:    network.ChainID,
		gasLimit:   network.GasLimit,
		gasPrice:   network.GasPrice,
	}, nil
}

// SetConfirm installs a confirmation hook consulted before signing
func (s *KeySigner) SetConfirm(confirm ConfirmFunc) {
	s.confirm = confirm
}

// ConnectedAccount returns the address derived from the configured key
func (s *KeySigner) ConnectedAccount() (common.Address, error) {
	return s.account, nil
}

// CurrentNetwork returns the chain identifier the signer is configured for
func (s *KeySigner) CurrentNetwork() (uint64, error) {
	return s.chainID, nil
}

// SignAndSubmit signs the instruction and broadcasts it. A declined
// confirmation surfaces as transfer.ErrRejected.
func (s *KeySigner) SignAndSubmit(ctx context.Context, instr transfer.Instruction) (transfer.PendingTx, error) {
	if s.confirm != nil && !s.confirm(instr) {
		return transfer.PendingTx{}, transfer.ErrRejected
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.account)
	if err != nil {
		return transfer.PendingTx{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.getGasPrice(ctx)
	if err != nil {
		return transfer.PendingTx{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := s.getGasLimit(ctx, instr)
	if err != nil {
		return transfer.PendingTx{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	value := instr.Value
	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTransaction(nonce, instr.To, value, gasLimit, gasPrice, instr.Data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(new(big.Int).SetUint64(s.chainID)), s.privateKey)
	if err != nil {
		return transfer.PendingTx{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return transfer.PendingTx{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	log.Debug().Str("tx", signedTx.Hash().Hex()).Uint64("nonce", nonce).Msg("transaction submitted")
	return transfer.PendingTx{Hash: signedTx.Hash()}, nil
}

// AwaitConfirmation polls until the submitted instruction is mined. A mined
// but reverted instruction surfaces as transfer.ErrReverted.
func (s *KeySigner) AwaitConfirmation(ctx context.Context, pending transfer.PendingTx) (string, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, pending.Hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return "", fmt.Errorf("%s: %w", pending.Hash.Hex(), transfer.ErrReverted)
			}
			log.Debug().
				Str("tx", pending.Hash.Hex()).
				Uint64("block", receipt.BlockNumber.Uint64()).
				Msg("transaction confirmed")
			return pending.Hash.Hex(), nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// getGasPrice returns the gas price to use for transactions
func (s *KeySigner) getGasPrice(ctx context.Context) (*big.Int, error) {
	if s.gasPrice != nil {
		return big.NewInt(*s.gasPrice), nil
	}
	return s.client.SuggestGasPrice(ctx)
}

// getGasLimit returns the configured gas limit, or an estimate with a 20% buffer
func (s *KeySigner) getGasLimit(ctx context.Context, instr transfer.Instruction) (uint64, error) {
	if s.gasLimit != nil {
		return *s.gasLimit, nil
	}

	if len(instr.Data) == 0 {
		return 21000, nil // standard value transfer
	}

	msg := ethereum.CallMsg{
		From:  s.account,
		To:    &instr.To,
		Value: instr.Value,
		Data:  instr.Data,
	}
	estimated, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, err
	}
	return estimated * 120 / 100, nil
}
