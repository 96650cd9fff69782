package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// ERC20 read-only function ABI
const erc20ReadABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// Client provides read access to on-chain state. It implements
// transfer.Ledger.
type Client struct {
	client *ethclient.Client
	erc20  abi.ABI
}

// Dial connects to an RPC endpoint and returns a chain client
func Dial(rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return NewClient(client), nil
}

// NewClient wraps an existing ethclient connection
func NewClient(client *ethclient.Client) *Client {
	parsed, _ := abi.JSON(strings.NewReader(erc20ReadABI))
	return &Client{client: client, erc20: parsed}
}

// Eth exposes the underlying connection for collaborators that sign and
// broadcast transactions
func (c *Client) Eth() *ethclient.Client {
	return c.client
}

// Allowance reads the amount of a token the owner has authorized the spender
// to move
func (c *Client) Allowance(ctx context.Context, owner, asset, spender common.Address) (*big.Int, error) {
	result, err := c.callERC20(ctx, asset, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to read allowance: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// AssetDecimals reads a token's declared decimal precision
func (c *Client) AssetDecimals(ctx context.Context, asset common.Address) (uint8, error) {
	result, err := c.callERC20(ctx, asset, "decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to read decimals: %w", err)
	}
	decimals := new(big.Int).SetBytes(result)
	if !decimals.IsUint64() || decimals.Uint64() > 255 {
		return 0, fmt.Errorf("token reported invalid decimals: %s", decimals.String())
	}
	return uint8(decimals.Uint64()), nil
}

// NativeBalance reads the account's balance of the chain's base asset
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// TokenBalance reads the account's balance of a token asset
func (c *Client) TokenBalance(ctx context.Context, asset, account common.Address) (*big.Int, error) {
	result, err := c.callERC20(ctx, asset, "balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// TransactionInfo retrieves summary information about a transaction
func (c *Client) TransactionInfo(ctx context.Context, txHash string) (map[string]interface{}, error) {
	hash := common.HexToHash(txHash)

	tx, isPending, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if err != nil && !isPending {
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	info := map[string]interface{}{
		"hash":      tx.Hash().Hex(),
		"nonce":     tx.Nonce(),
		"gas_price": tx.GasPrice().String(),
		"gas_limit": tx.Gas(),
		"to":        "",
		"value":     tx.Value().String(),
		"pending":   isPending,
	}

	if tx.To() != nil {
		info["to"] = tx.To().Hex()
	}

	if receipt != nil {
		info["block_number"] = receipt.BlockNumber.Uint64()
		info["gas_used"] = receipt.GasUsed
		info["status"] = receipt.Status
	}

	return info, nil
}

// Close closes the underlying connection
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) callERC20(ctx context.Context, asset common.Address, method string, args ...interface{}) ([]byte, error) {
	data, err := c.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &asset, Data: data}
	result, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("asset", asset.Hex()).Str("method", method).Msg("contract read")
	return result, nil
}
