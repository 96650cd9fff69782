package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"rampa/pkg/transfer"
	"rampa/pkg/types"
)

// StableSymbol is the stablecoin every off-ramp quote settles into before the
// INR payout leg
const StableSymbol = "USDC"

// AggregatorClient wraps the DEX-aggregation API used to quote volatile
// tokens into the payout stablecoin
type AggregatorClient struct {
	client *oneclick.APIClient
	ctx    context.Context
}

// NewAggregatorClient creates an authenticated aggregator client
func NewAggregatorClient(jwtToken string) *AggregatorClient {
	config := oneclick.NewConfiguration()
	ctx := context.WithValue(context.Background(), oneclick.ContextAccessToken, jwtToken)

	return &AggregatorClient{
		client: oneclick.NewAPIClient(config),
		ctx:    ctx,
	}
}

// GetSupportedTokens retrieves all tokens the aggregator can quote
func (c *AggregatorClient) GetSupportedTokens() ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// FindTokenOnChain searches for a token by symbol on a specific chain
func (c *AggregatorClient) FindTokenOnChain(symbol, chain string) (*oneclick.TokenResponse, error) {
	tokens, err := c.GetSupportedTokens()
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	chain = strings.ToLower(chain)

	for _, token := range tokens {
		if strings.ToUpper(token.GetSymbol()) == symbol &&
			strings.ToLower(token.GetBlockchain()) == chain {
			return &token, nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found on chain '%s'", symbol, chain)
}

// GetOfframpQuote quotes the requested token into the payout stablecoin on
// the same chain
func (c *AggregatorClient) GetOfframpQuote(req *types.QuoteRequest) (*oneclick.QuoteResponse, error) {
	sourceToken, err := c.FindTokenOnChain(req.Token, req.Chain)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}

	stableToken, err := c.FindTokenOnChain(StableSymbol, req.Chain)
	if err != nil {
		return nil, fmt.Errorf("stablecoin not available on chain '%s': %w", req.Chain, err)
	}

	// The aggregator wants the amount in the token's smallest unit
	amountStr, err := smallestUnit(req.Amount, sourceToken.GetDecimals())
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	recipient := req.RecipientAddr
	if recipient == "" {
		return nil, fmt.Errorf("recipient address is required")
	}
	refundTo := req.RefundAddr
	if refundTo == "" {
		refundTo = recipient
	}

	deadline := time.Now().Add(24 * time.Hour)

	quoteReq := oneclick.NewQuoteRequest(
		false,                    // dry - false to get a real deposit address
		"EXACT_INPUT",            // swapType
		100,                      // slippageTolerance (1%)
		sourceToken.GetAssetId(), // originAsset
		"ORIGIN_CHAIN",           // depositType
		stableToken.GetAssetId(), // destinationAsset
		amountStr,                // amount in smallest unit
		refundTo,                 // refundTo
		"ORIGIN_CHAIN",           // refundType
		recipient,                // recipient
		"DESTINATION_CHAIN",      // recipientType
		deadline,                 // deadline
	)

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.ctx).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		if httpResp != nil {
			defer httpResp.Body.Close()
			return nil, apiError(httpResp.StatusCode, httpResp.Body, err)
		}
		return nil, fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	return resp, nil
}

// GetSwapStatus checks the execution status of a quoted swap
func (c *AggregatorClient) GetSwapStatus(depositAddress string) (*oneclick.GetExecutionStatusResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.ctx).DepositAddress(depositAddress).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// SubmitDepositTx notifies the aggregator of the deposit transaction hash
func (c *AggregatorClient) SubmitDepositTx(depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.ctx).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 && httpResp.StatusCode != 201 {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return nil
}

// smallestUnit converts a human amount into the token's smallest unit. The
// conversion is exact string math, never floating point.
func smallestUnit(amount string, decimals float32) (string, error) {
	if decimals < 0 || decimals > 255 {
		return "", fmt.Errorf("token reported invalid decimals: %v", decimals)
	}
	baseUnits, err := transfer.ToBaseUnits(amount, uint8(decimals))
	if err != nil {
		return "", err
	}
	return baseUnits.String(), nil
}

// apiError extracts the API's own error message from a failed response body
func apiError(statusCode int, body io.Reader, err error) error {
	bodyBytes, readErr := io.ReadAll(body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("failed to get quote from API (status: %d): %w", statusCode, err)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", statusCode, message)
		}
		if errors, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", statusCode, errors)
		}
	}

	return fmt.Errorf("API error (status %d): %s", statusCode, string(bodyBytes))
}
