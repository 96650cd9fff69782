package types

// QuoteRequest represents a user's request to quote a token into the payout
// stablecoin ahead of an INR payout
type QuoteRequest struct {
	Amount        string
	Token         string
	Chain         string
	RecipientAddr string
	RefundAddr    string
}

// QuoteDisplay holds formatted quote information for display
type QuoteDisplay struct {
	SourceAmount   string
	SourceToken    string
	StableAmount   string
	StableToken    string
	INREstimate    string
	EstimatedTime  string
	DepositAddress string
	Chain          string
}
