package entity

// PriceSource identifies which fallback strategy produced a price.
type PriceSource string

const (
	// PriceSourceTicker means the price came from the live bulk ticker snapshot.
	PriceSourceTicker PriceSource = "ticker"
	// PriceSourceDefault means the price came from the static default-price table.
	PriceSourceDefault PriceSource = "default"
	// PriceSourceAlias means the price was inherited from the symbol's primary name.
	PriceSourceAlias PriceSource = "alias-inherited"
	// PriceSourcePeg means the symbol is a declared stablecoin pegged to 1 USD.
	PriceSourcePeg PriceSource = "stablecoin-peg"
	// PriceSourceUnresolved means no strategy produced a price; the value is zero.
	PriceSourceUnresolved PriceSource = "unresolved"
)

// Ticker is one entry of the exchange's bulk spot ticker snapshot.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"lastPrice"`
}

// PriceEntry is the resolved USD price for a single symbol within one valuation run.
// Exactly one entry exists per requested symbol; it is never mutated after resolution.
type PriceEntry struct {
	Symbol   string      `json:"symbol"`
	PriceUSD float64     `json:"priceUSD"`
	Source   PriceSource `json:"source"`
}

// CoinBalance is a wallet/transfer balance for a single coin as reported by the
// funding account, with the venue's string amounts already parsed.
type CoinBalance struct {
	Coin            string  `json:"coin"`
	WalletBalance   float64 `json:"walletBalance"`
	TransferBalance float64 `json:"transferBalance"`
}

// BalanceEntry is a positive funding-account balance with its resolved USD value.
type BalanceEntry struct {
	Coin            string  `json:"coin"`
	WalletBalance   float64 `json:"walletBalance"`
	TransferBalance float64 `json:"transferBalance"`
	PriceUSD        float64 `json:"coinPrice"`
	UsdValue        float64 `json:"usdValue"`
	Source          string  `json:"source"`
}

// FundingAccountBalance is the snapshot report of the funding account, assets
// sorted by USD value descending.
type FundingAccountBalance struct {
	Success       bool             `json:"success"`
	Assets        []BalanceEntry   `json:"assets"`
	TotalUsdValue float64          `json:"totalUsdValue"`
	Errors        []ValuationError `json:"errors,omitempty"`
	Timestamp     int64            `json:"timestamp"`
}

// ValuationError records a recovered per-asset or per-endpoint failure. Collecting
// these instead of returning an error is what keeps one failing fetch from
// aborting the rest of a run.
type ValuationError struct {
	Venue   string `json:"venue,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message"`
}
