package entity

// ConversionRate is the configured USD to GBP rate. It is never fetched.
type ConversionRate struct {
	UsdToGbp float64 `json:"usdToGbp"`
}

// PortfolioValuation is the root crypto+earn aggregate, created fresh per request
// and never mutated after construction. Timestamp is capture time, not a cache key.
type PortfolioValuation struct {
	Success        bool                  `json:"success"`
	TotalValueUSD  float64               `json:"totalValueUSD"`
	TotalValueGBP  float64               `json:"totalValueGBP"`
	CoinBalances   []BalanceEntry        `json:"coinBalances"`
	CoinPrices     map[string]PriceEntry `json:"coinPrices"`
	EarnProducts   []EarnProduct         `json:"earnProducts"`
	EarnValueUSD   float64               `json:"earnValueUSD"`
	ConversionRate ConversionRate        `json:"conversionRate"`
	Errors         []ValuationError      `json:"errors,omitempty"`
	Timestamp      int64                 `json:"timestamp"`
}
