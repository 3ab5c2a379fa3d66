package entity

// Account is a configured brokerage account. Disabled accounts are excluded from
// every aggregation pass.
type Account struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"-"`
}

// CashSummary is the brokerage's own authoritative account totals, treated as the
// source of truth over anything recomputed from positions.
type CashSummary struct {
	Total    float64 `json:"total"`
	Free     float64 `json:"free"`
	Invested float64 `json:"invested"`
	PPL      float64 `json:"ppl"`
	Result   float64 `json:"result"`
}

// Position is a raw brokerage position. PPL is nil when the venue omitted it, in
// which case it is derived from prices and quantity.
type Position struct {
	Ticker       string
	Name         string
	Quantity     float64
	CurrentPrice float64
	AveragePrice float64
	PPL          *float64
}

// Instrument is brokerage instrument metadata, used only for connectivity testing.
type Instrument struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// PositionDetail is a position with its derived GBP fields, computed once per run.
type PositionDetail struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	CurrentPriceGBP float64 `json:"currentPriceGBP"`
	ValueGBP        float64 `json:"valueGBP"`
	PnlGBP          float64 `json:"pnlGBP"`
	PnlPercentage   float64 `json:"pnlPercentage"`
}

// AccountValuation reconciles the cash summary (totals) with the itemized
// position list for one account. PositionsValueGBP is reported alongside the
// authoritative total; Diverged is set when the two disagree beyond tolerance.
type AccountValuation struct {
	Success           bool             `json:"success"`
	AccountID         int              `json:"accountId"`
	AccountName       string           `json:"accountName"`
	TotalValueGBP     float64          `json:"totalValueGBP"`
	FreeCashGBP       float64          `json:"freeCashGBP"`
	InvestedGBP       float64          `json:"investedGBP"`
	UnrealizedPnlGBP  float64          `json:"unrealizedPnlGBP"`
	RealizedPnlGBP    float64          `json:"realizedPnlGBP"`
	PositionsValueGBP float64          `json:"positionsValueGBP"`
	Diverged          bool             `json:"diverged"`
	Positions         []PositionDetail `json:"positions"`
	Errors            []ValuationError `json:"errors,omitempty"`
	Timestamp         int64            `json:"timestamp"`
}

// AllAccountsValuation merges the accounts that individually succeeded.
type AllAccountsValuation struct {
	Success       bool               `json:"success"`
	TotalValueGBP float64            `json:"totalValueGBP"`
	Accounts      []AccountValuation `json:"accounts"`
	Timestamp     int64              `json:"timestamp"`
}

// ConnectionStatus is the result of a brokerage connectivity test.
type ConnectionStatus struct {
	Success     bool         `json:"success"`
	AccountID   int          `json:"accountId"`
	Instruments []Instrument `json:"instruments,omitempty"`
	Error       string       `json:"error,omitempty"`
}
