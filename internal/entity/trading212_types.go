package entity

// Trading212Cash is the /equity/account/cash payload.
type Trading212Cash struct {
	Free     float64 `json:"free"`
	Total    float64 `json:"total"`
	Invested float64 `json:"invested"`
	PPL      float64 `json:"ppl"`
	Result   float64 `json:"result"`
	Blocked  float64 `json:"blocked"`
	PieCash  float64 `json:"pieCash"`
}

// Trading212Position is one row of the /equity/portfolio payload. PPL is a
// pointer so a missing value can be told apart from zero and derived instead.
type Trading212Position struct {
	Ticker          string   `json:"ticker"`
	Quantity        float64  `json:"quantity"`
	AveragePrice    float64  `json:"averagePrice"`
	CurrentPrice    float64  `json:"currentPrice"`
	PPL             *float64 `json:"ppl"`
	FxPPL           *float64 `json:"fxPpl"`
	InitialFillDate string   `json:"initialFillDate"`
}

// Trading212Instrument is one row of /equity/metadata/instruments.
type Trading212Instrument struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	CurrencyCode string `json:"currencyCode"`
	ISIN         string `json:"isin"`
}
