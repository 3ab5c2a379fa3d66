package entity

import "encoding/json"

// BybitEnvelope is the v5 API response wrapper. RetCode 0 means success; any
// other value carries the reason in RetMsg.
type BybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

// BybitTicker is one ticker row from /v5/market/tickers. Amounts are strings on
// the wire.
type BybitTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
}

// BybitTickersResult is the result payload of the bulk ticker endpoint.
type BybitTickersResult struct {
	Category string        `json:"category"`
	List     []BybitTicker `json:"list"`
}

// BybitCoinBalance is one balance row from the asset-transfer balance endpoints.
type BybitCoinBalance struct {
	Coin            string `json:"coin"`
	WalletBalance   string `json:"walletBalance"`
	TransferBalance string `json:"transferBalance"`
	Bonus           string `json:"bonus"`
}

// BybitCoinsBalanceResult is the result payload of query-account-coins-balance.
type BybitCoinsBalanceResult struct {
	AccountType string             `json:"accountType"`
	MemberID    string             `json:"memberId"`
	Balance     []BybitCoinBalance `json:"balance"`
}

// BybitCoinBalanceResult is the result payload of query-account-coin-balance.
type BybitCoinBalanceResult struct {
	AccountType string           `json:"accountType"`
	Balance     BybitCoinBalance `json:"balance"`
}

// BybitCoinInfoRow is one coin row from the coin catalog endpoint.
type BybitCoinInfoRow struct {
	Coin string `json:"coin"`
	Name string `json:"name"`
}

// BybitCoinInfoResult is the result payload of /v5/asset/coin/query-info.
type BybitCoinInfoResult struct {
	Rows []BybitCoinInfoRow `json:"rows"`
}
