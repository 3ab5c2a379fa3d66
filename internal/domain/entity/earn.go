package entity

// EarnHolding is a manually declared staked/earning position. The list itself is
// external truth; nothing is written back to it.
type EarnHolding struct {
	Coin   string  `json:"coin" yaml:"coin"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
	APY    string  `json:"apy" yaml:"apy"`
	Type   string  `json:"type" yaml:"type"`
}

// EarnProduct is an EarnHolding valued against a resolved price.
type EarnProduct struct {
	EarnHolding
	PriceUSD float64 `json:"price"`
	ValueUSD float64 `json:"valueUSD"`
	Status   string  `json:"status"`
}
