package service

import (
	"go.uber.org/zap"

	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
)

const earnStatusOngoing = "ONGOING"

// EarnLedgerValuer values the manually declared earn/staking ledger against
// resolved prices. Pure computation: no network calls, no failure modes beyond
// an unresolved price valuing a holding at zero.
type EarnLedgerValuer struct {
	logger *zap.Logger
}

// NewEarnLedgerValuer creates a new earn ledger valuer.
func NewEarnLedgerValuer(logger *zap.Logger) *EarnLedgerValuer {
	return &EarnLedgerValuer{logger: logger.Named("EarnLedgerValuer")}
}

// Value computes valueUSD = amount * priceUSD per holding. Holdings whose value
// is not positive are excluded from the result but do not affect the others.
func (v *EarnLedgerValuer) Value(holdings []entity.EarnHolding, prices map[string]entity.PriceEntry) ([]entity.EarnProduct, float64) {
	products := make([]entity.EarnProduct, 0, len(holdings))
	var totalValueUSD float64

	for _, holding := range holdings {
		price := prices[config.Canonical(holding.Coin)].PriceUSD
		valueUSD := holding.Amount * price
		if valueUSD <= 0 {
			v.logger.Debug("Excluding earn holding with non-positive value",
				zap.String("coin", holding.Coin),
				zap.Float64("amount", holding.Amount),
				zap.Float64("priceUSD", price))
			continue
		}

		totalValueUSD += valueUSD
		products = append(products, entity.EarnProduct{
			EarnHolding: holding,
			PriceUSD:    price,
			ValueUSD:    valueUSD,
			Status:      earnStatusOngoing,
		})
	}

	return products, totalValueUSD
}
