package port

import (
	"context"

	"portfolio_checker/internal/domain/entity"
)

// BrokerageClient is the per-account brokerage API surface.
type BrokerageClient interface {
	// GetCashSummary fetches the account's authoritative totals.
	GetCashSummary(ctx context.Context) (entity.CashSummary, error)

	// GetPortfolio fetches the account's open positions.
	GetPortfolio(ctx context.Context) ([]entity.Position, error)

	// GetInstruments fetches instrument metadata, used for connectivity testing only.
	GetInstruments(ctx context.Context, limit int) ([]entity.Instrument, error)
}

// BrokerageClientProvider hands out clients for configured accounts.
type BrokerageClientProvider interface {
	// Accounts returns the enabled accounts, in configuration order.
	Accounts() []entity.Account

	// ClientFor returns the client for an account ID. Unknown or disabled
	// accounts are a configuration failure, surfaced as an error.
	ClientFor(accountID int) (BrokerageClient, error)
}
