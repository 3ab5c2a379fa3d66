package service

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/pkg/metrics"
)

const (
	trading212VenueName           = "trading212"
	connectionTestInstrumentLimit = 5
)

// brokerageServiceImpl implements port.BrokerageService. The account's cash
// summary is the source of truth for totals; the position list is itemization
// only and its failure never zeroes a valuation that has a cash summary.
type brokerageServiceImpl struct {
	provider     port.BrokerageClientProvider
	cfg          *config.Config
	logger       *zap.Logger
	fetchTimeout time.Duration
}

// NewBrokerageService creates a new brokerage valuation service.
func NewBrokerageService(provider port.BrokerageClientProvider, cfg *config.Config, logger *zap.Logger) port.BrokerageService {
	return &brokerageServiceImpl{
		provider:     provider,
		cfg:          cfg,
		logger:       logger.Named("BrokerageService"),
		fetchTimeout: time.Duration(cfg.Trading212.RequestTimeoutMillis) * time.Millisecond,
	}
}

// Accounts implements port.BrokerageService.
func (s *brokerageServiceImpl) Accounts() []entity.Account {
	return s.provider.Accounts()
}

// GetAccountValue implements port.BrokerageService. An unknown or disabled
// account is a caller error and comes back as error; upstream failures are
// recorded inside the valuation.
func (s *brokerageServiceImpl) GetAccountValue(ctx context.Context, accountID int) (entity.AccountValuation, error) {
	client, err := s.provider.ClientFor(accountID)
	if err != nil {
		return entity.AccountValuation{}, err
	}
	return s.valueAccount(ctx, client, s.accountName(accountID), accountID), nil
}

// GetAllAccountsValue implements port.BrokerageService. Accounts are valued
// concurrently; only the ones that succeeded contribute to the merged total.
func (s *brokerageServiceImpl) GetAllAccountsValue(ctx context.Context) entity.AllAccountsValuation {
	accounts := s.provider.Accounts()

	var (
		mu         sync.Mutex
		valuations []entity.AccountValuation
		total      float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Portfolio.MaxConcurrentRequests)

	for _, account := range accounts {
		g.Go(func() error {
			client, err := s.provider.ClientFor(account.ID)
			if err != nil {
				s.logger.Warn("Skipping account without a client",
					zap.Int("accountId", account.ID), zap.Error(err))
				return nil
			}
			valuation := s.valueAccount(gctx, client, account.Name, account.ID)
			if !valuation.Success {
				s.logger.Warn("Omitting failed account from merged valuation",
					zap.Int("accountId", account.ID),
					zap.String("accountName", account.Name))
				return nil
			}
			mu.Lock()
			valuations = append(valuations, valuation)
			total += valuation.TotalValueGBP
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Stable presentation order regardless of goroutine completion order.
	ordered := make([]entity.AccountValuation, 0, len(valuations))
	for _, account := range accounts {
		for _, v := range valuations {
			if v.AccountID == account.ID {
				ordered = append(ordered, v)
				break
			}
		}
	}

	metrics.ValuationRunsTotal.WithLabelValues("getAllAccountsValue", "ok").Inc()
	return entity.AllAccountsValuation{
		Success:       true,
		TotalValueGBP: total,
		Accounts:      ordered,
		Timestamp:     time.Now().UnixMilli(),
	}
}

// TestConnection implements port.BrokerageService.
func (s *brokerageServiceImpl) TestConnection(ctx context.Context, accountID int) (entity.ConnectionStatus, error) {
	client, err := s.provider.ClientFor(accountID)
	if err != nil {
		return entity.ConnectionStatus{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	instruments, err := client.GetInstruments(fetchCtx, connectionTestInstrumentLimit)
	if err != nil {
		s.logger.Warn("Connectivity test failed",
			zap.Int("accountId", accountID), zap.Error(err))
		return entity.ConnectionStatus{
			Success:   false,
			AccountID: accountID,
			Error:     err.Error(),
		}, nil
	}
	return entity.ConnectionStatus{
		Success:     true,
		AccountID:   accountID,
		Instruments: instruments,
	}, nil
}

// valueAccount runs the cash-then-positions reconciliation for one account.
func (s *brokerageServiceImpl) valueAccount(ctx context.Context, client port.BrokerageClient, name string, accountID int) entity.AccountValuation {
	valuation := entity.AccountValuation{
		AccountID:   accountID,
		AccountName: name,
		Positions:   []entity.PositionDetail{},
		Timestamp:   time.Now().UnixMilli(),
	}

	cashCtx, cancelCash := context.WithTimeout(ctx, s.fetchTimeout)
	cash, err := client.GetCashSummary(cashCtx)
	cancelCash()
	if err != nil {
		s.logger.Error("Cash summary fetch failed, account valuation unusable",
			zap.Int("accountId", accountID), zap.Error(err))
		metrics.ValuationRunsTotal.WithLabelValues("getAccountValue", "error").Inc()
		valuation.Errors = append(valuation.Errors, entity.ValuationError{
			Venue:   trading212VenueName,
			Symbol:  name,
			Message: err.Error(),
		})
		return valuation
	}

	valuation.Success = true
	valuation.TotalValueGBP = cash.Total
	valuation.FreeCashGBP = cash.Free
	valuation.InvestedGBP = cash.Invested
	valuation.UnrealizedPnlGBP = cash.PPL
	valuation.RealizedPnlGBP = cash.Result

	posCtx, cancelPos := context.WithTimeout(ctx, s.fetchTimeout)
	positions, err := client.GetPortfolio(posCtx)
	cancelPos()
	if err != nil {
		// Totals stand on the cash summary alone.
		s.logger.Warn("Position list fetch failed, reporting cash totals without itemization",
			zap.Int("accountId", accountID), zap.Error(err))
		valuation.Errors = append(valuation.Errors, entity.ValuationError{
			Venue:   trading212VenueName,
			Symbol:  name,
			Message: err.Error(),
		})
		metrics.ValuationRunsTotal.WithLabelValues("getAccountValue", "ok").Inc()
		return valuation
	}

	details, positionsValue, posErrors := s.itemizePositions(positions)
	valuation.Positions = details
	valuation.PositionsValueGBP = positionsValue
	valuation.Errors = append(valuation.Errors, posErrors...)
	valuation.Diverged = math.Abs(positionsValue-(cash.Invested+cash.PPL)) > s.cfg.Portfolio.DivergenceToleranceGBP
	if valuation.Diverged {
		s.logger.Warn("Positions value diverges from cash summary",
			zap.Int("accountId", accountID),
			zap.Float64("positionsValueGBP", positionsValue),
			zap.Float64("cashInvestedPlusPnlGBP", cash.Invested+cash.PPL))
	}

	metrics.ValuationRunsTotal.WithLabelValues("getAccountValue", "ok").Inc()
	return valuation
}

// itemizePositions derives the per-position GBP fields. Malformed rows are
// skipped with an error record and never poison the rest of the list.
func (s *brokerageServiceImpl) itemizePositions(positions []entity.Position) ([]entity.PositionDetail, float64, []entity.ValuationError) {
	details := make([]entity.PositionDetail, 0, len(positions))
	var (
		positionsValue float64
		posErrors      []entity.ValuationError
	)

	for _, pos := range positions {
		if pos.Ticker == "" || pos.Quantity <= 0 || pos.CurrentPrice < 0 {
			s.logger.Warn("Skipping malformed position",
				zap.String("ticker", pos.Ticker),
				zap.Float64("quantity", pos.Quantity),
				zap.Float64("currentPrice", pos.CurrentPrice))
			posErrors = append(posErrors, entity.ValuationError{
				Venue:   trading212VenueName,
				Symbol:  pos.Ticker,
				Message: "malformed position row",
			})
			continue
		}

		valueGBP := pos.Quantity * pos.CurrentPrice
		pnl := (pos.CurrentPrice - pos.AveragePrice) * pos.Quantity
		if pos.PPL != nil {
			pnl = *pos.PPL
		}
		var pnlPct float64
		if pos.AveragePrice > 0 {
			pnlPct = (pos.CurrentPrice - pos.AveragePrice) / pos.AveragePrice * 100
		}

		positionsValue += valueGBP
		details = append(details, entity.PositionDetail{
			Symbol:          pos.Ticker,
			Name:            pos.Name,
			Quantity:        pos.Quantity,
			CurrentPriceGBP: pos.CurrentPrice,
			ValueGBP:        valueGBP,
			PnlGBP:          pnl,
			PnlPercentage:   pnlPct,
		})
	}
	return details, positionsValue, posErrors
}

func (s *brokerageServiceImpl) accountName(accountID int) string {
	for _, account := range s.provider.Accounts() {
		if account.ID == accountID {
			return account.Name
		}
	}
	return ""
}
