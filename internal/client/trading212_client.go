package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
	wire "portfolio_checker/internal/entity"
	"portfolio_checker/internal/pkg/metrics"
)

const trading212Venue = "trading212"

// trading212ClientImpl is a REST client for one Trading212 account. The API key
// goes in the Authorization header without a Bearer prefix.
type trading212ClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewTrading212Client creates a client bound to a single account's API key.
func NewTrading212Client(cfg config.Trading212Config, apiKey string, logger *zap.Logger) port.BrokerageClient {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = cfg.BurstLimit
		if burst <= 0 {
			burst = cfg.RateLimit
		}
	}
	return &trading212ClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("Trading212Client"),
	}
}

func (c *trading212ClientImpl) do(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", path, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", c.apiKey)
	req.Header.SetContentType("application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.ObserveUpstream(trading212Venue, path, start, err)
	if err != nil {
		c.logger.Error("Failed to execute request to Trading212", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", path, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Trading212 API request failed",
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("trading212 request to %s failed with status %d", path, resp.StatusCode())
	}
	return append([]byte(nil), rawBody...), nil
}

// GetCashSummary implements port.BrokerageClient.
func (c *trading212ClientImpl) GetCashSummary(ctx context.Context) (entity.CashSummary, error) {
	body, err := c.do(ctx, "/equity/account/cash")
	if err != nil {
		return entity.CashSummary{}, err
	}

	var payload wire.Trading212Cash
	if err := json.Unmarshal(body, &payload); err != nil {
		return entity.CashSummary{}, fmt.Errorf("failed to unmarshal cash summary: %w", err)
	}
	return entity.CashSummary{
		Total:    payload.Total,
		Free:     payload.Free,
		Invested: payload.Invested,
		PPL:      payload.PPL,
		Result:   payload.Result,
	}, nil
}

// GetPortfolio implements port.BrokerageClient.
func (c *trading212ClientImpl) GetPortfolio(ctx context.Context) ([]entity.Position, error) {
	body, err := c.do(ctx, "/equity/portfolio")
	if err != nil {
		return nil, err
	}

	var payload []wire.Trading212Position
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio: %w", err)
	}

	positions := make([]entity.Position, 0, len(payload))
	for _, row := range payload {
		positions = append(positions, entity.Position{
			Ticker:       row.Ticker,
			Name:         row.Ticker,
			Quantity:     row.Quantity,
			CurrentPrice: row.CurrentPrice,
			AveragePrice: row.AveragePrice,
			PPL:          row.PPL,
		})
	}
	return positions, nil
}

// GetInstruments implements port.BrokerageClient.
func (c *trading212ClientImpl) GetInstruments(ctx context.Context, limit int) ([]entity.Instrument, error) {
	body, err := c.do(ctx, "/equity/metadata/instruments")
	if err != nil {
		return nil, err
	}

	var payload []wire.Trading212Instrument
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instruments: %w", err)
	}

	if limit > 0 && len(payload) > limit {
		payload = payload[:limit]
	}
	instruments := make([]entity.Instrument, 0, len(payload))
	for _, row := range payload {
		instruments = append(instruments, entity.Instrument{Ticker: row.Ticker, Name: row.Name})
	}
	return instruments, nil
}

// trading212Provider hands out per-account clients built once at startup.
type trading212Provider struct {
	accounts []entity.Account
	clients  map[int]port.BrokerageClient
	byID     map[int]entity.Account
}

// NewTrading212Provider builds clients for the accounts whose API key was
// resolved from the environment. Accounts without a key stay disabled.
func NewTrading212Provider(cfg config.Trading212Config, accounts []config.AccountConfig, apiKeys map[int]string, logger *zap.Logger) port.BrokerageClientProvider {
	p := &trading212Provider{
		clients: make(map[int]port.BrokerageClient),
		byID:    make(map[int]entity.Account),
	}
	for _, acc := range accounts {
		key := apiKeys[acc.ID]
		enabled := acc.Enabled && key != ""
		account := entity.Account{ID: acc.ID, Name: acc.Name, Enabled: enabled}
		p.byID[acc.ID] = account
		if !enabled {
			logger.Info("Trading212 account disabled",
				zap.Int("accountId", acc.ID),
				zap.String("accountName", acc.Name))
			continue
		}
		p.accounts = append(p.accounts, account)
		p.clients[acc.ID] = NewTrading212Client(cfg, key, logger)
	}
	return p
}

// Accounts implements port.BrokerageClientProvider.
func (p *trading212Provider) Accounts() []entity.Account {
	accounts := make([]entity.Account, len(p.accounts))
	copy(accounts, p.accounts)
	return accounts
}

// ClientFor implements port.BrokerageClientProvider.
func (p *trading212Provider) ClientFor(accountID int) (port.BrokerageClient, error) {
	account, ok := p.byID[accountID]
	if !ok {
		return nil, fmt.Errorf("trading212 account with ID %d not found", accountID)
	}
	if !account.Enabled {
		return nil, fmt.Errorf("trading212 account with ID %d (%s) is not enabled", accountID, account.Name)
	}
	return p.clients[accountID], nil
}
