package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
	wire "portfolio_checker/internal/entity"
	"portfolio_checker/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const bybitVenue = "bybit"

// bybitClientImpl is a signed REST client for the Bybit v5 API.
type bybitClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

// NewBybitClient creates a new Bybit API client. Credentials are injected by the
// caller; the client never reads the environment.
func NewBybitClient(cfg config.BybitConfig, apiKey, apiSecret string, logger *zap.Logger) port.ExchangeClient {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = cfg.BurstLimit
		if burst <= 0 {
			burst = cfg.RateLimit
		}
	}
	return &bybitClientImpl{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		recvWindow: cfg.RecvWindow,
		timeout:    time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.Named("BybitClient"),
		now:        time.Now,
	}
}

// buildSignedQuery builds the canonical query string for a Bybit v5 request:
// authentication parameters added, keys sorted, values URL-encoded, and an
// HMAC-SHA256 hex signature appended as sign.
func buildSignedQuery(apiKey, apiSecret, recvWindow string, timestampMs int64, params map[string]string) string {
	withAuth := make(map[string]string, len(params)+3)
	for k, v := range params {
		withAuth[k] = v
	}
	withAuth["api_key"] = apiKey
	withAuth["timestamp"] = strconv.FormatInt(timestampMs, 10)
	withAuth["recv_window"] = recvWindow

	keys := make([]string, 0, len(withAuth))
	for k := range withAuth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(withAuth[k]))
	}
	queryString := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(queryString))
	signature := hex.EncodeToString(mac.Sum(nil))

	return queryString + "&sign=" + signature
}

// doSigned executes a signed GET request and unwraps the v5 envelope.
func (c *bybitClientImpl) doSigned(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", path, err)
	}

	requestURL := c.baseURL + path + "?" + buildSignedQuery(c.apiKey, c.apiSecret, c.recvWindow, c.now().UnixMilli(), params)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
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
	metrics.ObserveUpstream(bybitVenue, path, start, err)
	if err != nil {
		c.logger.Error("Failed to execute request to Bybit", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", path, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Bybit API request failed",
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("bybit request to %s failed with status %d", path, resp.StatusCode())
	}

	var envelope wire.BybitEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		c.logger.Error("Failed to unmarshal Bybit response envelope",
			zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal bybit response from %s: %w", path, err)
	}
	if envelope.RetCode != 0 {
		c.logger.Error("Bybit API returned error code",
			zap.String("path", path),
			zap.Int("retCode", envelope.RetCode),
			zap.String("retMsg", envelope.RetMsg))
		return nil, fmt.Errorf("bybit request to %s failed: %s (retCode=%d)", path, envelope.RetMsg, envelope.RetCode)
	}
	return envelope.Result, nil
}

// GetTickers implements port.ExchangeClient. One bulk snapshot covers the whole
// market category; unparsable rows are skipped, not fatal.
func (c *bybitClientImpl) GetTickers(ctx context.Context, category string) ([]entity.Ticker, error) {
	result, err := c.doSigned(ctx, "/v5/market/tickers", map[string]string{"category": category})
	if err != nil {
		return nil, err
	}

	var payload wire.BybitTickersResult
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tickers result: %w", err)
	}

	tickers := make([]entity.Ticker, 0, len(payload.List))
	for _, row := range payload.List {
		price, errConv := strconv.ParseFloat(row.LastPrice, 64)
		if errConv != nil {
			c.logger.Warn("Skipping ticker with unparsable lastPrice",
				zap.String("symbol", row.Symbol),
				zap.String("lastPrice", row.LastPrice))
			continue
		}
		tickers = append(tickers, entity.Ticker{Symbol: row.Symbol, LastPrice: price})
	}
	c.logger.Debug("Fetched ticker snapshot", zap.String("category", category), zap.Int("count", len(tickers)))
	return tickers, nil
}

// GetAccountCoinsBalance implements port.ExchangeClient.
func (c *bybitClientImpl) GetAccountCoinsBalance(ctx context.Context, accountType string, coins []string) ([]entity.CoinBalance, error) {
	params := map[string]string{"accountType": accountType}
	if len(coins) > 0 {
		params["coin"] = strings.Join(coins, ",")
	}

	result, err := c.doSigned(ctx, "/v5/asset/transfer/query-account-coins-balance", params)
	if err != nil {
		return nil, err
	}

	var payload wire.BybitCoinsBalanceResult
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coins balance result: %w", err)
	}

	balances := make([]entity.CoinBalance, 0, len(payload.Balance))
	for _, row := range payload.Balance {
		balances = append(balances, coinBalanceFromWire(row))
	}
	return balances, nil
}

// GetAccountCoinBalance implements port.ExchangeClient.
func (c *bybitClientImpl) GetAccountCoinBalance(ctx context.Context, accountType, coin string) (entity.CoinBalance, error) {
	if coin == "" {
		return entity.CoinBalance{}, fmt.Errorf("coin parameter is required")
	}

	result, err := c.doSigned(ctx, "/v5/asset/transfer/query-account-coin-balance", map[string]string{
		"accountType": accountType,
		"coin":        coin,
	})
	if err != nil {
		return entity.CoinBalance{}, err
	}

	var payload wire.BybitCoinBalanceResult
	if err := json.Unmarshal(result, &payload); err != nil {
		return entity.CoinBalance{}, fmt.Errorf("failed to unmarshal coin balance result: %w", err)
	}
	return coinBalanceFromWire(payload.Balance), nil
}

// GetCoinCatalog implements port.ExchangeClient.
func (c *bybitClientImpl) GetCoinCatalog(ctx context.Context) ([]string, error) {
	result, err := c.doSigned(ctx, "/v5/asset/coin/query-info", nil)
	if err != nil {
		return nil, err
	}

	var payload wire.BybitCoinInfoResult
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coin catalog result: %w", err)
	}

	coins := make([]string, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		if row.Coin != "" {
			coins = append(coins, row.Coin)
		}
	}
	return coins, nil
}

// coinBalanceFromWire parses the venue's string amounts. Unparsable amounts
// become zero rather than failing the row.
func coinBalanceFromWire(row wire.BybitCoinBalance) entity.CoinBalance {
	wallet, _ := strconv.ParseFloat(row.WalletBalance, 64)
	transfer, _ := strconv.ParseFloat(row.TransferBalance, 64)
	return entity.CoinBalance{
		Coin:            row.Coin,
		WalletBalance:   wallet,
		TransferBalance: transfer,
	}
}
