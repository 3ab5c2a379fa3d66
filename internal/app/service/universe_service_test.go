package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCoinsToCheckMergesCatalogAfterStaticSet(t *testing.T) {
	client := &mockExchangeClient{catalog: []string{"ETH", "SUI", "", "btc"}}
	resolver := NewCoinUniverseResolver(client, newTestConfig(), zap.NewNop())

	coins := resolver.CoinsToCheck(context.Background())

	// Static declaration order first, catalog additions after, no repeats.
	assert.Equal(t, []string{"USDT", "BTC", "ETH", "XLM", "BITCOIN", "STELLAR", "SUI"}, coins)
}

func TestCoinsToCheckDegradesToStaticOnCatalogFailure(t *testing.T) {
	client := &mockExchangeClient{catalogErr: errors.New("catalog unavailable")}
	resolver := NewCoinUniverseResolver(client, newTestConfig(), zap.NewNop())

	coins := resolver.CoinsToCheck(context.Background())

	assert.Equal(t, []string{"USDT", "BTC", "ETH", "XLM", "BITCOIN", "STELLAR"}, coins)
}

func TestCoinsToCheckStableAcrossRuns(t *testing.T) {
	client := &mockExchangeClient{catalog: []string{"SUI", "TON"}}
	resolver := NewCoinUniverseResolver(client, newTestConfig(), zap.NewNop())

	first := resolver.CoinsToCheck(context.Background())
	second := resolver.CoinsToCheck(context.Background())

	assert.Equal(t, first, second)
}
