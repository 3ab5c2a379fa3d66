package renderer

import (
	"fmt"
	"strings"
	"time"

	"portfolio_checker/internal/domain/entity"
)

// Markdown renders valuations as markdown documents for chat-style consumers.
// Formatting only: every figure is computed upstream and rendered verbatim.
type Markdown struct{}

// NewMarkdown creates a markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// FormatPortfolioValuation renders the combined crypto valuation.
func (m *Markdown) FormatPortfolioValuation(v entity.PortfolioValuation) string {
	var b strings.Builder

	b.WriteString("# Crypto Portfolio\n\n")
	fmt.Fprintf(&b, "**Total:** $%.2f (£%.2f)\n\n", v.TotalValueUSD, v.TotalValueGBP)
	fmt.Fprintf(&b, "_USD/GBP rate: %.4f — %s_\n\n", v.ConversionRate.UsdToGbp, formatTimestamp(v.Timestamp))

	if len(v.CoinBalances) > 0 {
		b.WriteString("## Funding Account\n\n")
		b.WriteString("| Coin | Balance | Price (USD) | Value (USD) |\n")
		b.WriteString("|------|---------|-------------|-------------|\n")
		for _, bal := range v.CoinBalances {
			fmt.Fprintf(&b, "| %s | %s | $%.4f | $%.2f |\n",
				bal.Coin, formatAmount(bal.WalletBalance), bal.PriceUSD, bal.UsdValue)
		}
		b.WriteString("\n")
	}

	if len(v.EarnProducts) > 0 {
		b.WriteString("## Earn\n\n")
		b.WriteString("| Coin | Amount | APY | Type | Value (USD) |\n")
		b.WriteString("|------|--------|-----|------|-------------|\n")
		for _, p := range v.EarnProducts {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | $%.2f |\n",
				p.Coin, formatAmount(p.Amount), p.APY, p.Type, p.ValueUSD)
		}
		fmt.Fprintf(&b, "\n**Earn total:** $%.2f\n\n", v.EarnValueUSD)
	}

	writeErrors(&b, v.Errors)
	return b.String()
}

// FormatFundingAccountBalance renders the funding account snapshot.
func (m *Markdown) FormatFundingAccountBalance(v entity.FundingAccountBalance) string {
	var b strings.Builder

	b.WriteString("# Funding Account\n\n")
	fmt.Fprintf(&b, "**Total:** $%.2f — %s\n\n", v.TotalUsdValue, formatTimestamp(v.Timestamp))

	if len(v.Assets) == 0 {
		b.WriteString("No assets held.\n")
		return b.String()
	}

	b.WriteString("| Coin | Balance | Transferable | Price (USD) | Value (USD) |\n")
	b.WriteString("|------|---------|--------------|-------------|-------------|\n")
	for _, asset := range v.Assets {
		fmt.Fprintf(&b, "| %s | %s | %s | $%.4f | $%.2f |\n",
			asset.Coin, formatAmount(asset.WalletBalance), formatAmount(asset.TransferBalance),
			asset.PriceUSD, asset.UsdValue)
	}
	writeErrors(&b, v.Errors)
	return b.String()
}

// FormatAccountValuation renders one brokerage account.
func (m *Markdown) FormatAccountValuation(v entity.AccountValuation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.AccountName)
	m.writeAccountBody(&b, v)
	return b.String()
}

// FormatAllAccountsValuation renders the merged brokerage view.
func (m *Markdown) FormatAllAccountsValuation(v entity.AllAccountsValuation) string {
	var b strings.Builder

	b.WriteString("# Stock Accounts\n\n")
	fmt.Fprintf(&b, "**Combined total:** £%.2f — %s\n\n", v.TotalValueGBP, formatTimestamp(v.Timestamp))

	for _, account := range v.Accounts {
		fmt.Fprintf(&b, "## %s\n\n", account.AccountName)
		m.writeAccountBody(&b, account)
	}
	return b.String()
}

func (m *Markdown) writeAccountBody(b *strings.Builder, v entity.AccountValuation) {
	fmt.Fprintf(b, "**Total:** £%.2f | Free cash: £%.2f | Invested: £%.2f\n\n",
		v.TotalValueGBP, v.FreeCashGBP, v.InvestedGBP)
	fmt.Fprintf(b, "Unrealized P/L: £%.2f | Realized P/L: £%.2f\n\n",
		v.UnrealizedPnlGBP, v.RealizedPnlGBP)
	if v.Diverged {
		fmt.Fprintf(b, "> Positions value £%.2f diverges from the account summary.\n\n", v.PositionsValueGBP)
	}

	if len(v.Positions) > 0 {
		b.WriteString("| Symbol | Quantity | Price (GBP) | Value (GBP) | P/L (GBP) | P/L % |\n")
		b.WriteString("|--------|----------|-------------|-------------|-----------|-------|\n")
		for _, pos := range v.Positions {
			fmt.Fprintf(b, "| %s | %s | £%.2f | £%.2f | £%.2f | %.2f%% |\n",
				pos.Symbol, formatAmount(pos.Quantity), pos.CurrentPriceGBP,
				pos.ValueGBP, pos.PnlGBP, pos.PnlPercentage)
		}
		b.WriteString("\n")
	}
	writeErrors(b, v.Errors)
}

func writeErrors(b *strings.Builder, errs []entity.ValuationError) {
	if len(errs) == 0 {
		return
	}
	b.WriteString("## Errors\n\n")
	for _, e := range errs {
		fmt.Fprintf(b, "- **%s/%s**: %s\n", e.Venue, e.Symbol, e.Message)
	}
	b.WriteString("\n")
}

// formatAmount trims trailing zeros so dust balances stay readable.
func formatAmount(amount float64) string {
	s := fmt.Sprintf("%.8f", amount)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func formatTimestamp(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}
