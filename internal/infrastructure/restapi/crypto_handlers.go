package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/renderer"
)

const formatQueryParam = "format"

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CryptoHandler serves the crypto venue endpoints.
type CryptoHandler struct {
	service  port.CryptoValuationService
	markdown *renderer.Markdown
	logger   *zap.Logger
}

// NewCryptoHandler creates a new crypto handler.
func NewCryptoHandler(service port.CryptoValuationService, markdown *renderer.Markdown, logger *zap.Logger) *CryptoHandler {
	return &CryptoHandler{
		service:  service,
		markdown: markdown,
		logger:   logger.Named("CryptoHandler"),
	}
}

// GetFundingBalance handles GET /api/v1/bybit/funding.
func (h *CryptoHandler) GetFundingBalance(c *gin.Context) {
	balance, err := h.service.GetFundingAccountBalance(c.Request.Context())
	if err != nil {
		h.logger.Error("Funding balance request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if wantsMarkdown(c) {
		respondMarkdown(c, h.markdown.FormatFundingAccountBalance(balance))
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GetAccountValue handles GET /api/v1/bybit/balance.
func (h *CryptoHandler) GetAccountValue(c *gin.Context) {
	valuation := h.service.GetAccountValue(c.Request.Context())

	if wantsMarkdown(c) {
		respondMarkdown(c, h.markdown.FormatPortfolioValuation(valuation))
		return
	}
	c.JSON(http.StatusOK, valuation)
}

func wantsMarkdown(c *gin.Context) bool {
	return c.Query(formatQueryParam) == "true"
}

func respondMarkdown(c *gin.Context, body string) {
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
}
