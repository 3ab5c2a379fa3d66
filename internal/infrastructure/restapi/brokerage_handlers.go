package restapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/renderer"
)

const accountIDQueryParam = "accountId"

// BrokerageHandler serves the brokerage venue endpoints.
type BrokerageHandler struct {
	service  port.BrokerageService
	markdown *renderer.Markdown
	logger   *zap.Logger
}

// NewBrokerageHandler creates a new brokerage handler.
func NewBrokerageHandler(service port.BrokerageService, markdown *renderer.Markdown, logger *zap.Logger) *BrokerageHandler {
	return &BrokerageHandler{
		service:  service,
		markdown: markdown,
		logger:   logger.Named("BrokerageHandler"),
	}
}

// ListAccounts handles GET /api/v1/trading212/accounts.
func (h *BrokerageHandler) ListAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accounts": h.service.Accounts(),
	})
}

// GetAccountValue handles GET /api/v1/trading212/value?accountId=N.
func (h *BrokerageHandler) GetAccountValue(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	valuation, err := h.service.GetAccountValue(c.Request.Context(), accountID)
	if err != nil {
		// Unknown or disabled account: the caller's request is wrong, not the venue.
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if wantsMarkdown(c) {
		respondMarkdown(c, h.markdown.FormatAccountValuation(valuation))
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// GetAllAccountsValue handles GET /api/v1/trading212/value/all.
func (h *BrokerageHandler) GetAllAccountsValue(c *gin.Context) {
	valuation := h.service.GetAllAccountsValue(c.Request.Context())

	if wantsMarkdown(c) {
		respondMarkdown(c, h.markdown.FormatAllAccountsValuation(valuation))
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// Ping handles GET /api/v1/trading212/ping?accountId=N.
func (h *BrokerageHandler) Ping(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	status, err := h.service.TestConnection(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !status.Success {
		c.JSON(http.StatusInternalServerError, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *BrokerageHandler) accountIDParam(c *gin.Context) (int, bool) {
	raw := c.Query(accountIDQueryParam)
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "accountId query parameter is required"})
		return 0, false
	}
	accountID, err := strconv.Atoi(raw)
	if err != nil {
		h.logger.Debug("Rejecting non-numeric accountId", zap.String("accountId", raw))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "accountId must be an integer"})
		return 0, false
	}
	return accountID, true
}
