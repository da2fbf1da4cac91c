package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/services"
)

// PortfolioHandler handles quote, trade, and portfolio-view requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// TradeRequest represents a buy or sell request payload.
type TradeRequest struct {
	Symbol string `json:"symbol" binding:"required,ticker"`
	Shares int64  `json:"shares" binding:"required,gt=0"`
}

// GetPortfolio returns the user's holdings with live prices
// @Summary     Get portfolio
// @Description Aggregate holdings with live prices, cash, and total value
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Portfolio "Portfolio"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Quote service unavailable"
// @Router      /portfolio [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// Buy purchases shares at the current quoted price
// @Summary     Buy shares
// @Description Buy a positive number of shares of a symbol at the live price
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TradeRequest true "Symbol and share count"
// @Success     201 {object} models.Purchase "Ledger row recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient funds"
// @Failure     404 {object} ErrorResponse "Invalid stock"
// @Failure     502 {object} ErrorResponse "Quote service unavailable"
// @Router      /portfolio/buy [post]
func (h *PortfolioHandler) Buy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	purchase, err := h.portfolioService.Buy(c.Request.Context(), userID, req.Symbol, req.Shares)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
}

// Sell disposes of shares at the current quoted price
// @Summary     Sell shares
// @Description Sell up to the currently held number of shares of a symbol
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TradeRequest true "Symbol and share count"
// @Success     201 {object} models.Purchase "Ledger row recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient shares"
// @Failure     404 {object} ErrorResponse "Invalid stock"
// @Failure     502 {object} ErrorResponse "Quote service unavailable"
// @Router      /portfolio/sell [post]
func (h *PortfolioHandler) Sell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	purchase, err := h.portfolioService.Sell(c.Request.Context(), userID, req.Symbol, req.Shares)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
}

// GetQuote looks up a live quote for a symbol
// @Summary     Get a quote
// @Description Look up the current price for a ticker symbol
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Success     200 {object} quote.Quote "Quote"
// @Failure     404 {object} ErrorResponse "Invalid stock"
// @Failure     502 {object} ErrorResponse "Quote service unavailable"
// @Router      /quote/{symbol} [get]
func (h *PortfolioHandler) GetQuote(c *gin.Context) {
	q, err := h.portfolioService.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": q})
}
