package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/quote"
	"papertrade/internal/services"
)

type mockPortfolioService struct {
	getPortfolioFn func(ctx context.Context, userID string) (*services.Portfolio, error)
	buyFn          func(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error)
	sellFn         func(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error)
	getQuoteFn     func(ctx context.Context, symbol string) (*quote.Quote, error)
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, userID string) (*services.Portfolio, error) {
	if m.getPortfolioFn != nil {
		return m.getPortfolioFn(ctx, userID)
	}
	return &services.Portfolio{Holdings: []services.Holding{}, Cash: models.StartingCash, TotalValue: models.StartingCash}, nil
}

func (m *mockPortfolioService) Buy(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error) {
	if m.buyFn != nil {
		return m.buyFn(ctx, userID, symbol, shares)
	}
	return &models.Purchase{Shares: shares, Price: 10000}, nil
}

func (m *mockPortfolioService) Sell(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error) {
	if m.sellFn != nil {
		return m.sellFn(ctx, userID, symbol, shares)
	}
	return &models.Purchase{Shares: -shares, Price: 10000}, nil
}

func (m *mockPortfolioService) GetQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	if m.getQuoteFn != nil {
		return m.getQuoteFn(ctx, symbol)
	}
	return &quote.Quote{Symbol: symbol, Name: symbol + " Inc", Price: 10000}, nil
}

func setupPortfolioRouter(handler *PortfolioHandler) *gin.Engine {
	r := gin.New()
	r.GET("/portfolio", injectUserID("u1"), handler.GetPortfolio)
	r.POST("/portfolio/buy", injectUserID("u1"), handler.Buy)
	r.POST("/portfolio/sell", injectUserID("u1"), handler.Sell)
	r.GET("/quote/:symbol", injectUserID("u1"), handler.GetQuote)
	return r
}

func TestBuyHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodPost, "/portfolio/buy", `{"symbol":"AAPL","shares":10}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid_ticker", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodPost, "/portfolio/buy", `{"symbol":"NOT A TICKER!","shares":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("non_positive_shares", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodPost, "/portfolio/buy", `{"symbol":"AAPL","shares":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		svc := &mockPortfolioService{
			buyFn: func(_ context.Context, _, _ string, _ int64) (*models.Purchase, error) {
				return nil, apperrors.ErrInsufficientFunds
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))
		rec := doRequest(r, http.MethodPost, "/portfolio/buy", `{"symbol":"AAPL","shares":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INSUFFICIENT_FUNDS" {
			t.Errorf("expected INSUFFICIENT_FUNDS, got %s", code)
		}
	})
}

func TestSellHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodPost, "/portfolio/sell", `{"symbol":"AAPL","shares":4}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("insufficient_shares", func(t *testing.T) {
		svc := &mockPortfolioService{
			sellFn: func(_ context.Context, _, _ string, _ int64) (*models.Purchase, error) {
				return nil, apperrors.ErrInsufficientShares
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))
		rec := doRequest(r, http.MethodPost, "/portfolio/sell", `{"symbol":"AAPL","shares":99}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INSUFFICIENT_SHARES" {
			t.Errorf("expected INSUFFICIENT_SHARES, got %s", code)
		}
	})
}

func TestGetPortfolioHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodGet, "/portfolio", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["cash"] == nil || body["total_value"] == nil {
			t.Errorf("expected cash and total_value in response, got %s", rec.Body.String())
		}
	})

	t.Run("quote_outage", func(t *testing.T) {
		svc := &mockPortfolioService{
			getPortfolioFn: func(_ context.Context, _ string) (*services.Portfolio, error) {
				return nil, apperrors.ErrQuoteUnavailable
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))
		rec := doRequest(r, http.MethodGet, "/portfolio", "")

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})
}

func TestGetQuoteHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}))
		rec := doRequest(r, http.MethodGet, "/quote/AAPL", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("invalid_stock", func(t *testing.T) {
		svc := &mockPortfolioService{
			getQuoteFn: func(_ context.Context, _ string) (*quote.Quote, error) {
				return nil, apperrors.ErrStockNotFound
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))
		rec := doRequest(r, http.MethodGet, "/quote/NOPE", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "STOCK_NOT_FOUND" {
			t.Errorf("expected STOCK_NOT_FOUND, got %s", code)
		}
	})
}
