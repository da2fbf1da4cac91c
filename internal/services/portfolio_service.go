package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/quote"
)

// portfolioService owns the cash/shares consistency invariant: every trade
// runs as one all-or-nothing store transaction.
type portfolioService struct {
	db     *gorm.DB
	quotes quote.Client
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, quotes quote.Client) PortfolioServicer {
	return &portfolioService{db: db, quotes: quotes}
}

// translateQuoteError maps quote client failures onto the API taxonomy.
// Anything that is not a clean "unknown symbol" is surfaced uniformly as
// quote-unavailable and never retried here.
func translateQuoteError(err error) *apperrors.AppError {
	if errors.Is(err, quote.ErrSymbolNotFound) {
		return apperrors.ErrStockNotFound
	}
	return apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
}

// normalizeSymbol matches the quote client's canonical ticker form.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// tradeValue returns price*shares in cents. The second return is false when
// the product overflows int64; a wrapped negative cost would slip past the
// guarded cash debit and credit money instead of taking it.
func tradeValue(price, shares int64) (int64, bool) {
	if price > 0 && shares > math.MaxInt64/price {
		return 0, false
	}
	return price * shares, true
}

// holdingRow is the aggregate "sum of shares grouped by stock" projection.
type holdingRow struct {
	StockID string
	Symbol  string
	Name    string
	Shares  int64
}

// GetQuote resolves a ticker symbol via the price service.
func (s *portfolioService) GetQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, translateQuoteError(err)
	}
	return q, nil
}

// GetPortfolio aggregates the user's ledger into net positions, prices each
// one live, and totals them with cash. Prices are fetched per holding at
// call time; there is no cache, so a quote outage fails the whole view.
func (s *portfolioService) GetPortfolio(ctx context.Context, userID string) (*Portfolio, error) {
	user, err := s.getUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	var rows []holdingRow
	if err := s.db.WithContext(ctx).Table("purchases").
		Select("purchases.stock_id AS stock_id, stocks.symbol AS symbol, stocks.name AS name, SUM(purchases.shares) AS shares").
		Joins("JOIN stocks ON stocks.id = purchases.stock_id").
		Where("purchases.user_id = ?", userID).
		Group("purchases.stock_id, stocks.symbol, stocks.name").
		Order("stocks.symbol ASC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	portfolio := &Portfolio{
		Holdings:   []Holding{},
		Cash:       user.Cash,
		TotalValue: user.Cash,
	}

	for _, row := range rows {
		if row.Shares == 0 {
			// Fully closed position, nothing to value.
			continue
		}
		q, err := s.quotes.Lookup(ctx, row.Symbol)
		if err != nil {
			return nil, translateQuoteError(err)
		}
		value, ok := tradeValue(q.Price, row.Shares)
		if !ok {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer,
				fmt.Errorf("position value for %s overflows", row.Symbol))
		}
		portfolio.Holdings = append(portfolio.Holdings, Holding{
			Symbol: row.Symbol,
			Name:   row.Name,
			Shares: row.Shares,
			Price:  q.Price,
			Value:  value,
		})
		portfolio.TotalValue += value
	}

	return portfolio, nil
}

// Buy purchases shares of a symbol at the current quoted price. The stock
// row, the ledger row, and the cash debit commit in a single transaction;
// the debit is guarded by `cash >= cost` so the balance can never go
// negative even under concurrent buys by the same user.
func (s *portfolioService) Buy(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be a positive number")
	}

	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, translateQuoteError(err)
	}
	cost, ok := tradeValue(q.Price, shares)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share count too large")
	}

	purchase := &models.Purchase{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, txErr := s.getUser(tx, userID); txErr != nil {
			return txErr
		}

		stock, txErr := ensureStock(tx, q)
		if txErr != nil {
			return txErr
		}

		debit := tx.Model(&models.User{}).
			Where("id = ? AND cash >= ?", userID, cost).
			Update("cash", gorm.Expr("cash - ?", cost))
		if debit.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, debit.Error)
		}
		if debit.RowsAffected == 0 {
			return apperrors.ErrInsufficientFunds
		}

		purchase.StockID = stock.ID
		purchase.UserID = userID
		purchase.Shares = shares
		purchase.Price = q.Price
		if txErr := tx.Create(purchase).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		purchase.Stock = *stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purchase, nil
}

// Sell disposes of shares at the current quoted price. The cash credit,
// the negative ledger row, and the holding re-check commit in a single
// transaction. The credit runs first: updating the user row takes its row
// lock, so concurrent trades by the same user queue behind it and the
// re-check sees every earlier sell that committed. A sell that would
// overdraw the position rolls back, credit included.
func (s *portfolioService) Sell(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be a positive number")
	}

	var stock models.Stock
	if err := s.db.WithContext(ctx).Where("symbol = ?", normalizeSymbol(symbol)).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	held, err := s.holdingFor(s.db, userID, stock.ID)
	if err != nil {
		return nil, err
	}
	if shares > held {
		return nil, apperrors.ErrInsufficientShares
	}

	q, err := s.quotes.Lookup(ctx, stock.Symbol)
	if err != nil {
		return nil, translateQuoteError(err)
	}
	proceeds, ok := tradeValue(q.Price, shares)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share count too large")
	}

	purchase := &models.Purchase{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locks the user row: a concurrent sell blocks here until this
		// transaction finishes, so its re-check sees our ledger row.
		credit := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("cash", gorm.Expr("cash + ?", proceeds))
		if credit.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, credit.Error)
		}
		if credit.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}

		purchase.StockID = stock.ID
		purchase.UserID = userID
		purchase.Shares = -shares
		purchase.Price = q.Price
		if txErr := tx.Create(purchase).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		// Re-check after the insert: a sell that committed while we waited
		// on the row lock may have drained the position.
		remaining, txErr := s.holdingFor(tx, userID, stock.ID)
		if txErr != nil {
			return txErr
		}
		if remaining < 0 {
			return apperrors.ErrInsufficientShares
		}

		purchase.Stock = stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purchase, nil
}

// holdingFor returns the signed share sum for one (user, stock) pair.
func (s *portfolioService) holdingFor(tx *gorm.DB, userID, stockID string) (int64, error) {
	var held int64
	if err := tx.Model(&models.Purchase{}).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		Select("COALESCE(SUM(shares), 0)").
		Scan(&held).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return held, nil
}

func (s *portfolioService) getUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ensureStock finds or lazily creates the canonical row for a symbol.
// A concurrent first trade of the same symbol loses the insert race on the
// unique index; it falls back to reading the winner's row.
func ensureStock(tx *gorm.DB, q *quote.Quote) (*models.Stock, error) {
	var stock models.Stock
	err := tx.Where(models.Stock{Symbol: q.Symbol}).
		Attrs(models.Stock{Name: q.Name}).
		FirstOrCreate(&stock).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = tx.Where("symbol = ?", q.Symbol).First(&stock).Error
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}
