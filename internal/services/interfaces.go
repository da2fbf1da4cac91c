package services

import (
	"context"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/pagination"
	"papertrade/internal/quote"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	Register(username, password, confirmation string) (*models.User, error)
	Authenticate(username, password string) (*models.User, error)
	ChangePassword(userID, oldPassword, newPassword, confirmation string) error
	UsernameAvailable(username string) (bool, error)
	GetUserByID(id string) (*models.User, error)
}

// Holding is one aggregated position: the signed sum of a user's ledger
// rows for a stock, priced live at view time.
type Holding struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Shares int64  `json:"shares"`
	Price  int64  `json:"price"` // current price, cents
	Value  int64  `json:"value"` // shares * price, cents
}

// Portfolio is the full portfolio view: positions, cash, and the grand total.
type Portfolio struct {
	Holdings   []Holding `json:"holdings"`
	Cash       int64     `json:"cash"`
	TotalValue int64     `json:"total_value"` // cash + sum of position values
}

// PortfolioServicer defines the contract for trading and valuation.
type PortfolioServicer interface {
	GetPortfolio(ctx context.Context, userID string) (*Portfolio, error)
	Buy(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error)
	Sell(ctx context.Context, userID, symbol string, shares int64) (*models.Purchase, error)
	GetQuote(ctx context.Context, symbol string) (*quote.Quote, error)
}

// LedgerEntry is one history line: a purchase row annotated with its
// stock symbol and a direction label derived from the sign of shares.
type LedgerEntry struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"` // absolute value for display
	Direction string    `json:"direction"`
	Price     int64     `json:"price"`
	Date      time.Time `json:"date"`
}

// HistoryServicer defines the contract for the read-only transaction history.
type HistoryServicer interface {
	ListTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[LedgerEntry], error)
}
