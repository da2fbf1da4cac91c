package services

import (
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// historyService is a read-only projection over the purchase ledger.
type historyService struct {
	db *gorm.DB
}

// NewHistoryService creates a new HistoryServicer.
func NewHistoryService(db *gorm.DB) HistoryServicer {
	return &historyService{db: db}
}

// ListTransactions returns the user's ledger rows in insertion order
// (date ascending), each annotated with the stock symbol and a direction
// label derived from the sign of the share count.
func (s *historyService) ListTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[LedgerEntry], error) {
	page.Defaults()

	base := s.db.Model(&models.Purchase{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var purchases []models.Purchase
	if err := s.db.Preload("Stock").
		Where("user_id = ?", userID).
		Order("date ASC").
		Scopes(pagination.Paginate(page)).
		Find(&purchases).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := make([]LedgerEntry, 0, len(purchases))
	for _, p := range purchases {
		entry := LedgerEntry{
			ID:     p.ID,
			Symbol: p.Stock.Symbol,
			Price:  p.Price,
			Date:   p.Date,
		}
		if p.Shares < 0 {
			entry.Shares = -p.Shares
			entry.Direction = "sold"
		} else {
			entry.Shares = p.Shares
			entry.Direction = "bought"
		}
		entries = append(entries, entry)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
