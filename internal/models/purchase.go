package models

import (
	"time"

	"gorm.io/gorm"
)

// Purchase is an immutable ledger row recording one trade event. The sign
// of Shares encodes direction: positive for buys, negative for sells. A
// user's holding of a stock is the signed sum of their rows for it; it is
// never stored directly.
type Purchase struct {
	Base
	StockID string    `gorm:"type:uuid;not null;index" json:"stock_id"`
	UserID  string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Shares  int64     `gorm:"type:bigint;not null" json:"shares"`
	Price   int64     `gorm:"type:bigint;not null" json:"price"` // cents per share at trade time
	Date    time.Time `gorm:"not null" json:"date"`

	// Relationships
	Stock Stock `gorm:"foreignKey:StockID" json:"stock,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate hook defaults the trade date to insertion time.
func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if err := p.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	return nil
}

