package models

// Stock is a canonical row per traded ticker symbol, created lazily the
// first time anyone trades the symbol and never updated or deleted.
type Stock struct {
	Base
	Symbol string `gorm:"uniqueIndex;not null" json:"symbol"`
	Name   string `gorm:"not null" json:"name"`
}
