package models

// StartingCash is the cash balance, in cents, granted to every new user.
const StartingCash int64 = 1_000_000 // $10,000.00

// User represents a registered account holder. Cash is held in integer
// cents and must never go negative; debits are guarded at the store level.
type User struct {
	Base
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Cash         int64      `gorm:"type:bigint;not null" json:"cash"`
	Purchases    []Purchase `gorm:"foreignKey:UserID" json:"purchases,omitempty"`
}
