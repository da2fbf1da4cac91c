package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"papertrade/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, a unique username,
// and the starting cash balance.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithCash(t, db, models.StartingCash)
}

// CreateTestUserWithCash creates a user with the given cash balance (in cents).
func CreateTestUserWithCash(t *testing.T, db *gorm.DB, cash int64) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     fmt.Sprintf("user%d", nextID()),
		PasswordHash: string(hash),
		Cash:         cash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestStock creates a stock row for the given symbol.
func CreateTestStock(t *testing.T, db *gorm.DB, symbol, name string) *models.Stock {
	t.Helper()

	stock := &models.Stock{
		Symbol: symbol,
		Name:   name,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestPurchase inserts a ledger row. Negative shares record a sell.
func CreateTestPurchase(t *testing.T, db *gorm.DB, userID, stockID string, shares, price int64) *models.Purchase {
	t.Helper()

	purchase := &models.Purchase{
		UserID:  userID,
		StockID: stockID,
		Shares:  shares,
		Price:   price,
		Date:    time.Now(),
	}
	if err := db.Create(purchase).Error; err != nil {
		t.Fatalf("failed to create test purchase: %v", err)
	}
	return purchase
}
