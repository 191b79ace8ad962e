package storage

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Invoice struct {
	ID            int64
	UserID        int64
	ClientName    string
	InvoiceNumber string
	Description   string
	Status        string
	DueDate       time.Time
	Template      string
	TaxRate       decimal.Decimal
	CreatedAt     time.Time
	SyncStatus    string
	SheetsRef     string
	SyncedAt      sql.NullTime
}

type LineItem struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

type Expense struct {
	ID          int64
	UserID      int64
	Description string
	Amount      decimal.Decimal
	Category    string
	SubCategory string
	Date        time.Time
	CreatedAt   time.Time
	SyncStatus  string
	SheetsRef   string
	SyncedAt    sql.NullTime
}

type BusinessSetting struct {
	ID           int64
	UserID       int64
	BusinessName string
	Address      string
	City         string
	State        string
	ZipCode      string
	Phone        string
	Email        string
	Logo         string
	UpdatedAt    time.Time
}
