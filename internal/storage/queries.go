package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, user_id, client_name, invoice_number, description, status, due_date, template, tax_rate, created_at, sync_status, sheets_ref, synced_at`

const expenseColumns = `id, user_id, description, amount, category, sub_category, date, created_at, sync_status, sheets_ref, synced_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var i Invoice
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ClientName,
		&i.InvoiceNumber,
		&i.Description,
		&i.Status,
		timeScan{&i.DueDate},
		&i.Template,
		&i.TaxRate,
		timeScan{&i.CreatedAt},
		&i.SyncStatus,
		&i.SheetsRef,
		nullTimeScan{&i.SyncedAt},
	)
	return i, err
}

func scanExpense(row rowScanner) (Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Description,
		&e.Amount,
		&e.Category,
		&e.SubCategory,
		timeScan{&e.Date},
		timeScan{&e.CreatedAt},
		&e.SyncStatus,
		&e.SheetsRef,
		nullTimeScan{&e.SyncedAt},
	)
	return e, err
}

// Users

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash) VALUES (?, ?)
RETURNING id, username, password_hash, created_at
`

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, username, passwordHash)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, timeScan{&u.CreatedAt})
	return u, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash, created_at FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, timeScan{&u.CreatedAt})
	return u, err
}

// Invoices

const createInvoice = `-- name: CreateInvoice :one
INSERT INTO invoices (user_id, client_name, invoice_number, description, status, due_date, template, tax_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + invoiceColumns

type CreateInvoiceParams struct {
	UserID        int64
	ClientName    string
	InvoiceNumber string
	Description   string
	Status        string
	DueDate       time.Time
	Template      string
	TaxRate       decimal.Decimal
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRowContext(ctx, createInvoice,
		arg.UserID,
		arg.ClientName,
		arg.InvoiceNumber,
		arg.Description,
		arg.Status,
		arg.DueDate,
		arg.Template,
		arg.TaxRate,
	)
	return scanInvoice(row)
}

const updateInvoice = `-- name: UpdateInvoice :one
UPDATE invoices
SET client_name = ?, invoice_number = ?, description = ?, status = ?, due_date = ?, template = ?, tax_rate = ?,
    sync_status = 'pending'
WHERE id = ?
RETURNING ` + invoiceColumns

type UpdateInvoiceParams struct {
	ID            int64
	ClientName    string
	InvoiceNumber string
	Description   string
	Status        string
	DueDate       time.Time
	Template      string
	TaxRate       decimal.Decimal
}

func (q *Queries) UpdateInvoice(ctx context.Context, arg UpdateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRowContext(ctx, updateInvoice,
		arg.ClientName,
		arg.InvoiceNumber,
		arg.Description,
		arg.Status,
		arg.DueDate,
		arg.Template,
		arg.TaxRate,
		arg.ID,
	)
	return scanInvoice(row)
}

const updateInvoiceStatus = `-- name: UpdateInvoiceStatus :one
UPDATE invoices SET status = ?, sync_status = 'pending' WHERE id = ?
RETURNING ` + invoiceColumns

func (q *Queries) UpdateInvoiceStatus(ctx context.Context, id int64, status string) (Invoice, error) {
	row := q.db.QueryRowContext(ctx, updateInvoiceStatus, status, id)
	return scanInvoice(row)
}

const getInvoice = `-- name: GetInvoice :one
SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

func (q *Queries) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	row := q.db.QueryRowContext(ctx, getInvoice, id)
	return scanInvoice(row)
}

const listInvoicesByUser = `-- name: ListInvoicesByUser :many
SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = ? ORDER BY created_at DESC, id DESC`

func (q *Queries) ListInvoicesByUser(ctx context.Context, userID int64) ([]Invoice, error) {
	rows, err := q.db.QueryContext(ctx, listInvoicesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteInvoice = `-- name: DeleteInvoice :execrows
DELETE FROM invoices WHERE id = ?
`

func (q *Queries) DeleteInvoice(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteInvoice, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPendingInvoiceSyncs = `-- name: ListPendingInvoiceSyncs :many
SELECT id FROM invoices WHERE sync_status IN ('pending', 'error') ORDER BY id LIMIT ?
`

func (q *Queries) ListPendingInvoiceSyncs(ctx context.Context, limit int64) ([]int64, error) {
	return q.listIDs(ctx, listPendingInvoiceSyncs, limit)
}

const markInvoiceSynced = `-- name: MarkInvoiceSynced :exec
UPDATE invoices SET sync_status = 'synced', sheets_ref = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) MarkInvoiceSynced(ctx context.Context, id int64, ref string) error {
	_, err := q.db.ExecContext(ctx, markInvoiceSynced, ref, id)
	return err
}

const markInvoiceSyncError = `-- name: MarkInvoiceSyncError :exec
UPDATE invoices SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkInvoiceSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markInvoiceSyncError, id)
	return err
}

// Line items

const createLineItem = `-- name: CreateLineItem :one
INSERT INTO line_items (invoice_id, description, quantity, unit_price, amount)
VALUES (?, ?, ?, ?, ?)
RETURNING id, invoice_id, description, quantity, unit_price, amount
`

type CreateLineItemParams struct {
	InvoiceID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

func (q *Queries) CreateLineItem(ctx context.Context, arg CreateLineItemParams) (LineItem, error) {
	row := q.db.QueryRowContext(ctx, createLineItem,
		arg.InvoiceID,
		arg.Description,
		arg.Quantity,
		arg.UnitPrice,
		arg.Amount,
	)
	var li LineItem
	err := row.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.Amount)
	return li, err
}

const listLineItems = `-- name: ListLineItems :many
SELECT id, invoice_id, description, quantity, unit_price, amount FROM line_items WHERE invoice_id = ? ORDER BY id
`

func (q *Queries) ListLineItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	rows, err := q.db.QueryContext(ctx, listLineItems, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.Amount); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLineItems = `-- name: DeleteLineItems :exec
DELETE FROM line_items WHERE invoice_id = ?
`

func (q *Queries) DeleteLineItems(ctx context.Context, invoiceID int64) error {
	_, err := q.db.ExecContext(ctx, deleteLineItems, invoiceID)
	return err
}

const countLineItems = `-- name: CountLineItems :one
SELECT COUNT(*) FROM line_items WHERE invoice_id = ?
`

func (q *Queries) CountLineItems(ctx context.Context, invoiceID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLineItems, invoiceID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

// Expenses

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (user_id, description, amount, category, sub_category, date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	UserID      int64
	Description string
	Amount      decimal.Decimal
	Category    string
	SubCategory string
	Date        time.Time
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.SubCategory,
		arg.Date,
	)
	return scanExpense(row)
}

const updateExpense = `-- name: UpdateExpense :one
UPDATE expenses
SET description = ?, amount = ?, category = ?, sub_category = ?, date = ?, sync_status = 'pending'
WHERE id = ?
RETURNING ` + expenseColumns

type UpdateExpenseParams struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Category    string
	SubCategory string
	Date        time.Time
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, updateExpense,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.SubCategory,
		arg.Date,
		arg.ID,
	)
	return scanExpense(row)
}

const getExpense = `-- name: GetExpense :one
SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	return scanExpense(row)
}

const listExpensesByUser = `-- name: ListExpensesByUser :many
SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteExpense = `-- name: DeleteExpense :execrows
DELETE FROM expenses WHERE id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPendingExpenseSyncs = `-- name: ListPendingExpenseSyncs :many
SELECT id FROM expenses WHERE sync_status IN ('pending', 'error') ORDER BY id LIMIT ?
`

func (q *Queries) ListPendingExpenseSyncs(ctx context.Context, limit int64) ([]int64, error) {
	return q.listIDs(ctx, listPendingExpenseSyncs, limit)
}

const markExpenseSynced = `-- name: MarkExpenseSynced :exec
UPDATE expenses SET sync_status = 'synced', sheets_ref = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) MarkExpenseSynced(ctx context.Context, id int64, ref string) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, ref, id)
	return err
}

const markExpenseSyncError = `-- name: MarkExpenseSyncError :exec
UPDATE expenses SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markExpenseSyncError, id)
	return err
}

// Business settings

const getBusinessSettings = `-- name: GetBusinessSettings :one
SELECT id, user_id, business_name, address, city, state, zip_code, phone, email, logo, updated_at
FROM business_settings WHERE user_id = ?
`

func (q *Queries) GetBusinessSettings(ctx context.Context, userID int64) (BusinessSetting, error) {
	row := q.db.QueryRowContext(ctx, getBusinessSettings, userID)
	return scanBusinessSetting(row)
}

const upsertBusinessSettings = `-- name: UpsertBusinessSettings :one
INSERT INTO business_settings (user_id, business_name, address, city, state, zip_code, phone, email, logo, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    business_name = excluded.business_name,
    address = excluded.address,
    city = excluded.city,
    state = excluded.state,
    zip_code = excluded.zip_code,
    phone = excluded.phone,
    email = excluded.email,
    logo = excluded.logo,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, user_id, business_name, address, city, state, zip_code, phone, email, logo, updated_at
`

type UpsertBusinessSettingsParams struct {
	UserID       int64
	BusinessName string
	Address      string
	City         string
	State        string
	ZipCode      string
	Phone        string
	Email        string
	Logo         string
}

func (q *Queries) UpsertBusinessSettings(ctx context.Context, arg UpsertBusinessSettingsParams) (BusinessSetting, error) {
	row := q.db.QueryRowContext(ctx, upsertBusinessSettings,
		arg.UserID,
		arg.BusinessName,
		arg.Address,
		arg.City,
		arg.State,
		arg.ZipCode,
		arg.Phone,
		arg.Email,
		arg.Logo,
	)
	return scanBusinessSetting(row)
}

func scanBusinessSetting(row rowScanner) (BusinessSetting, error) {
	var b BusinessSetting
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.BusinessName,
		&b.Address,
		&b.City,
		&b.State,
		&b.ZipCode,
		&b.Phone,
		&b.Email,
		&b.Logo,
		timeScan{&b.UpdatedAt},
	)
	return b, err
}

func (q *Queries) listIDs(ctx context.Context, query string, limit int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
