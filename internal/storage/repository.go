package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"invoicer/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// dsn enables foreign keys and a busy timeout on every pooled connection.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, core.ErrNotFound)
	}
	return err
}

// CreateInvoice inserts the invoice header and its line items atomically.
func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	var out core.Invoice
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.CreateInvoice(ctx, CreateInvoiceParams{
			UserID:        inv.UserID,
			ClientName:    inv.ClientName,
			InvoiceNumber: inv.InvoiceNumber,
			Description:   inv.Description,
			Status:        string(inv.Status),
			DueDate:       inv.DueDate,
			Template:      string(inv.Template),
			TaxRate:       inv.TaxRate,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		items, err := insertLineItems(ctx, q, row.ID, inv.LineItems)
		if err != nil {
			return err
		}
		out = toCoreInvoice(row, items)
		return nil
	})
	if err != nil {
		return core.Invoice{}, err
	}

	slog.InfoContext(ctx, "Invoice saved to SQLite",
		"id", out.ID,
		"invoice_number", out.InvoiceNumber,
		"line_items", len(out.LineItems))
	return out, nil
}

// UpdateInvoice rewrites the header and replaces the full line-item set.
func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	var out core.Invoice
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.UpdateInvoice(ctx, UpdateInvoiceParams{
			ID:            id,
			ClientName:    inv.ClientName,
			InvoiceNumber: inv.InvoiceNumber,
			Description:   inv.Description,
			Status:        string(inv.Status),
			DueDate:       inv.DueDate,
			Template:      string(inv.Template),
			TaxRate:       inv.TaxRate,
		})
		if err != nil {
			return fmt.Errorf("update invoice: %w", notFound(err, "invoice", id))
		}
		if err := q.DeleteLineItems(ctx, id); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		items, err := insertLineItems(ctx, q, id, inv.LineItems)
		if err != nil {
			return err
		}
		out = toCoreInvoice(row, items)
		return nil
	})
	if err != nil {
		return core.Invoice{}, err
	}
	return out, nil
}

// DeleteInvoice removes the invoice together with its line items.
func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteLineItems(ctx, id); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		n, err := q.DeleteInvoice(ctx, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("delete invoice: invoice %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

func (r *SQLiteRepository) UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus) (core.Invoice, error) {
	row, err := r.queries.UpdateInvoiceStatus(ctx, id, string(status))
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice status: %w", notFound(err, "invoice", id))
	}
	items, err := r.queries.ListLineItems(ctx, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("list line items: %w", err)
	}
	return toCoreInvoice(row, items), nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	row, err := r.queries.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", notFound(err, "invoice", id))
	}
	items, err := r.queries.ListLineItems(ctx, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("list line items: %w", err)
	}
	return toCoreInvoice(row, items), nil
}

func (r *SQLiteRepository) ListInvoicesByUser(ctx context.Context, userID int64) ([]core.Invoice, error) {
	rows, err := r.queries.ListInvoicesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices by user: %w", err)
	}
	out := make([]core.Invoice, 0, len(rows))
	for _, row := range rows {
		items, err := r.queries.ListLineItems(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("list line items for invoice %d: %w", row.ID, err)
		}
		out = append(out, toCoreInvoice(row, items))
	}
	return out, nil
}

// CountLineItems is used to verify that no line items outlive their invoice.
func (r *SQLiteRepository) CountLineItems(ctx context.Context, invoiceID int64) (int64, error) {
	n, err := r.queries.CountLineItems(ctx, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("count line items: %w", err)
	}
	return n, nil
}

func insertLineItems(ctx context.Context, q *Queries, invoiceID int64, items []core.LineItem) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	for i, li := range items {
		row, err := q.CreateLineItem(ctx, CreateLineItemParams{
			InvoiceID:   invoiceID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("create line item %d: %w", i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Date:        e.Date,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"description", row.Description,
		"amount", row.Amount.StringFixed(2),
		"category", row.Category)
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	row, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:          id,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Date:        e.Date,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", notFound(err, "expense", id))
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense: expense %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", notFound(err, "expense", id))
	}
	return toCoreExpense(row), nil
}

func (r *SQLiteRepository) ListExpensesByUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses by user: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toCoreExpense(row)
	}
	return out, nil
}

// GetBusinessSettings returns nil when the user has not saved settings yet.
func (r *SQLiteRepository) GetBusinessSettings(ctx context.Context, userID int64) (*core.BusinessSettings, error) {
	row, err := r.queries.GetBusinessSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get business settings: %w", err)
	}
	b := toCoreSettings(row)
	return &b, nil
}

func (r *SQLiteRepository) UpsertBusinessSettings(ctx context.Context, b core.BusinessSettings) (core.BusinessSettings, error) {
	row, err := r.queries.UpsertBusinessSettings(ctx, UpsertBusinessSettingsParams{
		UserID:       b.UserID,
		BusinessName: b.BusinessName,
		Address:      b.Address,
		City:         b.City,
		State:        b.State,
		ZipCode:      b.ZipCode,
		Phone:        b.Phone,
		Email:        b.Email,
		Logo:         b.Logo,
	})
	if err != nil {
		return core.BusinessSettings{}, fmt.Errorf("upsert business settings: %w", err)
	}
	return toCoreSettings(row), nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return core.User(row), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user %q: %w", username, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return core.User(row), nil
}

func toCoreInvoice(row Invoice, items []LineItem) core.Invoice {
	inv := core.Invoice{
		ID:            row.ID,
		UserID:        row.UserID,
		ClientName:    row.ClientName,
		InvoiceNumber: row.InvoiceNumber,
		Description:   row.Description,
		Status:        core.InvoiceStatus(row.Status),
		DueDate:       row.DueDate,
		Template:      core.Template(row.Template),
		TaxRate:       row.TaxRate,
		CreatedAt:     row.CreatedAt,
		SheetsRef:     row.SheetsRef,
		LineItems:     make([]core.LineItem, len(items)),
	}
	for i, li := range items {
		inv.LineItems[i] = core.LineItem(li)
	}
	return inv
}

func toCoreExpense(row Expense) core.Expense {
	return core.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      row.Amount,
		Category:    row.Category,
		SubCategory: row.SubCategory,
		Date:        row.Date,
		CreatedAt:   row.CreatedAt,
		SheetsRef:   row.SheetsRef,
	}
}

func toCoreSettings(row BusinessSetting) core.BusinessSettings {
	return core.BusinessSettings(row)
}
