package services

import (
	"context"

	"invoicer/internal/ai"
	"invoicer/internal/amqp"
	"invoicer/internal/core"
)

// Consumer-side views of the repository, the assistant and the broker.
type (
	InvoiceStore interface {
		CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
		UpdateInvoice(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error)
		UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus) (core.Invoice, error)
		GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
		ListInvoicesByUser(ctx context.Context, userID int64) ([]core.Invoice, error)
		DeleteInvoice(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, id int64, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		ListExpensesByUser(ctx context.Context, userID int64) ([]core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	SettingsStore interface {
		GetBusinessSettings(ctx context.Context, userID int64) (*core.BusinessSettings, error)
		UpsertBusinessSettings(ctx context.Context, b core.BusinessSettings) (core.BusinessSettings, error)
	}

	DescriptionGenerator interface {
		GenerateInvoiceDescription(ctx context.Context, req ai.DescriptionRequest) string
	}

	ExpenseCategorizer interface {
		CategorizeExpense(ctx context.Context, description string) core.Categorization
	}

	// Publisher delivers sync messages to the worker. *amqp.Client satisfies it.
	Publisher interface {
		PublishSync(ctx context.Context, msg *amqp.SyncMessage) error
	}

	// Invalidator drops cached read models for a user after a write.
	Invalidator interface {
		Invalidate(userID int64)
	}
)
