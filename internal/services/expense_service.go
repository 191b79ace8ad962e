package services

import (
	"context"
	"fmt"

	"invoicer/internal/amqp"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

// ExpenseService orchestrates expense operations across SQLite, the AI
// categorizer and AMQP.
type ExpenseService struct {
	store       ExpenseStore
	categorizer ExpenseCategorizer
	notify      notifier
	logger      *applog.Logger
}

// NewExpenseService wires the service. publisher and invalidator may be nil.
func NewExpenseService(store ExpenseStore, categorizer ExpenseCategorizer, publisher Publisher, invalidator Invalidator, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentExpense)
	return &ExpenseService{
		store:       store,
		categorizer: categorizer,
		notify:      notifier{publisher: publisher, invalidator: invalidator, logger: logger},
		logger:      logger,
	}
}

// Create saves an expense. An empty category is filled in by the
// categorizer, which falls back to "Other" when the model is unavailable.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.fillCategory(ctx, &e)

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created", s.fields(created, applog.OpCreate)...)
	s.notify.changed(ctx, created.UserID, amqp.NewSyncMessage(amqp.EntityExpense, created.ID))
	return created, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) ListByUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.store.ListExpensesByUser(ctx, userID)
}

// Update replaces an expense. Clearing the category re-runs the categorizer
// the same way Create does.
func (s *ExpenseService) Update(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	e.ID = id
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.fillCategory(ctx, &e)

	updated, err := s.store.UpdateExpense(ctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense updated", s.fields(updated, applog.OpUpdate)...)
	s.notify.changed(ctx, updated.UserID, amqp.NewSyncMessage(amqp.EntityExpense, updated.ID))
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense deleted", s.fields(e, applog.OpDelete)...)
	s.notify.changed(ctx, e.UserID, amqp.NewDeleteMessage(amqp.EntityExpense, id, e.SheetsRef))
	return nil
}

// Categorize classifies a description without saving anything.
func (s *ExpenseService) Categorize(ctx context.Context, description string) core.Categorization {
	if s.categorizer == nil {
		return core.FallbackCategorization("automatic categorization is disabled")
	}
	return s.categorizer.CategorizeExpense(ctx, description)
}

func (s *ExpenseService) fillCategory(ctx context.Context, e *core.Expense) {
	if e.Category != "" {
		return
	}
	c := s.Categorize(ctx, e.Description)
	e.Category = c.MainCategory
	if e.SubCategory == "" {
		e.SubCategory = c.SubCategory
	}
}

func (s *ExpenseService) fields(e core.Expense, op string) []any {
	return applog.NewFields().
		WithOperation(op).
		WithExpense(e.ID, e.Description, core.FormatMoney(e.Amount), e.Category, e.SubCategory).
		Add(applog.FieldUserID, e.UserID).
		ToSlice()
}
