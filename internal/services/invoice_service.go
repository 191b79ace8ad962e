package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"invoicer/internal/ai"
	"invoicer/internal/amqp"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

// InvoiceService orchestrates invoice operations across SQLite, the AI
// assistant and AMQP.
type InvoiceService struct {
	store     InvoiceStore
	describer DescriptionGenerator
	notify    notifier
	logger    *applog.Logger
}

// NewInvoiceService wires the service. publisher and invalidator may be nil.
func NewInvoiceService(store InvoiceStore, describer DescriptionGenerator, publisher Publisher, invalidator Invalidator, logger *applog.Logger) *InvoiceService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentInvoice)
	return &InvoiceService{
		store:     store,
		describer: describer,
		notify:    notifier{publisher: publisher, invalidator: invalidator, logger: logger},
		logger:    logger,
	}
}

// Create normalizes, validates and saves the invoice with its line items.
func (s *InvoiceService) Create(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv.Normalize()
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	created, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	s.logger.InfoContext(ctx, "Invoice created", s.fields(created, applog.OpCreate)...)
	s.notify.changed(ctx, created.UserID, amqp.NewSyncMessage(amqp.EntityInvoice, created.ID))
	return created, nil
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (core.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *InvoiceService) ListByUser(ctx context.Context, userID int64) ([]core.Invoice, error) {
	return s.store.ListInvoicesByUser(ctx, userID)
}

// Update replaces the invoice header and its whole line-item set.
func (s *InvoiceService) Update(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	inv.ID = id
	inv.Normalize()
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	updated, err := s.store.UpdateInvoice(ctx, id, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Invoice updated", s.fields(updated, applog.OpUpdate)...)
	s.notify.changed(ctx, updated.UserID, amqp.NewSyncMessage(amqp.EntityInvoice, updated.ID))
	return updated, nil
}

// UpdateStatus accepts only pending, paid and overdue.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id int64, status string) (core.Invoice, error) {
	st, err := core.ParseInvoiceStatus(status)
	if err != nil {
		return core.Invoice{}, core.Invalid("status", err)
	}

	updated, err := s.store.UpdateInvoiceStatus(ctx, id, st)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice %d status: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Invoice status updated", s.fields(updated, applog.OpUpdate)...)
	s.notify.changed(ctx, updated.UserID, amqp.NewSyncMessage(amqp.EntityInvoice, updated.ID))
	return updated, nil
}

// Delete removes the invoice and its line items.
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	// Read first so the worker learns which exported row to clear.
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Invoice deleted", s.fields(inv, applog.OpDelete)...)
	s.notify.changed(ctx, inv.UserID, amqp.NewDeleteMessage(amqp.EntityInvoice, id, inv.SheetsRef))
	return nil
}

// GenerateDescription never fails; without a usable model it returns the
// static fallback.
func (s *InvoiceService) GenerateDescription(ctx context.Context, clientName string, amount decimal.Decimal, services []string) string {
	if s.describer == nil {
		return ai.FallbackDescription(clientName)
	}
	return s.describer.GenerateInvoiceDescription(ctx, ai.DescriptionRequest{
		ClientName: clientName,
		Amount:     amount,
		Services:   services,
	})
}

func (s *InvoiceService) fields(inv core.Invoice, op string) []any {
	return applog.NewFields().
		WithOperation(op).
		WithInvoice(inv.ID, inv.InvoiceNumber, inv.ClientName, core.FormatMoney(inv.Total())).
		Add(applog.FieldUserID, inv.UserID).
		Add(applog.FieldStatus, string(inv.Status)).
		ToSlice()
}
