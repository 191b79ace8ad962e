// Package worker exports invoices and expenses from SQLite to a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicer/internal/amqp"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/sheets"
)

// Store is the slice of the repository the worker reads and marks.
type Store interface {
	GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	PendingInvoiceSyncs(ctx context.Context, limit int) ([]int64, error)
	PendingExpenseSyncs(ctx context.Context, limit int) ([]int64, error)
	MarkInvoiceSynced(ctx context.Context, id int64, ref string) error
	MarkExpenseSynced(ctx context.Context, id int64, ref string) error
	MarkInvoiceSyncError(ctx context.Context, id int64) error
	MarkExpenseSyncError(ctx context.Context, id int64) error
}

// SyncWorker handles synchronization of invoices and expenses to the sheet.
type SyncWorker struct {
	store     Store
	exporter  sheets.Exporter
	batchSize int
	logger    *applog.Logger
	locks     *entityLocks
}

func NewSyncWorker(store Store, exporter sheets.Exporter, batchSize int, logger *applog.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
		locks:     newEntityLocks(),
	}
}

// BatchResult counts the outcome of one pending sweep.
type BatchResult struct {
	Synced int
	Failed int
}

// HandleMessage processes one AMQP message. Missing rows are reported as
// permanent so the broker drops the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldEntity, msg.Entity,
		applog.FieldID, msg.ID,
		applog.FieldOperation, msg.Operation)

	if msg.Operation == amqp.OpDelete {
		if err := w.exporter.ClearRow(ctx, msg.SheetsRef); err != nil {
			return fmt.Errorf("clear %s %d: %w", msg.Entity, msg.ID, err)
		}
		w.logger.InfoContext(ctx, "Removed exported row",
			applog.FieldEntity, msg.Entity,
			applog.FieldID, msg.ID,
			applog.FieldSheetsRef, msg.SheetsRef)
		return nil
	}

	var err error
	switch msg.Entity {
	case amqp.EntityInvoice:
		err = w.syncInvoice(ctx, msg.ID)
	case amqp.EntityExpense:
		err = w.syncExpense(ctx, msg.ID)
	default:
		return fmt.Errorf("%w: unknown entity %q", amqp.ErrPermanent, msg.Entity)
	}
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %v", amqp.ErrPermanent, err)
	}
	return err
}

// ProcessPending exports up to one batch of rows of each entity that were
// never synced or whose last export failed. It is the backup path for lost
// messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) (BatchResult, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck sweeps a larger batch once when the worker boots.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) (BatchResult, error) {
	res, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return res, fmt.Errorf("startup sync check: %w", err)
	}
	if res.Synced+res.Failed == 0 {
		w.logger.InfoContext(ctx, "No pending rows found on startup")
		return res, nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"synced", res.Synced,
		"errors", res.Failed)
	return res, nil
}

// RunPeriodic calls ProcessPending on every tick until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res, err := w.ProcessPending(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "Pending sync sweep failed", applog.FieldError, err)
				continue
			}
			if res.Synced+res.Failed > 0 {
				w.logger.InfoContext(ctx, "Pending sync sweep finished",
					"synced", res.Synced,
					"errors", res.Failed)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (BatchResult, error) {
	var res BatchResult

	invoiceIDs, err := w.store.PendingInvoiceSyncs(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("get pending invoices: %w", err)
	}
	expenseIDs, err := w.store.PendingExpenseSyncs(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("get pending expenses: %w", err)
	}

	for _, id := range invoiceIDs {
		if err := w.syncInvoice(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync invoice", applog.FieldInvoiceID, id, applog.FieldError, err)
			res.Failed++
			continue
		}
		res.Synced++
	}
	for _, id := range expenseIDs {
		if err := w.syncExpense(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync expense", applog.FieldExpenseID, id, applog.FieldError, err)
			res.Failed++
			continue
		}
		res.Synced++
	}
	return res, nil
}

// syncInvoice reads the row under the entity lock so a concurrent export
// of the same invoice sees the ref written by the first one.
func (w *SyncWorker) syncInvoice(ctx context.Context, id int64) error {
	defer w.locks.lock(amqp.EntityInvoice, id)()

	inv, err := w.store.GetInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("get invoice from storage: %w", err)
	}

	w.clearStale(ctx, amqp.EntityInvoice, id, inv.SheetsRef)

	ref, err := w.exporter.AppendInvoice(ctx, inv)
	if err != nil {
		if markErr := w.store.MarkInvoiceSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", applog.FieldInvoiceID, id, applog.FieldError, markErr)
		}
		return fmt.Errorf("append invoice to sheets: %w", err)
	}

	// The row is written; a failed mark only means it is exported again later.
	if err := w.store.MarkInvoiceSynced(ctx, id, ref); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", applog.FieldInvoiceID, id, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced invoice",
		applog.NewFields().WithInvoice(inv.ID, inv.InvoiceNumber, inv.ClientName, core.FormatMoney(inv.Total())).
			Add(applog.FieldSheetsRef, ref).ToSlice()...)
	return nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, id int64) error {
	defer w.locks.lock(amqp.EntityExpense, id)()

	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	w.clearStale(ctx, amqp.EntityExpense, id, e.SheetsRef)

	ref, err := w.exporter.AppendExpense(ctx, e)
	if err != nil {
		if markErr := w.store.MarkExpenseSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", applog.FieldExpenseID, id, applog.FieldError, markErr)
		}
		return fmt.Errorf("append expense to sheets: %w", err)
	}

	if err := w.store.MarkExpenseSynced(ctx, id, ref); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", applog.FieldExpenseID, id, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced expense",
		applog.NewFields().WithExpense(e.ID, e.Description, core.FormatMoney(e.Amount), e.Category, e.SubCategory).
			Add(applog.FieldSheetsRef, ref).ToSlice()...)
	return nil
}

// clearStale removes the row written by a previous export so an edited
// entity never appears twice.
func (w *SyncWorker) clearStale(ctx context.Context, entity string, id int64, ref string) {
	if ref == "" {
		return
	}
	if err := w.exporter.ClearRow(ctx, ref); err != nil {
		w.logger.WarnContext(ctx, "Failed to clear previous row",
			applog.FieldEntity, entity,
			applog.FieldID, id,
			applog.FieldSheetsRef, ref,
			applog.FieldError, err)
	}
}
