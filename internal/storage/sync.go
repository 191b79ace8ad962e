package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// PendingInvoiceSyncs returns ids of invoices not yet exported, or whose
// last export failed.
func (r *SQLiteRepository) PendingInvoiceSyncs(ctx context.Context, limit int) ([]int64, error) {
	ids, err := r.queries.ListPendingInvoiceSyncs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending invoice syncs: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) PendingExpenseSyncs(ctx context.Context, limit int) ([]int64, error) {
	ids, err := r.queries.ListPendingExpenseSyncs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending expense syncs: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) MarkInvoiceSynced(ctx context.Context, id int64, ref string) error {
	if err := r.queries.MarkInvoiceSynced(ctx, id, ref); err != nil {
		return fmt.Errorf("mark invoice synced: %w", err)
	}
	slog.InfoContext(ctx, "Invoice marked as synced", "id", id, "sheets_ref", ref)
	return nil
}

func (r *SQLiteRepository) MarkExpenseSynced(ctx context.Context, id int64, ref string) error {
	if err := r.queries.MarkExpenseSynced(ctx, id, ref); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id, "sheets_ref", ref)
	return nil
}

func (r *SQLiteRepository) MarkInvoiceSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkInvoiceSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark invoice sync error: %w", err)
	}
	slog.WarnContext(ctx, "Invoice marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkExpenseSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkExpenseSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}
