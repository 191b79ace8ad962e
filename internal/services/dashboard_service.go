package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"invoicer/internal/cache"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

// DashboardService builds per-user summaries. Results are cached until a
// write for the same user invalidates them or the TTL expires.
type DashboardService struct {
	invoices InvoiceStore
	expenses ExpenseStore
	cache    *cache.LRUCache[core.Summary]
	logger   *applog.Logger
}

func NewDashboardService(invoices InvoiceStore, expenses ExpenseStore, size int, ttl time.Duration, logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		invoices: invoices,
		expenses: expenses,
		cache:    cache.NewLRUCache[core.Summary](size, ttl),
		logger:   logger.WithComponent(applog.ComponentCache),
	}
}

// Summary returns the cached summary or loads invoices and expenses
// concurrently and aggregates them.
func (d *DashboardService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	return d.cache.GetOrLoad(cacheKey(userID), func() (core.Summary, error) {
		var (
			invoices []core.Invoice
			expenses []core.Expense
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			invoices, err = d.invoices.ListInvoicesByUser(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			expenses, err = d.expenses.ListExpensesByUser(gctx, userID)
			return err
		})
		if err := g.Wait(); err != nil {
			return core.Summary{}, fmt.Errorf("load dashboard for user %d: %w", userID, err)
		}
		d.logger.DebugContext(ctx, "Dashboard summary rebuilt", applog.FieldUserID, userID)
		return core.Summarize(userID, invoices, expenses), nil
	})
}

func (d *DashboardService) Invalidate(userID int64) {
	d.cache.Delete(cacheKey(userID))
}

// Cache exposes the summary cache for periodic cleanup.
func (d *DashboardService) Cache() cache.Cleaner {
	return d.cache
}

func cacheKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
