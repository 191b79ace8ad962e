package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/amqp"
	"invoicer/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newInvoice() core.Invoice {
	return core.Invoice{
		UserID:        1,
		ClientName:    "Acme",
		InvoiceNumber: "INV-001",
		DueDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []core.LineItem{
			{Quantity: d("2"), UnitPrice: d("10"), Amount: d("999")},
			{Description: "Hosting", Quantity: d("1"), UnitPrice: d("5")},
		},
	}
}

func TestInvoiceCreateComputesTotalAndPublishes(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	svc := NewInvoiceService(store, nil, pub, inv, nil)

	created, err := svc.Create(context.Background(), newInvoice())
	require.NoError(t, err)

	assert.Equal(t, "25.00", core.FormatMoney(created.Total()))
	assert.Equal(t, "20.00", core.FormatMoney(created.LineItems[0].Amount))
	assert.Equal(t, "Professional services for Acme", created.LineItems[0].Description)
	assert.Equal(t, core.StatusPending, created.Status)
	assert.Equal(t, core.TemplateModern, created.Template)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, amqp.EntityInvoice, pub.msgs[0].Entity)
	assert.Equal(t, amqp.OpSync, pub.msgs[0].Operation)
	assert.Equal(t, created.ID, pub.msgs[0].ID)
	assert.Equal(t, []int64{1}, inv.users)
}

func TestInvoiceCreateValidation(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewInvoiceService(store, nil, pub, nil, nil)

	bad := newInvoice()
	bad.ClientName = " "
	_, err := svc.Create(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, store.invoices)
	assert.Empty(t, pub.msgs)
}

func TestInvoiceCreateSurvivesPublishFailure(t *testing.T) {
	svc := NewInvoiceService(newMemStore(), nil, &recordingPublisher{err: errBroker}, nil, nil)

	_, err := svc.Create(context.Background(), newInvoice())
	assert.NoError(t, err)
}

func TestInvoiceUpdateReplacesLineItems(t *testing.T) {
	store := newMemStore()
	svc := NewInvoiceService(store, nil, nil, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, newInvoice())
	require.NoError(t, err)

	upd := newInvoice()
	upd.LineItems = []core.LineItem{{Description: "Retainer", Quantity: d("1"), UnitPrice: d("100")}}
	got, err := svc.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "100.00", core.FormatMoney(got.Total()))

	_, err = svc.Update(ctx, 404, newInvoice())
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestInvoiceUpdateStatus(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewInvoiceService(store, nil, pub, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, newInvoice())
	require.NoError(t, err)

	for _, st := range []string{"paid", "overdue", "pending"} {
		got, err := svc.UpdateStatus(ctx, created.ID, st)
		require.NoError(t, err, st)
		assert.Equal(t, core.InvoiceStatus(st), got.Status)
	}

	for _, st := range []string{"", "cancelled", "PAID!"} {
		_, err := svc.UpdateStatus(ctx, created.ID, st)
		require.Error(t, err, st)
		assert.True(t, core.IsValidation(err), st)
	}

	_, err = svc.UpdateStatus(ctx, 999, "paid")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Len(t, pub.msgs, 4)
}

func TestInvoiceDeletePublishesRowRef(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewInvoiceService(store, nil, pub, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, newInvoice())
	require.NoError(t, err)
	stored := store.invoices[created.ID]
	stored.SheetsRef = "Invoices!A2:I2"
	store.invoices[created.ID] = stored

	require.NoError(t, svc.Delete(ctx, created.ID))
	last := pub.msgs[len(pub.msgs)-1]
	assert.Equal(t, amqp.OpDelete, last.Operation)
	assert.Equal(t, "Invoices!A2:I2", last.SheetsRef)

	err = svc.Delete(ctx, created.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestGenerateDescription(t *testing.T) {
	desc := &stubDescriber{}
	svc := NewInvoiceService(newMemStore(), desc, nil, nil, nil)

	got := svc.GenerateDescription(context.Background(), "Acme", d("1250"), []string{"design"})
	assert.Equal(t, "Website redesign for Acme", got)
	assert.Equal(t, []string{"design"}, desc.got.Services)

	plain := NewInvoiceService(newMemStore(), nil, nil, nil, nil)
	assert.Equal(t, "Professional services provided to Acme",
		plain.GenerateDescription(context.Background(), "Acme", d("1"), nil))
}

func newExpense() core.Expense {
	return core.Expense{
		UserID:      1,
		Description: "Train ticket to client site",
		Amount:      d("42.5"),
		Date:        time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpenseCreateAutoCategorizes(t *testing.T) {
	cat := &stubCategorizer{result: core.Categorization{MainCategory: "Travel", SubCategory: "Train", Confidence: 0.9}}
	pub := &recordingPublisher{}
	svc := NewExpenseService(newMemStore(), cat, pub, nil, nil)

	created, err := svc.Create(context.Background(), newExpense())
	require.NoError(t, err)
	assert.Equal(t, "Travel", created.Category)
	assert.Equal(t, "Train", created.SubCategory)
	assert.Equal(t, 1, cat.calls)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, amqp.EntityExpense, pub.msgs[0].Entity)
}

func TestExpenseCreateKeepsGivenCategory(t *testing.T) {
	cat := &stubCategorizer{result: core.Categorization{MainCategory: "Travel"}}
	svc := NewExpenseService(newMemStore(), cat, nil, nil, nil)

	e := newExpense()
	e.Category = "Marketing"
	created, err := svc.Create(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "Marketing", created.Category)
	assert.Zero(t, cat.calls)
}

func TestExpenseCreateWithoutCategorizerFallsBack(t *testing.T) {
	svc := NewExpenseService(newMemStore(), nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), newExpense())
	require.NoError(t, err)
	assert.Equal(t, core.FallbackCategory, created.Category)

	c := svc.Categorize(context.Background(), "anything")
	assert.Equal(t, "Other", c.MainCategory)
	assert.Zero(t, c.Confidence)
}

func TestExpenseCreateValidation(t *testing.T) {
	svc := NewExpenseService(newMemStore(), nil, nil, nil, nil)

	e := newExpense()
	e.Amount = d("0")
	_, err := svc.Create(context.Background(), e)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestExpenseUpdateAndDelete(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, nil, pub, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, newExpense())
	require.NoError(t, err)

	upd := created
	upd.Amount = d("50")
	upd.Category = "Travel"
	got, err := svc.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("50")))

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, amqp.OpDelete, pub.msgs[len(pub.msgs)-1].Operation)

	_, err = svc.Update(ctx, created.ID, upd)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, created.ID), core.ErrNotFound))
}

func TestExpenseUpdateWithEmptyCategoryRecategorizes(t *testing.T) {
	cat := &stubCategorizer{result: core.Categorization{MainCategory: "Travel", SubCategory: "Train"}}
	svc := NewExpenseService(newMemStore(), cat, nil, nil, nil)
	ctx := context.Background()

	e := newExpense()
	e.Category = "Marketing"
	created, err := svc.Create(ctx, e)
	require.NoError(t, err)
	assert.Zero(t, cat.calls)

	upd := created
	upd.Category = ""
	upd.SubCategory = ""
	got, err := svc.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.Category)
	assert.Equal(t, "Train", got.SubCategory)
	assert.Equal(t, 1, cat.calls)

	plain := NewExpenseService(newMemStore(), nil, nil, nil, nil)
	created, err = plain.Create(ctx, e)
	require.NoError(t, err)
	upd = created
	upd.Category = ""
	got, err = plain.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, core.FallbackCategory, got.Category)
}

func TestSettingsUpsert(t *testing.T) {
	svc := NewSettingsService(newMemStore(), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Upsert(ctx, core.BusinessSettings{UserID: 1, BusinessName: "Shop"})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	saved, err := svc.Upsert(ctx, core.BusinessSettings{
		UserID: 1, BusinessName: " Shop ", Address: "1 Main", City: "Town", State: "CA", ZipCode: "90000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shop", saved.BusinessName)

	again, err := svc.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
}

func TestDashboardCachesUntilInvalidated(t *testing.T) {
	store := newMemStore()
	dash := NewDashboardService(store, store, 10, time.Minute, nil)
	invoices := NewInvoiceService(store, nil, nil, dash, nil)
	ctx := context.Background()

	_, err := invoices.Create(ctx, newInvoice())
	require.NoError(t, err)

	s1, err := dash.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s1.InvoiceCount)
	_, err = dash.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	_, err = invoices.Create(ctx, newInvoice())
	require.NoError(t, err)
	s2, err := dash.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, s2.InvoiceCount)
	assert.Equal(t, 2, store.listCalls)
	assert.Equal(t, "50.00", core.FormatMoney(s2.Outstanding))
}

// gatedStore pauses ListInvoicesByUser after reading so a write can land
// while a summary load is in flight.
type gatedStore struct {
	*memStore
	listed  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ListInvoicesByUser(ctx context.Context, userID int64) ([]core.Invoice, error) {
	out, err := g.memStore.ListInvoicesByUser(ctx, userID)
	g.once.Do(func() {
		close(g.listed)
		<-g.release
	})
	return out, err
}

func TestDashboardDropsSummaryLoadedBeforeWrite(t *testing.T) {
	store := &gatedStore{memStore: newMemStore(), listed: make(chan struct{}), release: make(chan struct{})}
	dash := NewDashboardService(store, store, 10, time.Minute, nil)
	invoices := NewInvoiceService(store, nil, nil, dash, nil)
	ctx := context.Background()

	done := make(chan core.Summary)
	go func() {
		s, _ := dash.Summary(ctx, 1)
		done <- s
	}()

	<-store.listed
	_, err := invoices.Create(ctx, newInvoice())
	require.NoError(t, err)
	close(store.release)
	assert.Equal(t, 0, (<-done).InvoiceCount)

	s, err := dash.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.InvoiceCount)
}
