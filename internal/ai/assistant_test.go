package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core"
)

type fakeCompleter struct {
	reply string
	err   error
	calls atomic.Int32
	delay time.Duration
	last  CompletionRequest
	mu    sync.Mutex
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.reply, f.err
}

func testTaxonomy(t *testing.T) core.Taxonomy {
	t.Helper()
	tax, err := LoadTaxonomy("")
	require.NoError(t, err)
	return tax
}

func TestCategorizeFallsBackOnError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("upstream 500")}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	got := a.CategorizeExpense(context.Background(), "Flight to Berlin")
	assert.Equal(t, core.FallbackCategory, got.MainCategory)
	assert.Zero(t, got.Confidence)

	// Failures are not cached.
	a.CategorizeExpense(context.Background(), "Flight to Berlin")
	assert.Equal(t, int32(2), fc.calls.Load())
}

func TestCategorizeFallsBackOnGarbage(t *testing.T) {
	fc := &fakeCompleter{reply: "I think it's travel"}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	got := a.CategorizeExpense(context.Background(), "Flight to Berlin")
	assert.Equal(t, core.FallbackCategory, got.MainCategory)
	assert.Zero(t, got.Confidence)
}

func TestCategorizeResolvesAndCaches(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n{\"mainCategory\":\"travel\",\"subCategory\":\"flights\",\"confidence\":0.92,\"explanation\":\"air fare\"}\n```"}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	got := a.CategorizeExpense(context.Background(), "Flight to Berlin")
	assert.Equal(t, "Travel", got.MainCategory)
	assert.Equal(t, "Flights", got.SubCategory)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.True(t, fc.last.JSON)
	assert.Contains(t, fc.last.System, "Office Supplies")

	again := a.CategorizeExpense(context.Background(), "  flight   to berlin ")
	assert.Equal(t, got, again)
	assert.Equal(t, int32(1), fc.calls.Load())
}

func TestCategorizeUnknownCategory(t *testing.T) {
	fc := &fakeCompleter{reply: `{"mainCategory":"Groceries","confidence":0.8}`}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	got := a.CategorizeExpense(context.Background(), "Bananas")
	assert.Equal(t, core.FallbackCategory, got.MainCategory)
	assert.Zero(t, got.Confidence)
}

func TestCategorizeCollapsesConcurrentCalls(t *testing.T) {
	fc := &fakeCompleter{reply: `{"mainCategory":"Software","confidence":0.7}`, delay: 50 * time.Millisecond}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Software", a.CategorizeExpense(context.Background(), "IDE license").MainCategory)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, fc.calls.Load(), int32(2))
}

func TestDisabledAssistant(t *testing.T) {
	a := NewAssistant(nil, testTaxonomy(t), Options{}, nil)

	got := a.CategorizeExpense(context.Background(), "Anything")
	assert.Equal(t, core.FallbackCategory, got.MainCategory)

	desc := a.GenerateInvoiceDescription(context.Background(), DescriptionRequest{ClientName: "Acme"})
	assert.Equal(t, "Professional services provided to Acme", desc)
}

func TestGenerateInvoiceDescription(t *testing.T) {
	fc := &fakeCompleter{reply: "Website redesign for Acme."}
	a := NewAssistant(fc, testTaxonomy(t), Options{}, nil)

	desc := a.GenerateInvoiceDescription(context.Background(), DescriptionRequest{
		ClientName: "Acme",
		Amount:     decimal.RequireFromString("1500"),
		Services:   []string{"Design", "Development"},
	})
	assert.Equal(t, "Website redesign for Acme.", desc)
	assert.Contains(t, fc.last.User, `"Acme"`)
	assert.Contains(t, fc.last.User, "$1500.00")
	assert.Contains(t, fc.last.User, "Design, Development")

	fc.err = errors.New("timeout")
	desc = a.GenerateInvoiceDescription(context.Background(), DescriptionRequest{ClientName: "Acme"})
	assert.Equal(t, FallbackDescription("Acme"), desc)
}

func TestParseTaxonomyAddsFallback(t *testing.T) {
	tax, err := ParseTaxonomy([]byte("categories:\n  - name: Travel\n"))
	require.NoError(t, err)
	_, ok := tax.Lookup(core.FallbackCategory)
	assert.True(t, ok)

	_, err = ParseTaxonomy([]byte("categories: []"))
	assert.Error(t, err)
}

func TestDefaultTaxonomy(t *testing.T) {
	tax := testTaxonomy(t)
	assert.Equal(t, []string{
		"Office Supplies", "Travel", "Software", "Hardware", "Marketing",
		"Professional Services", "Utilities", "Other",
	}, tax.Names())
}
