package services

import (
	"context"
	"errors"
	"sync"

	"invoicer/internal/ai"
	"invoicer/internal/amqp"
	"invoicer/internal/core"
)

// memStore implements every store port in memory.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	invoices  map[int64]core.Invoice
	expenses  map[int64]core.Expense
	settings  map[int64]core.BusinessSettings
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{
		invoices: map[int64]core.Invoice{},
		expenses: map[int64]core.Expense{},
		settings: map[int64]core.BusinessSettings{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = m.id()
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memStore) UpdateInvoice(_ context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	inv.ID = id
	inv.SheetsRef = old.SheetsRef
	m.invoices[id] = inv
	return inv, nil
}

func (m *memStore) UpdateInvoiceStatus(_ context.Context, id int64, st core.InvoiceStatus) (core.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	inv.Status = st
	m.invoices[id] = inv
	return inv, nil
}

func (m *memStore) GetInvoice(_ context.Context, id int64) (core.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	return inv, nil
}

func (m *memStore) ListInvoicesByUser(_ context.Context, userID int64) ([]core.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []core.Invoice
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memStore) DeleteInvoice(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *memStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.expenses[e.ID] = e
	return e, nil
}

func (m *memStore) UpdateExpense(_ context.Context, id int64, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return core.Expense{}, core.ErrNotFound
	}
	e.ID = id
	m.expenses[id] = e
	return e, nil
}

func (m *memStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (m *memStore) ListExpensesByUser(_ context.Context, userID int64) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) DeleteExpense(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memStore) GetBusinessSettings(_ context.Context, userID int64) (*core.BusinessSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.settings[userID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memStore) UpsertBusinessSettings(_ context.Context, b core.BusinessSettings) (core.BusinessSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.settings[b.UserID]; ok {
		b.ID = old.ID
	} else {
		b.ID = m.id()
	}
	m.settings[b.UserID] = b
	return b, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.SyncMessage
	err  error
}

func (p *recordingPublisher) PublishSync(_ context.Context, msg *amqp.SyncMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type recordingInvalidator struct{ users []int64 }

func (r *recordingInvalidator) Invalidate(userID int64) { r.users = append(r.users, userID) }

type stubDescriber struct{ got ai.DescriptionRequest }

func (s *stubDescriber) GenerateInvoiceDescription(_ context.Context, req ai.DescriptionRequest) string {
	s.got = req
	return "Website redesign for " + req.ClientName
}

type stubCategorizer struct {
	result core.Categorization
	calls  int
}

func (s *stubCategorizer) CategorizeExpense(context.Context, string) core.Categorization {
	s.calls++
	return s.result
}

var errBroker = errors.New("broker unavailable")
