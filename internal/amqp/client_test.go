package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"amqp closed", fmt.Errorf("start consuming: %w", amqp091.ErrClosed), true},
		{"channel closed", errors.New("message channel closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestHandleMessage(t *testing.T) {
	valid, err := NewSyncMessage(EntityInvoice, 3).ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantAck    bool
		wantNack   bool
		wantRequeu bool
	}{
		{"success", valid, nil, true, false, false},
		{"transient failure requeues", valid, errors.New("sheets timeout"), false, true, true},
		{"permanent failure drops", valid, fmt.Errorf("invoice gone: %w", ErrPermanent), false, true, false},
		{"garbage drops", []byte("{"), nil, false, true, false},
		{"unknown entity drops", []byte(`{"entity":"user","id":1,"operation":"sync"}`), nil, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			called := false
			handleMessage(context.Background(), tt.body, ack, func(_ context.Context, m *SyncMessage) error {
				called = true
				if m.Entity != EntityInvoice || m.ID != 3 {
					t.Errorf("unexpected message %+v", m)
				}
				return tt.handlerErr
			})
			if ack.acked != tt.wantAck || ack.nacked != tt.wantNack || ack.requeued != tt.wantRequeu {
				t.Errorf("ack=%v nack=%v requeue=%v", ack.acked, ack.nacked, ack.requeued)
			}
			if tt.name == "garbage drops" && called {
				t.Error("handler must not run for undecodable messages")
			}
		})
	}
}

func TestSyncMessageRoundTrip(t *testing.T) {
	msg := NewDeleteMessage(EntityExpense, 9, "Expenses!A5:G5")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := SyncMessageFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Operation != OpDelete || got.SheetsRef != "Expenses!A5:G5" || got.ID != 9 {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestPublishRejectsInvalidMessage(t *testing.T) {
	c := &Client{exchangeName: "x", queueName: "q"}
	err := c.PublishSync(context.Background(), &SyncMessage{Entity: "invoice", Operation: OpSync})
	if err == nil {
		t.Fatal("expected validation error for zero id")
	}
}
