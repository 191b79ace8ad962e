package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entities that can be exported.
const (
	EntityInvoice = "invoice"
	EntityExpense = "expense"
)

// Operations carried by a sync message.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// SyncMessage asks the worker to export or remove one row. It carries only
// identifiers; the worker reads the current state from the database.
type SyncMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Operation string    `json:"operation"`
	SheetsRef string    `json:"sheetsRef,omitempty"` // row to clear on delete
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(entity string, id int64) *SyncMessage {
	return &SyncMessage{
		Entity:    entity,
		ID:        id,
		Operation: OpSync,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(entity string, id int64, sheetsRef string) *SyncMessage {
	return &SyncMessage{
		Entity:    entity,
		ID:        id,
		Operation: OpDelete,
		SheetsRef: sheetsRef,
		Timestamp: time.Now(),
	}
}

func (m *SyncMessage) Validate() error {
	if m.Entity != EntityInvoice && m.Entity != EntityExpense {
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	if m.Operation != OpSync && m.Operation != OpDelete {
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
	if m.ID <= 0 {
		return errors.New("message id must be positive")
	}
	return nil
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ErrPermanent marks handler failures that retrying cannot fix. Messages
// failing with it are dropped instead of requeued.
var ErrPermanent = errors.New("permanent failure")
