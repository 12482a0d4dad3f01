package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"budgettracker/internal/log"
)

// EventType names a change as "<entity>.<action>".
type EventType string

const (
	BudgetCreated      EventType = "budget.created"
	BudgetUpdated      EventType = "budget.updated"
	BudgetDeleted      EventType = "budget.deleted"
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
)

const (
	EntityBudget      = "budget"
	EntityTransaction = "transaction"
)

var knownEvents = map[EventType]bool{
	BudgetCreated: true, BudgetUpdated: true, BudgetDeleted: true,
	TransactionCreated: true, TransactionUpdated: true, TransactionDeleted: true,
}

func (t EventType) Valid() bool {
	return knownEvents[t]
}

// Entity returns the part before the dot, e.g. "budget".
func (t EventType) Entity() string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

func (t EventType) IsDelete() bool {
	return strings.HasSuffix(string(t), ".deleted")
}

// ChangeEvent announces that a record changed. It carries identifiers only;
// consumers read the current state from the database.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// IDField is the log field that names the changed record.
func (e ChangeEvent) IDField() string {
	if e.Entity == EntityBudget {
		return log.FieldBudgetID
	}
	return log.FieldTransactionID
}

// NewChangeEvent creates an event for record id owned by userID.
func NewChangeEvent(t EventType, id, userID int64) ChangeEvent {
	return ChangeEvent{
		Type:      t,
		Entity:    t.Entity(),
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and checks an event body.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	if !e.Type.Valid() {
		return ChangeEvent{}, fmt.Errorf("decode change event: unknown type %q", e.Type)
	}
	if e.ID <= 0 || e.UserID <= 0 {
		return ChangeEvent{}, fmt.Errorf("decode change event: missing id or user_id")
	}
	if e.Entity == "" {
		e.Entity = e.Type.Entity()
	}
	return e, nil
}
