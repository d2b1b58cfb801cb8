package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Budget event kinds published on the exchange.
const (
	EventBudgetCreated  = "budget.created"
	EventBudgetApproved = "budget.approved"
	EventBudgetRejected = "budget.rejected"
)

// BudgetEventMessage is a lightweight notification that something
// happened to a budget. It carries only the ID and event kind; the
// worker fetches the full budget from the database.
type BudgetEventMessage struct {
	BudgetID      int64     `json:"budget_id"`
	Event         string    `json:"event"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewBudgetEventMessage creates an event message with a fresh correlation id.
func NewBudgetEventMessage(budgetID int64, event string) *BudgetEventMessage {
	return &BudgetEventMessage{
		BudgetID:      budgetID,
		Event:         event,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetEventMessageFromJSON creates a message from JSON bytes
func BudgetEventMessageFromJSON(data []byte) (*BudgetEventMessage, error) {
	var msg BudgetEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
