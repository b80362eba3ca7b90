package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// PlanComputedMessage announces a freshly persisted plan snapshot.
// Consumers fetch the full plan from the snapshot store by ID.
type PlanComputedMessage struct {
	SnapshotID       string          `json:"snapshot_id"`
	MonthsAhead      int             `json:"months_ahead"`
	AsOf             time.Time       `json:"as_of"`
	EstimatedBalance decimal.Decimal `json:"estimated_balance"`
	Degraded         bool            `json:"degraded"`
	Source           core.PlanSource `json:"source"`
	Timestamp        time.Time       `json:"timestamp"`
}

// NewPlanComputedMessage describes plan as stored under snapshotID.
func NewPlanComputedMessage(snapshotID string, plan core.Plan) *PlanComputedMessage {
	return &PlanComputedMessage{
		SnapshotID:       snapshotID,
		MonthsAhead:      plan.MonthsAhead,
		AsOf:             plan.AsOf,
		EstimatedBalance: plan.Summary.EstimatedBalance,
		Degraded:         plan.Degraded,
		Source:           plan.Source,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PlanComputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PlanComputedMessageFromJSON creates a message from JSON bytes
func PlanComputedMessageFromJSON(data []byte) (*PlanComputedMessage, error) {
	var msg PlanComputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RefreshRequestMessage asks the worker to recompute one horizon now.
type RefreshRequestMessage struct {
	RequestID   string    `json:"request_id"`
	MonthsAhead int       `json:"months_ahead"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRefreshRequestMessage creates a refresh request with a fresh ID.
func NewRefreshRequestMessage(monthsAhead int, reason string) *RefreshRequestMessage {
	return &RefreshRequestMessage{
		RequestID:   uuid.NewString(),
		MonthsAhead: monthsAhead,
		Reason:      reason,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestMessageFromJSON decodes and validates a refresh request.
func RefreshRequestMessageFromJSON(data []byte) (*RefreshRequestMessage, error) {
	var msg RefreshRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.MonthsAhead < 0 {
		return nil, fmt.Errorf("invalid months_ahead %d", msg.MonthsAhead)
	}
	return &msg, nil
}
