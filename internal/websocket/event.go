package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeStatus  EventType = "status"
	EventTypeGranted EventType = "granted"
	EventTypeSpun    EventType = "spun"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeExpense      EntityType = "expense"
	EntityTypeIncome       EntityType = "income"
	EntityTypeGoal         EntityType = "goal"
	EntityTypeSubscription EntityType = "subscription"
	EntityTypeGamification EntityType = "gamification"
	EntityTypeSync         EntityType = "sync"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "expense.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "expense"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates an expense.created or income.created event
func TransactionCreated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeCreated, entity, payload)
}

// TransactionUpdated creates an expense.updated or income.updated event
func TransactionUpdated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, entity, payload)
}

// TransactionDeleted creates an expense.deleted or income.deleted event
func TransactionDeleted(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeDeleted, entity, payload)
}

// GoalCreated creates a goal.created event
func GoalCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeGoal, payload)
}

// GoalUpdated creates a goal.updated event
func GoalUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeGoal, payload)
}

// GoalDeleted creates a goal.deleted event
func GoalDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeGoal, payload)
}

// SubscriptionUpdated creates a subscription.updated event
func SubscriptionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSubscription, payload)
}

// DailySpinGranted creates a gamification.granted event
func DailySpinGranted(payload interface{}) Event {
	return NewEvent(EventTypeGranted, EntityTypeGamification, payload)
}

// SpinResolved creates a gamification.spun event
func SpinResolved(payload interface{}) Event {
	return NewEvent(EventTypeSpun, EntityTypeGamification, payload)
}

// SyncStatus creates a sync.status event carrying the connection health, so
// clients can show an offline indicator without polling.
func SyncStatus(payload interface{}) Event {
	return NewEvent(EventTypeStatus, EntityTypeSync, payload)
}
