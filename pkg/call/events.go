package call

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of engine event
type EventType string

const (
	// EventSnapshot fires whenever a new state snapshot is published
	EventSnapshot EventType = "call.snapshot"

	// EventCallEnded fires when the bound call is destroyed
	EventCallEnded EventType = "call.ended"

	// EventPromptForceUpdate fires on protocol-version-mismatch termination
	EventPromptForceUpdate EventType = "prompt.force_update"

	// EventPromptParticipantsLimit fires on too-many-participants termination
	EventPromptParticipantsLimit EventType = "prompt.participants_limit"

	// EventPromptUpgrade fires on duration or call-count limit termination
	EventPromptUpgrade EventType = "prompt.upgrade"

	// EventOpenWaitingRoom fires when answering must go through the
	// waiting room instead of joining directly
	EventOpenWaitingRoom EventType = "call.open_waiting_room"

	// EventSnackbar carries a one-shot transient user message
	EventSnackbar EventType = "message.snackbar"
)

// Event is a discrete one-shot engine event. Termination prompts are
// reported as events distinct from the snapshot because each reason drives
// a different user-facing prompt.
type Event struct {
	// ID is a unique event identifier
	ID string `json:"id"`

	// Type is the event type
	Type EventType `json:"type"`

	// CallID is the call the event belongs to
	CallID string `json:"call_id,omitempty"`

	// Timestamp is when the event was emitted
	Timestamp time.Time `json:"timestamp"`

	// Message is a human-readable description for snackbar events
	Message string `json:"message,omitempty"`

	// Data carries event-specific payload, a Snapshot for EventSnapshot
	Data interface{} `json:"data,omitempty"`
}

// EventCallback handles engine events
type EventCallback func(event *Event)

// EventBus manages event subscriptions and publishing
type EventBus struct {
	// subscribers stores callbacks by event type
	subscribers map[EventType][]EventCallback
	// mu protects concurrent access
	mu sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]EventCallback),
	}
}

// Subscribe registers a callback for an event type
func (eb *EventBus) Subscribe(eventType EventType, callback EventCallback) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], callback)
}

// SubscribeAll registers a callback for every event type
func (eb *EventBus) SubscribeAll(callback EventCallback) {
	eventTypes := []EventType{
		EventSnapshot,
		EventCallEnded,
		EventPromptForceUpdate,
		EventPromptParticipantsLimit,
		EventPromptUpgrade,
		EventOpenWaitingRoom,
		EventSnackbar,
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, eventType := range eventTypes {
		eb.subscribers[eventType] = append(eb.subscribers[eventType], callback)
	}
}

// Publish publishes an event to all subscribers asynchronously
func (eb *EventBus) Publish(event *Event) {
	eb.mu.RLock()
	callbacks := make([]EventCallback, len(eb.subscribers[event.Type]))
	copy(callbacks, eb.subscribers[event.Type])
	eb.mu.RUnlock()

	for _, callback := range callbacks {
		go callback(event)
	}
}

// PublishSync publishes an event synchronously (blocking)
func (eb *EventBus) PublishSync(event *Event) {
	eb.mu.RLock()
	callbacks := make([]EventCallback, len(eb.subscribers[event.Type]))
	copy(callbacks, eb.subscribers[event.Type])
	eb.mu.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}

// Clear removes all subscribers
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers = make(map[EventType][]EventCallback)
}

// newEvent creates an engine event
func newEvent(eventType EventType, callID, message string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		CallID:    callID,
		Timestamp: time.Now(),
		Message:   message,
		Data:      data,
	}
}
