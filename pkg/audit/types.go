package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Event represents a single audit log entry
type Event struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"user_id" bson:"user_id"`
	Action     string         `json:"action" bson:"action"`
	Resource   string         `json:"resource,omitempty" bson:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Result     Result         `json:"result" bson:"result"`
	Error      string         `json:"error,omitempty" bson:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
// Used with Log, LogFailure and LogError to add metadata, resources, etc.
type EventOption func(*Event)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchStorage is implemented by backends with an efficient bulk write.
type BatchStorage interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// Criteria selects events for a Querier. Zero fields match everything.
type Criteria struct {
	UserID string
	Action string
	Result Result
	Since  time.Time
	Until  time.Time
	Limit  int
}

// Match reports whether e satisfies every set field of c.
func (c Criteria) Match(e Event) bool {
	switch {
	case c.UserID != "" && e.UserID != c.UserID:
		return false
	case c.Action != "" && e.Action != c.Action:
		return false
	case c.Result != "" && e.Result != c.Result:
		return false
	case !c.Since.IsZero() && e.CreatedAt.Before(c.Since):
		return false
	case !c.Until.IsZero() && !e.CreatedAt.Before(c.Until):
		return false
	}
	return true
}

// Querier is implemented by storages that can read events back.
type Querier interface {
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}
