package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basegraph.app/studiobot/internal/model"
)

var ErrInvalidTask = errors.New("invalid task")

// Task is one delayed Reconciliation Action run. Payload is the raw webhook body so the
// worker can rebuild the event exactly as it was delivered.
type Task struct {
	ID          string       `json:"id"`
	Action      model.Action `json:"action"`
	IssueNumber int          `json:"issue_number"`
	DeliveryID  string       `json:"delivery_id"`
	Payload     []byte       `json:"payload"`
	NotBefore   time.Time    `json:"not_before"`
	EnqueuedAt  time.Time    `json:"enqueued_at"`
	TraceID     string       `json:"trace_id,omitempty"`
}

// TaskID keys a task by (action, issue number, delivery id).
func TaskID(action model.Action, issueNumber int, deliveryID string) string {
	return fmt.Sprintf("%s:%d:%s", action, issueNumber, deliveryID)
}

func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTask)
	}
	if !t.Action.Known() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTask, t.Action)
	}
	if t.IssueNumber <= 0 {
		return fmt.Errorf("%w: missing issue number", ErrInvalidTask)
	}
	if len(t.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidTask)
	}
	return nil
}

// Due reports whether the task may run at now.
func (t Task) Due(now time.Time) bool {
	return !t.NotBefore.After(now)
}

// Queue holds tasks until their NotBefore time passes.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// ClaimDue removes and returns up to limit tasks due at now. A claimed task belongs to
	// the caller; no other ClaimDue returns it.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error)
	Len(ctx context.Context) (int, error)
	Close() error
}
