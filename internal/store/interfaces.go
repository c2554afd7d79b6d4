package store

import (
	"context"
	"errors"
	"time"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/service"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// OutcomeRecord is a persisted action outcome.
type OutcomeRecord struct {
	ID          int64               `json:"id,string"`
	Action      string              `json:"action"`
	IssueNumber int                 `json:"issue_number"`
	DeliveryID  string              `json:"delivery_id"`
	Succeeded   bool                `json:"succeeded"`
	Steps       []action.StepResult `json:"steps"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// OutcomeStore defines the contract for action outcome history
type OutcomeStore interface {
	Save(ctx context.Context, out *action.Outcome) (int64, error)
	// ListByIssue returns the newest outcomes first.
	ListByIssue(ctx context.Context, issueNumber int, limit int) ([]OutcomeRecord, error)
}

// SweepStore defines the contract for sweep run history
type SweepStore interface {
	Save(ctx context.Context, report *service.SweepReport) (int64, error)
}
