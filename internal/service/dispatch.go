package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/queue"
)

// Delays is how long each action waits before it runs.
type Delays struct {
	// Settle covers opened and closed, giving the Record Store time to catch up.
	Settle time.Duration
	// Debounce covers labeled and assigned.
	Debounce time.Duration
}

// For returns the delay for a; ok is false for actions without a handler.
func (d Delays) For(a model.Action) (time.Duration, bool) {
	switch a {
	case model.ActionOpened, model.ActionClosed:
		return d.Settle, true
	case model.ActionLabeled, model.ActionAssigned:
		return d.Debounce, true
	default:
		return 0, false
	}
}

type DispatchParams struct {
	Event   model.WebhookEvent
	TraceID string
}

type DispatchResult struct {
	Scheduled bool
	Task      *queue.Task
}

type DispatchService interface {
	Dispatch(ctx context.Context, params DispatchParams) (*DispatchResult, error)
}

type dispatchService struct {
	queue  queue.Queue
	delays Delays
	now    func() time.Time
	logger *slog.Logger
}

func NewDispatchService(q queue.Queue, delays Delays, now func() time.Time, logger *slog.Logger) DispatchService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &dispatchService{
		queue:  q,
		delays: delays,
		now:    now,
		logger: logger,
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, params DispatchParams) (*DispatchResult, error) {
	ev := params.Event
	delay, ok := s.delays.For(ev.Action)
	if !ok {
		s.logger.InfoContext(ctx, "no handler for action, skipping", "action", ev.RawAction, "issue_number", ev.Issue.Number)
		return &DispatchResult{Scheduled: false}, nil
	}
	if ev.Issue.Number <= 0 {
		return nil, fmt.Errorf("event has no issue number")
	}

	now := s.now()
	task := queue.Task{
		ID:          queue.TaskID(ev.Action, ev.Issue.Number, ev.DeliveryID),
		Action:      ev.Action,
		IssueNumber: ev.Issue.Number,
		DeliveryID:  ev.DeliveryID,
		Payload:     ev.RawBody,
		NotBefore:   now.Add(delay),
		EnqueuedAt:  now,
		TraceID:     params.TraceID,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("scheduling %s for issue %d: %w", ev.Action, ev.Issue.Number, err)
	}

	s.logger.InfoContext(ctx, "scheduled action",
		"task_id", task.ID,
		"action", task.Action,
		"issue_number", task.IssueNumber,
		"delay", delay)

	return &DispatchResult{Scheduled: true, Task: &task}, nil
}
