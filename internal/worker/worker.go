package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/queue"
	"basegraph.app/studiobot/internal/store"
)

const (
	StepDecodeTask = "decode_task"
	StepReconcile  = "reconcile"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	Now          func() time.Time
}

// Scheduler drains due tasks from the queue and runs their actions. Tasks for one issue
// run one at a time; different issues run in parallel.
type Scheduler struct {
	queue      queue.Queue
	mapper     mapper.EventMapper
	reconciler Reconciler
	outcomes   store.OutcomeStore
	cfg        Config
	logger     *slog.Logger

	locks    *issueLocks
	inflight sync.WaitGroup

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// New builds a Scheduler. outcomes may be nil when no database is configured.
func New(q queue.Queue, m mapper.EventMapper, r Reconciler, outcomes store.OutcomeStore, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:      q,
		mapper:     m,
		reconciler: r,
		outcomes:   outcomes,
		cfg:        cfg,
		logger:     logger,
		locks:      newIssueLocks(),
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Run polls the queue until Stop is called or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "studiobot.worker.scheduler",
	})

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "scheduler started",
		"poll_interval", s.cfg.PollInterval,
		"batch_size", s.cfg.BatchSize)

	for {
		if _, err := s.DrainOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "drain cycle error", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			s.logger.InfoContext(ctx, "scheduler stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop ends the poll loop and waits for in-flight actions. It must only be called once Run
// has been started.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.stoppedCh
	s.inflight.Wait()
}

// Wait blocks until every action started so far has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// DrainOnce claims the tasks due now and starts them. It returns the number claimed.
func (s *Scheduler) DrainOnce(ctx context.Context) (int, error) {
	tasks, err := s.queue.ClaimDue(ctx, s.cfg.Now(), s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claiming due tasks: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	s.logger.DebugContext(ctx, "claimed due tasks", "count", len(tasks))

	// Actions outlive the poll loop; Stop waits for them instead of cancelling.
	runCtx := context.WithoutCancel(ctx)
	for _, group := range groupByIssue(tasks) {
		s.inflight.Add(1)
		go func(group []queue.Task) {
			defer s.inflight.Done()
			for _, task := range group {
				s.runTask(runCtx, task)
			}
		}(group)
	}

	return len(tasks), nil
}

// groupByIssue keeps claim order inside each issue.
func groupByIssue(tasks []queue.Task) [][]queue.Task {
	index := make(map[int]int)
	var groups [][]queue.Task
	for _, task := range tasks {
		i, ok := index[task.IssueNumber]
		if !ok {
			i = len(groups)
			index[task.IssueNumber] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], task)
	}
	return groups
}

func (s *Scheduler) runTask(ctx context.Context, task queue.Task) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		IssueNumber: logger.Ptr(task.IssueNumber),
		DeliveryID:  logger.Ptr(task.DeliveryID),
		Action:      logger.Ptr(string(task.Action)),
		TaskID:      logger.Ptr(task.ID),
	})

	unlock := s.locks.Lock(task.IssueNumber)
	defer unlock()

	sp := logger.ContinueTrace(ctx, task.TraceID, "worker.action."+string(task.Action),
		trace.WithAttributes(
			attribute.String("studiobot.task_id", task.ID),
			attribute.Int("studiobot.issue_number", task.IssueNumber),
			attribute.String("studiobot.delivery_id", task.DeliveryID),
		))
	defer sp.End()
	ctx = sp.Context()

	s.logger.InfoContext(ctx, "running action",
		"enqueued_at", task.EnqueuedAt,
		"lag", s.cfg.Now().Sub(task.NotBefore))

	out := s.execute(ctx, task)
	if !out.Succeeded() {
		sp.Fail(fmt.Errorf("%d failed steps", len(out.FailedSteps())))
	}
	s.report(ctx, out)
}

func (s *Scheduler) execute(ctx context.Context, task queue.Task) *action.Outcome {
	event, err := s.mapper.Map(ctx, task.Payload, map[string]string{
		mapper.HeaderEvent:    "issues",
		mapper.HeaderDelivery: task.DeliveryID,
	})
	if err != nil {
		return s.failedOutcome(task, StepDecodeTask, err)
	}

	out, err := s.reconcile(ctx, event)
	if err != nil {
		return s.failedOutcome(task, StepReconcile, err)
	}
	if out == nil {
		return s.failedOutcome(task, StepReconcile, errors.New("action returned no outcome"))
	}
	return out
}

func (s *Scheduler) reconcile(ctx context.Context, event model.WebhookEvent) (out *action.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic recovered in action", "panic", r)
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.reconciler.Reconcile(ctx, event)
}

func (s *Scheduler) failedOutcome(task queue.Task, step string, err error) *action.Outcome {
	now := s.cfg.Now()
	out := action.NewOutcome(task.Action, task.IssueNumber, task.DeliveryID, now)
	out.Failed(step, err)
	out.Finish(now)
	return out
}

func (s *Scheduler) report(ctx context.Context, out *action.Outcome) {
	for _, step := range out.FailedSteps() {
		s.logger.WarnContext(ctx, "action step failed",
			"step", step.Name,
			"reason", step.Reason)
	}

	s.logger.InfoContext(ctx, "action finished",
		"succeeded", out.Succeeded(),
		"steps", len(out.Steps()),
		"failed_steps", len(out.FailedSteps()),
		"duration", out.Duration())

	if s.outcomes == nil {
		return
	}
	id, err := s.outcomes.Save(ctx, out)
	if err != nil {
		s.logger.ErrorContext(ctx, "saving outcome failed", "error", err)
		return
	}
	s.logger.DebugContext(ctx, "outcome saved", "outcome_id", id)
}
