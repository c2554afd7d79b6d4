package action

import (
	"sync"
	"time"

	"basegraph.app/studiobot/internal/model"
)

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// Outcome is the per-step report of one action run. Steps may be recorded from several
// goroutines.
type Outcome struct {
	Action      model.Action
	IssueNumber int
	DeliveryID  string
	StartedAt   time.Time
	FinishedAt  time.Time

	mu    sync.Mutex
	steps []StepResult
}

func NewOutcome(action model.Action, issueNumber int, deliveryID string, startedAt time.Time) *Outcome {
	return &Outcome{
		Action:      action,
		IssueNumber: issueNumber,
		DeliveryID:  deliveryID,
		StartedAt:   startedAt,
	}
}

func (o *Outcome) OK(name string) {
	o.record(StepResult{Name: name, Status: StepOK})
}

func (o *Outcome) Failed(name string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	o.record(StepResult{Name: name, Status: StepFailed, Reason: reason})
}

func (o *Outcome) Skipped(name, reason string) {
	o.record(StepResult{Name: name, Status: StepSkipped, Reason: reason})
}

func (o *Outcome) Finish(at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.FinishedAt = at
}

func (o *Outcome) record(step StepResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

// Steps returns a copy of the recorded steps in completion order.
func (o *Outcome) Steps() []StepResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]StepResult, len(o.steps))
	copy(out, o.steps)
	return out
}

// Step returns the first step recorded under name.
func (o *Outcome) Step(name string) (StepResult, bool) {
	for _, s := range o.Steps() {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

func (o *Outcome) FailedSteps() []StepResult {
	var failed []StepResult
	for _, s := range o.Steps() {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

func (o *Outcome) Succeeded() bool {
	return len(o.FailedSteps()) == 0
}

// Duration is zero until Finish is called.
func (o *Outcome) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
