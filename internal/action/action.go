// Package action holds the Reconciliation Actions run for each issues-event action.
package action

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"basegraph.app/studiobot/common"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/retry"
	"basegraph.app/studiobot/internal/service/file_storage"
	"basegraph.app/studiobot/internal/service/issue_tracker"
	"basegraph.app/studiobot/internal/service/messaging"
	"basegraph.app/studiobot/internal/service/record_store"
)

var ErrUnhandledAction = errors.New("no handler for action")

// Services are the external systems an action reconciles. Storage may be nil.
type Services struct {
	Tracker   issue_tracker.IssueTrackerService
	Records   record_store.RecordStoreService
	Messaging messaging.MessagingService
	Storage   file_storage.FileStorageService
}

type Config struct {
	Owner      string
	Repository string
	Namespace  string
	Managers   []string
	OwnerField string

	// RecordViewURL is prefixed to a record ID to link it.
	RecordViewURL string
	DriveURL      string
	DriveWorkDir  string

	Lookup   retry.Policy
	Location *time.Location
	Now      func() time.Time
}

// Reconciler runs one action against the external systems and reports every step.
type Reconciler interface {
	Reconcile(ctx context.Context, event model.WebhookEvent) *Outcome
}

type Registry struct {
	opened   Reconciler
	labeled  Reconciler
	assigned Reconciler
	closed   Reconciler
}

func NewRegistry(svc Services, cfg Config) *Registry {
	b := newBase(svc, cfg)
	return &Registry{
		opened:   &opened{b},
		labeled:  &labeled{b},
		assigned: &assigned{b},
		closed:   &closed{b},
	}
}

// Reconcile runs the action matching event.Action.
func (r *Registry) Reconcile(ctx context.Context, event model.WebhookEvent) (*Outcome, error) {
	var h Reconciler
	switch event.Action {
	case model.ActionOpened:
		h = r.opened
	case model.ActionLabeled:
		h = r.labeled
	case model.ActionAssigned:
		h = r.assigned
	case model.ActionClosed:
		h = r.closed
	case model.ActionUnknown:
		return nil, fmt.Errorf("%w: %q", ErrUnhandledAction, event.RawAction)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnhandledAction, event.Action)
	}
	return h.Reconcile(ctx, event), nil
}

type base struct {
	svc     Services
	cfg     Config
	records *RecordSync
}

func newBase(svc Services, cfg Config) base {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.OwnerField == "" {
		cfg.OwnerField = "owner"
	}
	return base{
		svc:     svc,
		cfg:     cfg,
		records: NewRecordSync(svc.Records, cfg.Location, cfg.Now),
	}
}

func (b base) start(event model.WebhookEvent) *Outcome {
	return NewOutcome(event.Action, event.Issue.Number, event.DeliveryID, b.cfg.Now())
}

func (b base) finish(out *Outcome) {
	out.Finish(b.cfg.Now())
}

// lookupRequest retries misses, since the record can trail the issue by several seconds.
func (b base) lookupRequest(ctx context.Context, number int) (*model.RequestRecord, error) {
	return retry.Do(ctx, b.cfg.Lookup, func(ctx context.Context) (*model.RequestRecord, error) {
		return b.svc.Records.FindRequestByIssue(ctx, number)
	}, func(err error) bool {
		return errors.Is(err, record_store.ErrNotFound)
	})
}

func (b base) groupName(number int) string {
	return common.GroupName(b.cfg.Namespace, number)
}

func (b base) issueURL(number int) string {
	return fmt.Sprintf("https://github.com/%s/%s/issues/%d", b.cfg.Owner, b.cfg.Repository, number)
}

func (b base) recordURL(recordID string) string {
	return b.cfg.RecordViewURL + recordID
}

func (b base) folderURL(folderID string) string {
	return strings.TrimSuffix(b.cfg.DriveURL, "/") + "/" + folderID
}

func groupURL(groupID, teamID string) string {
	q := url.Values{}
	q.Set("channel", groupID)
	if teamID != "" {
		q.Set("team", teamID)
	}
	return "https://slack.com/app_redirect?" + q.Encode()
}

func issueBody(body string) issue_tracker.IssueEdit {
	return issue_tracker.IssueEdit{Body: &body}
}

func issueLabels(labels []string) issue_tracker.IssueEdit {
	return issue_tracker.IssueEdit{Labels: &labels}
}

func issueState(state model.IssueState) issue_tracker.IssueEdit {
	return issue_tracker.IssueEdit{State: &state}
}
