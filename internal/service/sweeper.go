package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/label"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/issue_tracker"
	"basegraph.app/studiobot/internal/service/record_store"
)

const defaultSweepPageSize = 100

type SweepFailure struct {
	IssueNumber int    `json:"issue_number"`
	Step        string `json:"step"`
	Reason      string `json:"reason"`
}

type SweepReport struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	IssuesScanned int
	Corrections   int
	CardsDeleted  int
	Failures      []SweepFailure
}

func (r *SweepReport) fail(issueNumber int, step string, err error) {
	r.Failures = append(r.Failures, SweepFailure{IssueNumber: issueNumber, Step: step, Reason: err.Error()})
}

type SweeperConfig struct {
	// CardRetention is how long a closed issue keeps its project cards.
	CardRetention time.Duration
	PageSize      int
	Now           func() time.Time
}

// SweeperService reconciles every issue against its labels and clears stale cards.
type SweeperService interface {
	Sweep(ctx context.Context) (*SweepReport, error)
}

type sweeperService struct {
	tracker issue_tracker.IssueTrackerService
	records record_store.RecordStoreService
	sync    *action.RecordSync
	cfg     SweeperConfig
	logger  *slog.Logger
}

func NewSweeperService(
	tracker issue_tracker.IssueTrackerService,
	records record_store.RecordStoreService,
	sync *action.RecordSync,
	cfg SweeperConfig,
	logger *slog.Logger,
) SweeperService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultSweepPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &sweeperService{
		tracker: tracker,
		records: records,
		sync:    sync,
		cfg:     cfg,
		logger:  logger,
	}
}

// Sweep never stops on a single issue's failure. It returns an error only when the issue
// listing itself failed; the report still covers every issue that was listed.
func (s *sweeperService) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.cfg.Now()}
	defer func() { report.FinishedAt = s.cfg.Now() }()

	issues, listErr := s.listAll(ctx)
	if listErr != nil {
		report.fail(0, "list_issues", listErr)
		s.logger.ErrorContext(ctx, "listing issues failed", "error", listErr, "listed", len(issues))
	}

	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.IssuesScanned++
		s.sweepIssue(ctx, issue, report)
	}

	s.logger.InfoContext(ctx, "sweep finished",
		"issues_scanned", report.IssuesScanned,
		"corrections", report.Corrections,
		"cards_deleted", report.CardsDeleted,
		"failures", len(report.Failures))

	if listErr != nil {
		return report, fmt.Errorf("listing issues: %w", listErr)
	}
	return report, nil
}

// listAll pages until it holds totalCount issues or the listing runs out.
func (s *sweeperService) listAll(ctx context.Context) ([]model.TrackedIssue, error) {
	var (
		all   []model.TrackedIssue
		after string
	)
	for {
		page, err := s.tracker.ListIssues(ctx, issue_tracker.ListIssuesParams{After: after, First: s.cfg.PageSize})
		if err != nil {
			return all, err
		}
		all = append(all, page.Issues...)

		if len(all) >= page.TotalCount || !page.HasNextPage || len(page.Issues) == 0 {
			return all, nil
		}
		if page.EndCursor == "" || page.EndCursor == after {
			return all, nil
		}
		after = page.EndCursor
	}
}

func (s *sweeperService) sweepIssue(ctx context.Context, issue model.TrackedIssue, report *SweepReport) {
	s.correctRecord(ctx, issue, report)
	s.clearCards(ctx, issue, report)
}

func (s *sweeperService) correctRecord(ctx context.Context, issue model.TrackedIssue, report *SweepReport) {
	canonical := label.Derive(issue.Labels)
	if canonical == (label.Canonical{}) {
		return
	}

	request, err := s.records.FindRequestByIssue(ctx, issue.Number)
	if errors.Is(err, record_store.ErrNotFound) {
		return
	}
	if err != nil {
		report.fail(issue.Number, "resolve_request", err)
		return
	}

	writes := []struct {
		step  string
		value string
		write func(context.Context, *model.RequestRecord, string) (bool, error)
	}{
		{"sync_status", canonical.Status, s.sync.Status},
		{"sync_priority", canonical.Priority, s.sync.Priority},
		{"sync_category", canonical.Category, s.sync.Category},
	}
	for _, w := range writes {
		if w.value == "" {
			continue
		}
		changed, err := w.write(ctx, request, w.value)
		if err != nil {
			report.fail(issue.Number, w.step, err)
			continue
		}
		if changed {
			report.Corrections++
			s.logger.InfoContext(ctx, "corrected record", "issue_number", issue.Number, "step", w.step, "value", w.value)
		}
	}
}

func (s *sweeperService) clearCards(ctx context.Context, issue model.TrackedIssue, report *SweepReport) {
	if !issue.IsClosed() || issue.ClosedAt == nil || len(issue.Cards) == 0 {
		return
	}
	if s.cfg.Now().Sub(*issue.ClosedAt) <= s.cfg.CardRetention {
		return
	}

	for _, card := range issue.Cards {
		err := s.tracker.DeleteProjectCard(ctx, card.ID)
		switch {
		case errors.Is(err, issue_tracker.ErrNotFound):
		case err != nil:
			report.fail(issue.Number, "delete_card", err)
		default:
			report.CardsDeleted++
		}
	}
}
