package store

import (
	"context"
	"encoding/json"
	"fmt"

	"basegraph.app/studiobot/common/id"
	"basegraph.app/studiobot/core/db"
	"basegraph.app/studiobot/internal/service"
)

const insertSweepSQL = `
INSERT INTO sweep_runs (id, issues_scanned, corrections, cards_deleted, failures, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type sweepStore struct {
	q db.Querier
}

func newSweepStore(q db.Querier) SweepStore {
	return &sweepStore{q: q}
}

func (s *sweepStore) Save(ctx context.Context, report *service.SweepReport) (int64, error) {
	failures := report.Failures
	if failures == nil {
		failures = []service.SweepFailure{}
	}
	body, err := json.Marshal(failures)
	if err != nil {
		return 0, fmt.Errorf("marshal failures: %w", err)
	}

	runID := id.New()
	_, err = s.q.Exec(ctx, insertSweepSQL,
		runID,
		report.IssuesScanned,
		report.Corrections,
		report.CardsDeleted,
		body,
		report.StartedAt,
		report.FinishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sweep run: %w", err)
	}
	return runID, nil
}
