package store

import (
	"context"
	"encoding/json"
	"fmt"

	"basegraph.app/studiobot/common/id"
	"basegraph.app/studiobot/core/db"
	"basegraph.app/studiobot/internal/action"
)

const insertOutcomeSQL = `
INSERT INTO action_outcomes (id, action, issue_number, delivery_id, succeeded, steps, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const listOutcomesSQL = `
SELECT id, action, issue_number, delivery_id, succeeded, steps, started_at, finished_at
FROM action_outcomes
WHERE issue_number = $1
ORDER BY started_at DESC
LIMIT $2`

type outcomeStore struct {
	q db.Querier
}

func newOutcomeStore(q db.Querier) OutcomeStore {
	return &outcomeStore{q: q}
}

func (s *outcomeStore) Save(ctx context.Context, out *action.Outcome) (int64, error) {
	steps, err := json.Marshal(out.Steps())
	if err != nil {
		return 0, fmt.Errorf("marshal steps: %w", err)
	}

	outcomeID := id.New()
	_, err = s.q.Exec(ctx, insertOutcomeSQL,
		outcomeID,
		string(out.Action),
		out.IssueNumber,
		out.DeliveryID,
		out.Succeeded(),
		steps,
		out.StartedAt,
		out.FinishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting outcome: %w", err)
	}
	return outcomeID, nil
}

func (s *outcomeStore) ListByIssue(ctx context.Context, issueNumber int, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.q.Query(ctx, listOutcomesSQL, issueNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			rec   OutcomeRecord
			steps []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.IssueNumber, &rec.DeliveryID, &rec.Succeeded, &steps, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if err := json.Unmarshal(steps, &rec.Steps); err != nil {
			return nil, fmt.Errorf("decoding steps of outcome %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	return out, nil
}
