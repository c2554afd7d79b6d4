package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisQueue struct {
	client *redis.Client
	due    string // sorted set: task id scored by NotBefore unix millis
	tasks  string // hash: task id -> JSON task
	logger *slog.Logger
}

// NewRedisQueue stores tasks under "{prefix}:due" and "{prefix}:tasks".
func NewRedisQueue(client *redis.Client, prefix string, logger *slog.Logger) Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisQueue{
		client: client,
		due:    prefix + ":due",
		tasks:  prefix + ":tasks",
		logger: logger,
	}
}

func (q *redisQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.tasks, task.ID, body)
	pipe.ZAdd(ctx, q.due, redis.Z{Score: float64(task.NotBefore.UnixMilli()), Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	q.logger.InfoContext(ctx, "enqueued task",
		"task_id", task.ID,
		"action", task.Action,
		"issue_number", task.IssueNumber,
		"not_before", task.NotBefore)
	return nil
}

// claimScript pops up to ARGV[2] members scored at or below ARGV[1] together with their
// bodies. It runs atomically, so an Enqueue of the same id lands either before the claim
// (and is claimed) or after it (and stays queued with its body). A member without a body
// comes back with an empty string.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
local out = {}
for _, id in ipairs(ids) do
  local body = redis.call('HGET', KEYS[2], id)
  redis.call('ZREM', KEYS[1], id)
  redis.call('HDEL', KEYS[2], id)
  table.insert(out, id)
  table.insert(out, body or '')
end
return out
`)

func (q *redisQueue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 1
	}

	pairs, err := claimScript.Run(ctx, q.client, []string{q.due, q.tasks},
		strconv.FormatInt(now.UnixMilli(), 10), limit).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("claiming due tasks: %w", err)
	}

	var claimed []Task
	for i := 0; i+1 < len(pairs); i += 2 {
		id, body := pairs[i], pairs[i+1]
		if body == "" {
			q.logger.WarnContext(ctx, "claimed task has no body, dropping", "task_id", id)
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(body), &task); err != nil {
			q.logger.ErrorContext(ctx, "failed to parse task, dropping", "task_id", id, "error", err)
			continue
		}
		claimed = append(claimed, task)
	}

	if len(claimed) > 0 {
		q.logger.DebugContext(ctx, "claimed due tasks", "count", len(claimed))
	}
	return claimed, nil
}

func (q *redisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, q.due).Result()
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return int(n), nil
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}
