package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryQueue struct {
	mu    sync.Mutex
	tasks map[string]Task
}

// NewMemoryQueue keeps tasks in process. Pending tasks are lost on restart.
func NewMemoryQueue() Queue {
	return &memoryQueue{tasks: make(map[string]Task)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[task.ID] = task
	return nil
}

func (q *memoryQueue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 1
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Task
	for _, t := range q.tasks {
		if t.Due(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NotBefore.Equal(due[j].NotBefore) {
			return due[i].ID < due[j].ID
		}
		return due[i].NotBefore.Before(due[j].NotBefore)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	for _, t := range due {
		delete(q.tasks, t.ID)
	}
	return due, nil
}

func (q *memoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks), nil
}

func (q *memoryQueue) Close() error {
	return nil
}
