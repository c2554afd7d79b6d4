package worker

import (
	"context"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/model"
)

// Reconciler abstracts the action registry for testability.
type Reconciler interface {
	Reconcile(ctx context.Context, event model.WebhookEvent) (*action.Outcome, error)
}
