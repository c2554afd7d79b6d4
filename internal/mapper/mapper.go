package mapper

import (
	"context"
	"errors"

	"basegraph.app/studiobot/internal/model"
)

const (
	HeaderEvent     = "X-GitHub-Event"
	HeaderDelivery  = "X-GitHub-Delivery"
	HeaderSignature = "X-Hub-Signature"
)

var (
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrMalformedPayload = errors.New("malformed payload")
)

// EventMapper turns a raw webhook delivery into a WebhookEvent.
type EventMapper interface {
	Map(ctx context.Context, body []byte, headers map[string]string) (model.WebhookEvent, error)
}
