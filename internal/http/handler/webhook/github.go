package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/internal/http/signature"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/service"
)

const (
	issuesEvent = "issues"
	maxBodySize = 25 << 20
)

type GitHubWebhookHandler struct {
	secret   []byte
	mapper   mapper.EventMapper
	dispatch service.DispatchService
}

func NewGitHubWebhookHandler(secret string, mapper mapper.EventMapper, dispatch service.DispatchService) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{
		secret:   []byte(secret),
		mapper:   mapper,
		dispatch: dispatch,
	}
}

// HandleEvent validates an issues delivery and schedules its action. The response only
// acknowledges scheduling; the action runs later in the worker.
func (h *GitHubWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	if ct := c.ContentType(); ct != "application/json" {
		c.String(http.StatusInternalServerError,
			"Unsupported content type '%s'. Please reconfigure the webhook to send application/json", ct)
		return
	}

	sig := c.GetHeader(mapper.HeaderSignature)
	if sig == "" {
		c.String(http.StatusUnauthorized, "No X-Hub-Signature found on request")
		return
	}

	event := c.GetHeader(mapper.HeaderEvent)
	if event == "" {
		c.String(http.StatusUnprocessableEntity, "No X-Github-Event found on request")
		return
	}
	if event != issuesEvent {
		slog.DebugContext(ctx, "ignoring non issues event", "github_event", event)
		c.String(http.StatusOK, "No Github Issues event found on request")
		return
	}

	delivery := c.GetHeader(mapper.HeaderDelivery)
	if delivery == "" {
		c.String(http.StatusUnauthorized, "No X-Github-Delivery found on request")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		c.String(http.StatusUnprocessableEntity, "Failed to read request body: %s", err)
		return
	}

	if err := signature.Validate(sig, body, h.secret); err != nil {
		slog.WarnContext(ctx, "webhook signature rejected", "error", err)
		c.String(http.StatusUnauthorized, "X-Hub-Signature incorrect. Github webhook token doesn't match")
		return
	}

	ev, err := h.mapper.Map(ctx, body, map[string]string{
		mapper.HeaderEvent:     event,
		mapper.HeaderDelivery:  delivery,
		mapper.HeaderSignature: sig,
	})
	if err != nil {
		if errors.Is(err, mapper.ErrMalformedPayload) {
			c.String(http.StatusUnprocessableEntity, "Invalid issues payload: %s", err)
			return
		}
		c.String(http.StatusInternalServerError, "Error occurred: %s", err)
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		IssueNumber: logger.Ptr(ev.Issue.Number),
		Action:      logger.Ptr(ev.RawAction),
	})
	c.Request = c.Request.WithContext(ctx)

	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	result, err := h.dispatch.Dispatch(ctx, service.DispatchParams{Event: ev, TraceID: traceID})
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule action", "error", err)
		c.String(http.StatusInternalServerError, "Error occurred: %s", err)
		return
	}

	if !result.Scheduled {
		c.String(http.StatusOK, "No handlers for action: '%s'. Skipping ...", ev.RawAction)
		return
	}

	c.String(http.StatusOK, "Scheduled '%s' job for issue: '%d'", ev.Action, ev.Issue.Number)
}
