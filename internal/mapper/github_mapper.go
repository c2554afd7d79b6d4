package mapper

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"

	"basegraph.app/studiobot/internal/model"
)

type GitHubEventMapper struct{}

func NewGitHubEventMapper() *GitHubEventMapper {
	return &GitHubEventMapper{}
}

func (m *GitHubEventMapper) Map(ctx context.Context, body []byte, headers map[string]string) (model.WebhookEvent, error) {
	eventType := headers[HeaderEvent]
	if eventType != "issues" {
		return model.WebhookEvent{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}

	parsed, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return model.WebhookEvent{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	payload, ok := parsed.(*github.IssuesEvent)
	if !ok || payload.Issue == nil {
		return model.WebhookEvent{}, fmt.Errorf("%w: no issue in payload", ErrMalformedPayload)
	}

	event := model.WebhookEvent{
		Action:     model.ParseAction(payload.GetAction()),
		RawAction:  payload.GetAction(),
		Issue:      mapIssue(payload.Issue),
		Assignee:   payload.GetAssignee().GetLogin(),
		Sender:     payload.GetSender().GetLogin(),
		DeliveryID: headers[HeaderDelivery],
		Signature:  headers[HeaderSignature],
		RawBody:    body,
	}
	if payload.Label != nil {
		label := mapLabel(payload.Label)
		event.Label = &label
	}

	return event, nil
}

func mapIssue(issue *github.Issue) model.Issue {
	out := model.Issue{
		Number:   issue.GetNumber(),
		Title:    issue.GetTitle(),
		Body:     issue.GetBody(),
		State:    model.IssueState(issue.GetState()),
		Assignee: issue.GetAssignee().GetLogin(),
		Labels:   make([]model.Label, 0, len(issue.Labels)),
	}
	for _, l := range issue.Labels {
		out.Labels = append(out.Labels, mapLabel(l))
	}
	return out
}

func mapLabel(l *github.Label) model.Label {
	return model.Label{Name: l.GetName(), Description: l.GetDescription()}
}
