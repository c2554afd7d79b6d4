package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/messaging"
)

// closed posts the group transcript on the issue and archives the group.
type closed struct{ base }

func (a *closed) Reconcile(ctx context.Context, event model.WebhookEvent) *Outcome {
	out := a.start(event)
	defer a.finish(out)
	number := event.Issue.Number

	group, err := a.svc.Messaging.FindGroup(ctx, a.groupName(number))
	if errors.Is(err, messaging.ErrNotFound) {
		out.Skipped(stepFindGroup, "no group for issue")
		return out
	}
	if err != nil {
		out.Failed(stepFindGroup, err)
		return out
	}
	if group.Archived {
		out.Skipped(stepFindGroup, "group already archived")
		return out
	}
	out.OK(stepFindGroup)

	var (
		teamID  string
		history []model.Message
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		teamID, err = a.svc.Messaging.TeamID(ctx)
		if err != nil {
			out.Failed(stepTeamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = a.svc.Messaging.History(ctx, group.ID)
		recordStep(out, stepHistory, err)
		return err
	})
	if err := g.Wait(); err != nil {
		// Archive only once the transcript is on the issue.
		out.Skipped(stepArchive, "transcript not captured")
		return out
	}

	names := a.resolveNames(ctx, history)
	comment := transcript(group, teamID, history, names)
	if err := a.svc.Tracker.CreateComment(ctx, number, comment); err != nil {
		out.Failed(stepTranscript, err)
		out.Skipped(stepArchive, "transcript not posted")
		return out
	}
	out.OK(stepTranscript)

	recordStep(out, stepArchive, a.svc.Messaging.ArchiveGroup(ctx, group.ID))
	return out
}

// resolveNames looks up each distinct author once. Unresolved authors keep their raw ID.
func (a *closed) resolveNames(ctx context.Context, history []model.Message) map[string]string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range history {
		if m.UserID != "" && !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}

	resolved := make([]string, len(ids))
	var g errgroup.Group
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			name, err := a.svc.Messaging.UserName(ctx, id)
			if err != nil || name == "" {
				name = id
			}
			resolved[i] = name
			return nil
		})
	}
	_ = g.Wait()

	names := make(map[string]string, len(ids))
	for i, id := range ids {
		names[id] = resolved[i]
	}
	return names
}

func transcript(group *model.MessagingGroup, teamID string, history []model.Message, names map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# [%s history](%s) \r\n", group.Name, groupURL(group.ID, teamID))
	for _, m := range history {
		name := names[m.UserID]
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(&b, "**%s**: \r\n %s\r\n", name, m.Text)
	}
	return b.String()
}
