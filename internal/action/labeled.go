package action

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"basegraph.app/studiobot/internal/label"
	"basegraph.app/studiobot/internal/model"
)

// labeled routes the applied label by its taxonomy description.
type labeled struct{ base }

func (a *labeled) Reconcile(ctx context.Context, event model.WebhookEvent) *Outcome {
	out := a.start(event)
	defer a.finish(out)

	if event.Label == nil {
		out.Skipped(stepClassify, "event carries no label")
		return out
	}
	applied := *event.Label
	number := event.Issue.Number

	var (
		request *model.RequestRecord
		issue   *model.TrackedIssue
		project *model.Project
		g       errgroup.Group
	)
	g.Go(func() error {
		r, err := a.lookupRequest(ctx, number)
		recordStep(out, stepResolveRequest, err)
		request = r
		return nil
	})
	g.Go(func() error {
		i, err := a.svc.Tracker.FindIssue(ctx, number)
		recordStep(out, stepFindIssue, err)
		issue = i
		return nil
	})
	if label.AddsToProject(applied) {
		g.Go(func() error {
			p, err := a.svc.Tracker.FindProject(ctx, label.ProjectName(applied))
			recordStep(out, stepFindProject, err)
			project = p
			return nil
		})
	}
	_ = g.Wait()

	matching := []model.Label{applied}
	if issue != nil {
		if named := issue.LabelsNamed(applied.Name); len(named) > 0 {
			matching = named
		}
	}

	var lg errgroup.Group
	for _, l := range matching {
		lg.Go(func() error {
			a.apply(ctx, out, l, request, issue, project)
			return nil
		})
	}
	_ = lg.Wait()

	a.expedite(ctx, out, event.Issue, request, issue)
	a.closeIfCompleted(ctx, out, event.Issue, applied, issue)
	return out
}

func (a *labeled) apply(ctx context.Context, out *Outcome, l model.Label, request *model.RequestRecord, issue *model.TrackedIssue, project *model.Project) {
	if label.AddsToProject(l) {
		a.addToProject(ctx, out, issue, project)
	}

	switch label.Classify(l) {
	case label.CategoryStatus:
		var g errgroup.Group
		g.Go(func() error {
			a.syncRecord(ctx, out, stepSyncStatus, request, func() (bool, error) {
				return a.records.Status(ctx, request, l.Name)
			})
			return nil
		})
		g.Go(func() error {
			a.moveCards(ctx, out, issue, l.Name)
			return nil
		})
		_ = g.Wait()
	case label.CategoryPriority:
		a.syncRecord(ctx, out, stepSyncPriority, request, func() (bool, error) {
			return a.records.Priority(ctx, request, l.Name)
		})
	case label.CategoryCategory:
		a.syncRecord(ctx, out, stepSyncCategory, request, func() (bool, error) {
			return a.records.Category(ctx, request, l.Name)
		})
	case label.CategoryDepartment, label.CategoryProject:
	case label.CategoryUnclassified:
		if !label.AddsToProject(l) {
			out.Skipped(stepClassify, fmt.Sprintf("label %q has no taxonomy description", l.Name))
		}
	}
}

func (a *labeled) syncRecord(ctx context.Context, out *Outcome, step string, request *model.RequestRecord, write func() (bool, error)) {
	if request == nil {
		out.Skipped(step, "no request record")
		return
	}
	changed, err := write()
	switch {
	case err != nil:
		out.Failed(step, err)
	case !changed:
		out.Skipped(step, "record already up to date")
	default:
		out.OK(step)
	}
}

func (a *labeled) addToProject(ctx context.Context, out *Outcome, issue *model.TrackedIssue, project *model.Project) {
	switch {
	case issue == nil:
		out.Skipped(stepAddCard, "issue not resolved")
		return
	case project == nil || len(project.Columns) == 0:
		out.Skipped(stepAddCard, "no matching project column")
		return
	}

	for _, card := range issue.Cards {
		if strings.EqualFold(card.ProjectName, project.Name) {
			out.Skipped(stepAddCard, "issue already on "+project.Name)
			return
		}
	}

	_, err := a.svc.Tracker.AddProjectCard(ctx, issue.ContentID, project.Columns[0].ID)
	recordStep(out, stepAddCard, err)
}

// moveCards moves each of the issue's cards to the column named after status, in whichever
// project holds the card.
func (a *labeled) moveCards(ctx context.Context, out *Outcome, issue *model.TrackedIssue, status string) {
	if issue == nil {
		out.Skipped(stepMoveCard, "issue not resolved")
		return
	}
	if len(issue.Cards) == 0 {
		out.Skipped(stepMoveCard, "issue has no project cards")
		return
	}

	for _, card := range issue.Cards {
		step := stepMoveCard + ":" + card.ID
		project, err := a.svc.Tracker.FindProject(ctx, card.ProjectName)
		if err != nil {
			out.Failed(step, err)
			continue
		}

		target, ok := targetColumn(card, project.Columns, status)
		if !ok {
			out.Skipped(step, fmt.Sprintf("no %q column in %s", status, card.ProjectName))
			continue
		}
		recordStep(out, step, a.svc.Tracker.MoveProjectCard(ctx, card.ID, target.ID))
	}
}

// targetColumn picks the column named status, ignoring the card's current column.
func targetColumn(card model.ProjectCard, columns []model.ProjectColumn, status string) (model.ProjectColumn, bool) {
	for _, col := range columns {
		if col.ID == card.Column.ID || strings.EqualFold(col.Name, card.Column.Name) {
			continue
		}
		if strings.EqualFold(col.Name, status) {
			return col, true
		}
	}
	return model.ProjectColumn{}, false
}

// expedite prepends the expedite label when the record asks for it.
func (a *labeled) expedite(ctx context.Context, out *Outcome, eventIssue model.Issue, request *model.RequestRecord, issue *model.TrackedIssue) {
	if request == nil || !request.Expedite {
		return
	}

	current := eventIssue.Labels
	if issue != nil {
		current = issue.Labels
	}
	for _, l := range current {
		if strings.EqualFold(l.Name, label.Expedite) {
			out.Skipped(stepExpedite, "already expedited")
			return
		}
	}

	names := make([]string, 0, len(current)+1)
	names = append(names, label.Expedite)
	for _, l := range current {
		names = append(names, l.Name)
	}
	recordStep(out, stepExpedite, a.svc.Tracker.EditIssue(ctx, eventIssue.Number, issueLabels(names)))
}

func (a *labeled) closeIfCompleted(ctx context.Context, out *Outcome, eventIssue model.Issue, applied model.Label, issue *model.TrackedIssue) {
	if !label.IsCompleted(applied.Name) {
		return
	}
	if eventIssue.IsClosed() || (issue != nil && issue.IsClosed()) {
		out.Skipped(stepCloseComplete, "issue already closed")
		return
	}
	recordStep(out, stepCloseComplete, a.svc.Tracker.EditIssue(ctx, eventIssue.Number, issueState(model.IssueStateClosed)))
}
