package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"basegraph.app/studiobot/common"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/messaging"
)

// opened sets up the request's workspace: group, members, folders and the issue header.
type opened struct{ base }

func (a *opened) Reconcile(ctx context.Context, event model.WebhookEvent) *Outcome {
	out := a.start(event)
	defer a.finish(out)
	number := event.Issue.Number

	request, err := a.lookupRequest(ctx, number)
	if err != nil {
		out.Failed(stepResolveRequest, err)
		return out
	}
	out.OK(stepResolveRequest)

	group, err := a.ensureGroup(ctx, out, a.groupName(number))
	if err != nil {
		out.Failed(stepEnsureGroup, err)
	} else {
		out.OK(stepEnsureGroup)
		a.inviteMembers(ctx, out, group.ID, event.AssigneeLogin())
		a.inviteRequester(ctx, out, group.ID, request)
	}

	folder := a.provisionFolders(ctx, out, request)

	var teamID string
	if group != nil {
		a.describeGroup(ctx, out, group, number, request, folder)
		if teamID, err = a.svc.Messaging.TeamID(ctx); err != nil {
			out.Failed(stepTeamID, err)
		}
	}

	a.linkIssue(ctx, out, event.Issue, request, folder, group, teamID)
	return out
}

func (a *opened) ensureGroup(ctx context.Context, out *Outcome, name string) (*model.MessagingGroup, error) {
	group, err := a.svc.Messaging.FindGroup(ctx, name)
	if errors.Is(err, messaging.ErrNotFound) {
		return a.svc.Messaging.CreateGroup(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	if group.Archived {
		if err := a.svc.Messaging.UnarchiveGroup(ctx, group.ID); err != nil {
			out.Failed(stepUnarchiveGroup, err)
		} else {
			out.OK(stepUnarchiveGroup)
			group.Archived = false
		}
	}
	return group, nil
}

// inviteMembers invites the assignee and every manager concurrently.
func (a *opened) inviteMembers(ctx context.Context, out *Outcome, groupID, assignee string) {
	var g errgroup.Group

	if assignee == "" {
		out.Skipped(stepInviteAssignee, "issue has no assignee")
	} else {
		g.Go(func() error {
			userID, err := a.svc.Messaging.UserIDByHandle(ctx, "@"+assignee)
			if err == nil {
				err = a.svc.Messaging.Invite(ctx, groupID, userID)
			}
			recordStep(out, stepInviteAssignee, err)
			return nil
		})
	}

	for _, manager := range a.cfg.Managers {
		g.Go(func() error {
			userID, err := a.svc.Messaging.UserIDByEmail(ctx, manager)
			if err == nil {
				err = a.svc.Messaging.Invite(ctx, groupID, userID)
			}
			recordStep(out, stepInviteManager+":"+manager, err)
			return nil
		})
	}

	_ = g.Wait()
}

func (a *opened) inviteRequester(ctx context.Context, out *Outcome, groupID string, rec *model.RequestRecord) {
	email := rec.Requester()
	if email == "" {
		out.Skipped(stepInviteRequester, "request has no requester email")
		return
	}

	userID, err := a.svc.Messaging.UserIDByEmail(ctx, email)
	if err == nil {
		err = a.svc.Messaging.Invite(ctx, groupID, userID)
	}
	recordStep(out, stepInviteRequester, err)
}

// provisionFolders creates "{work}/{dept} ({Dept})/{request} ({title})".
func (a *opened) provisionFolders(ctx context.Context, out *Outcome, rec *model.RequestRecord) *model.Folder {
	if a.svc.Storage == nil {
		out.Skipped(stepProvisionFolder, "file storage disabled")
		return nil
	}
	depID, depName := rec.Department()
	if depID == "" {
		out.Skipped(stepProvisionFolder, "request has no department")
		return nil
	}

	work, err := a.svc.Storage.FindOrCreateFolder(ctx, a.cfg.DriveWorkDir, "")
	if err != nil {
		out.Failed(stepProvisionFolder, fmt.Errorf("work folder: %w", err))
		return nil
	}
	dept, err := a.svc.Storage.FindOrCreateFolder(ctx, fmt.Sprintf("%s (%s)", depID, common.Capitalize(depName)), work.ID)
	if err != nil {
		out.Failed(stepProvisionFolder, fmt.Errorf("department folder: %w", err))
		return nil
	}
	folder, err := a.svc.Storage.FindOrCreateFolder(ctx, fmt.Sprintf("%s (%s)", rec.RequestID, rec.Title), dept.ID)
	if err != nil {
		out.Failed(stepProvisionFolder, fmt.Errorf("request folder: %w", err))
		return nil
	}

	out.OK(stepProvisionFolder)
	return folder
}

func (a *opened) describeGroup(ctx context.Context, out *Outcome, group *model.MessagingGroup, number int, rec *model.RequestRecord, folder *model.Folder) {
	purpose := fmt.Sprintf("Discuss ticket # %d. Request ID: %s", number, rec.RequestID)
	if group.Purpose == purpose {
		out.Skipped(stepSetPurpose, "purpose unchanged")
	} else {
		recordStep(out, stepSetPurpose, a.svc.Messaging.SetPurpose(ctx, group.ID, purpose))
	}

	topic := "Github Issue: " + a.issueURL(number)
	if folder != nil {
		topic += " | GDrive Folder: " + a.folderURL(folder.ID)
	}
	if group.Topic == topic {
		out.Skipped(stepSetTopic, "topic unchanged")
	} else {
		recordStep(out, stepSetTopic, a.svc.Messaging.SetTopic(ctx, group.ID, topic))
	}
}

// linkIssue prepends the record, folder and group links to the issue body once.
func (a *opened) linkIssue(ctx context.Context, out *Outcome, issue model.Issue, rec *model.RequestRecord, folder *model.Folder, group *model.MessagingGroup, teamID string) {
	recordLink := a.recordURL(rec.ID)
	if strings.Contains(issue.Body, recordLink) {
		out.Skipped(stepLinkIssue, "issue body already links the record")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#### [Airtable Record: %s](%s) \r\n ", rec.RequestID, recordLink)
	if folder != nil {
		fmt.Fprintf(&b, "#### [Google Drive: %s](%s) \r\n ", folder.Name, a.folderURL(folder.ID))
	}
	if group != nil {
		fmt.Fprintf(&b, "#### [Slack: %s](%s) \r\n ", group.Name, groupURL(group.ID, teamID))
	}
	b.WriteString(issue.Body)
	b.WriteString(" \r\n ")

	body := b.String()
	if err := a.svc.Tracker.EditIssue(ctx, issue.Number, issueBody(body)); err != nil {
		out.Failed(stepLinkIssue, err)
		return
	}
	out.OK(stepLinkIssue)
	slog.DebugContext(ctx, "linked issue body", "issue_number", issue.Number, "record_id", rec.ID)
}

func recordStep(out *Outcome, step string, err error) {
	if err != nil {
		out.Failed(step, err)
		return
	}
	out.OK(step)
}
