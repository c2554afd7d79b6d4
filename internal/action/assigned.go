package action

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/messaging"
	"basegraph.app/studiobot/internal/service/record_store"
)

// assigned hands the request to the assignee's staff record.
type assigned struct{ base }

func (a *assigned) Reconcile(ctx context.Context, event model.WebhookEvent) *Outcome {
	out := a.start(event)
	defer a.finish(out)
	number := event.Issue.Number

	login := event.AssigneeLogin()
	if login == "" {
		out.Skipped(stepResolveStaff, "event has no assignee")
		return out
	}

	var (
		request *model.RequestRecord
		group   *model.MessagingGroup
		g       errgroup.Group
	)
	g.Go(func() error {
		r, err := a.lookupRequest(ctx, number)
		recordStep(out, stepResolveRequest, err)
		request = r
		return nil
	})
	g.Go(func() error {
		grp, err := a.svc.Messaging.FindGroup(ctx, a.groupName(number))
		switch {
		case errors.Is(err, messaging.ErrNotFound):
			out.Skipped(stepFindGroup, "no group for issue")
		case err != nil:
			out.Failed(stepFindGroup, err)
		default:
			out.OK(stepFindGroup)
			group = grp
		}
		return nil
	})
	_ = g.Wait()

	staff, err := a.svc.Records.FindStaffByGitHub(ctx, "@"+login)
	if errors.Is(err, record_store.ErrNotFound) {
		out.Skipped(stepResolveStaff, fmt.Sprintf("no staff record for @%s", login))
		return out
	}
	if err != nil {
		out.Failed(stepResolveStaff, err)
		return out
	}
	out.OK(stepResolveStaff)

	var ownerSlackID string
	var sg errgroup.Group
	sg.Go(func() error {
		a.setOwner(ctx, out, request, staff)
		return nil
	})
	sg.Go(func() error {
		ownerSlackID = a.inviteOwner(ctx, out, group, staff)
		return nil
	})
	_ = sg.Wait()

	a.notify(ctx, out, group, request, ownerSlackID)
	return out
}

func (a *assigned) setOwner(ctx context.Context, out *Outcome, request *model.RequestRecord, staff *model.StaffRecord) {
	if request == nil {
		out.Skipped(stepSetOwner, "no request record")
		return
	}
	changed, err := a.records.Owner(ctx, request, a.cfg.OwnerField, staff.ID)
	switch {
	case err != nil:
		out.Failed(stepSetOwner, err)
	case !changed:
		out.Skipped(stepSetOwner, "owner unchanged")
	default:
		out.OK(stepSetOwner)
	}
}

// inviteOwner returns the staff member's messaging ID, even when there is no group to join.
func (a *assigned) inviteOwner(ctx context.Context, out *Outcome, group *model.MessagingGroup, staff *model.StaffRecord) string {
	userID, err := a.svc.Messaging.UserIDByEmail(ctx, staff.Email)
	if err != nil {
		out.Failed(stepInviteOwner, err)
		return ""
	}
	if group == nil {
		out.Skipped(stepInviteOwner, "no group for issue")
		return userID
	}
	recordStep(out, stepInviteOwner, a.svc.Messaging.Invite(ctx, group.ID, userID))
	return userID
}

func (a *assigned) notify(ctx context.Context, out *Outcome, group *model.MessagingGroup, request *model.RequestRecord, ownerID string) {
	if group == nil {
		out.Skipped(stepNotify, "no group for issue")
		return
	}
	if ownerID == "" {
		out.Skipped(stepNotify, "owner has no messaging identity")
		return
	}

	text := fmt.Sprintf("Your studio request will be serviced by <@%s>", ownerID)
	if request != nil && request.Requester() != "" {
		if requesterID, err := a.svc.Messaging.UserIDByEmail(ctx, request.Requester()); err == nil {
			text = fmt.Sprintf("<@%s>, your studio request will be serviced by <@%s>", requesterID, ownerID)
		}
	}
	recordStep(out, stepNotify, a.svc.Messaging.PostMessage(ctx, group.ID, text))
}
