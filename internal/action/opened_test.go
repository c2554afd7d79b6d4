package action_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/model"
)

var _ = Describe("opened", func() {
	var (
		h     *harness
		ctx   context.Context
		issue model.Issue
	)

	BeforeEach(func() {
		h = newHarness()
		ctx = context.Background()
		issue = model.Issue{Number: 42, Title: "Poster", Body: "Please design a poster", State: model.IssueStateOpen, Assignee: "octo"}

		h.records.requests[42] = &model.RequestRecord{
			ID:             "rec42",
			RequestID:      "REQ-42",
			Title:          "Poster",
			RequestedEmail: []string{"a@x.com"},
			DepartmentID:   []string{"D7"},
			DepartmentName: []string{"marketing"},
		}
		h.messaging.emails["a@x.com"] = "U_REQ"
		h.messaging.emails["boss@example.org"] = "U_BOSS"
		h.messaging.handles["@octo"] = "U_OCTO"
	})

	It("prepends the record header to the body and opens the group", func() {
		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Succeeded()).To(BeTrue(), "%v", out.FailedSteps())

		edits := h.tracker.Edits()
		Expect(edits).To(HaveLen(1))
		body := *edits[0].Edit.Body
		Expect(body).To(HavePrefix("#### [Airtable Record: REQ-42](https://airtable.com/tblX/viwY/rec42)"))
		Expect(body).To(ContainSubstring("#### [Slack: studio-42](https://slack.com/app_redirect?channel=G1&team=T1)"))
		Expect(body).To(ContainSubstring("Please design a poster"))
		Expect(strings.Index(body, "REQ-42")).To(BeNumerically("<", strings.Index(body, "Please design a poster")))

		group, err := h.messaging.FindGroup(ctx, "studio-42")
		Expect(err).NotTo(HaveOccurred())
		Expect(h.messaging.Invited(group.ID)).To(ConsistOf("U_REQ", "U_BOSS", "U_OCTO"))
		Expect(group.Purpose).To(Equal("Discuss ticket # 42. Request ID: REQ-42"))
		Expect(group.Topic).To(Equal("Github Issue: https://github.com/acme/studio/issues/42"))
		Expect(stepStatus(out, "provision_folder")).To(Equal(action.StepSkipped))
	})

	It("does not stack a second header when replayed", func() {
		_, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		issue.Body = *h.tracker.Edits()[0].Edit.Body

		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.tracker.Edits()).To(HaveLen(1))
		Expect(stepStatus(out, "link_issue")).To(Equal(action.StepSkipped))
		Expect(stepStatus(out, "set_topic")).To(Equal(action.StepSkipped))
		Expect(h.messaging.groups).To(HaveLen(1))
	})

	It("reuses an archived group after unarchiving it", func() {
		h.messaging.groups["studio-42"] = &model.MessagingGroup{ID: "G_OLD", Name: "studio-42", Archived: true}

		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(stepStatus(out, "unarchive_group")).To(Equal(action.StepOK))
		Expect(h.messaging.groups["studio-42"].Archived).To(BeFalse())
		Expect(h.messaging.Invited("G_OLD")).To(ContainElement("U_REQ"))
	})

	It("provisions department and request folders when storage is enabled", func() {
		h.withStorage()

		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(stepStatus(out, "provision_folder")).To(Equal(action.StepOK))

		Expect(h.storage.folders).To(HaveKey("/work"))
		work := h.storage.folders["/work"]
		Expect(h.storage.folders).To(HaveKey(work.ID + "/D7 (Marketing)"))
		dept := h.storage.folders[work.ID+"/D7 (Marketing)"]
		Expect(h.storage.folders).To(HaveKey(dept.ID + "/REQ-42 (Poster)"))
		folder := h.storage.folders[dept.ID+"/REQ-42 (Poster)"]

		body := *h.tracker.Edits()[0].Edit.Body
		Expect(body).To(ContainSubstring("#### [Google Drive: REQ-42 (Poster)](https://drive.google.com/drive/folders/" + folder.ID + ")"))
		Expect(h.messaging.groups["studio-42"].Topic).To(ContainSubstring("GDrive Folder: https://drive.google.com/drive/folders/" + folder.ID))
	})

	It("retries the record lookup and gives up without side effects", func() {
		delete(h.records.requests, 42)

		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.records.lookups).To(Equal(3))
		Expect(stepStatus(out, "resolve_request")).To(Equal(action.StepFailed))
		Expect(h.messaging.groups).To(BeEmpty())
		Expect(h.tracker.Edits()).To(BeEmpty())
	})

	It("keeps going when a manager cannot be resolved", func() {
		h.cfg.Managers = append(h.cfg.Managers, "ghost@example.org")

		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(stepStatus(out, "invite_manager:ghost@example.org")).To(Equal(action.StepFailed))
		Expect(stepStatus(out, "invite_requester")).To(Equal(action.StepOK))
		Expect(h.tracker.Edits()).To(HaveLen(1))
	})

	It("stamps start and finish times", func() {
		out, err := h.registry().Reconcile(ctx, event(model.ActionOpened, issue))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Action).To(Equal(model.ActionOpened))
		Expect(out.IssueNumber).To(Equal(42))
		Expect(out.DeliveryID).To(Equal("d-1"))
		Expect(out.StartedAt).To(Equal(fixedNow))
		Expect(out.FinishedAt).To(Equal(fixedNow))
	})
})
