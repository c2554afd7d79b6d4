package action_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/model"
)

var _ = Describe("closed", func() {
	var (
		h   *harness
		ctx context.Context
		ev  model.WebhookEvent
	)

	BeforeEach(func() {
		h = newHarness()
		ctx = context.Background()
		ev = event(model.ActionClosed, model.Issue{Number: 5, State: model.IssueStateClosed})
	})

	It("is a graceful no-op when the issue never got a group", func() {
		out, err := h.registry().Reconcile(ctx, ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Succeeded()).To(BeTrue())
		Expect(h.tracker.comments).To(BeEmpty())
		Expect(h.messaging.archived).To(BeEmpty())
	})

	Context("with a group", func() {
		BeforeEach(func() {
			h.messaging.groups["studio-5"] = &model.MessagingGroup{ID: "G5", Name: "studio-5"}
			h.messaging.history["G5"] = []model.Message{
				{UserID: "U1", Text: "hello", Timestamp: "1"},
				{UserID: "U2", Text: "hi there", Timestamp: "2"},
				{UserID: "U1", Text: "done", Timestamp: "3"},
			}
			h.messaging.names["U1"] = "ann"
			h.messaging.names["U2"] = "bob"
		})

		It("posts the transcript in order and archives the group", func() {
			out, err := h.registry().Reconcile(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Succeeded()).To(BeTrue(), "%v", out.FailedSteps())

			Expect(h.tracker.comments[5]).To(ConsistOf(
				"# [studio-5 history](https://slack.com/app_redirect?channel=G5&team=T1) \r\n" +
					"**ann**: \r\n hello\r\n" +
					"**bob**: \r\n hi there\r\n" +
					"**ann**: \r\n done\r\n",
			))
			Expect(h.messaging.archived).To(ConsistOf("G5"))
		})

		It("leaves the group open when the transcript cannot be posted", func() {
			h.tracker.commentFn = func(ctx context.Context, number int, body string) error {
				return errors.New("boom")
			}

			out, err := h.registry().Reconcile(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "post_transcript")).To(Equal(action.StepFailed))
			Expect(stepStatus(out, "archive_group")).To(Equal(action.StepSkipped))
			Expect(h.messaging.archived).To(BeEmpty())
		})

		It("leaves the group open when history cannot be read", func() {
			h.messaging.historyFn = func(ctx context.Context, groupID string) ([]model.Message, error) {
				return nil, errors.New("rate limited")
			}

			out, err := h.registry().Reconcile(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "history")).To(Equal(action.StepFailed))
			Expect(h.tracker.comments).To(BeEmpty())
			Expect(h.messaging.archived).To(BeEmpty())
		})

		It("uses the raw id for authors it cannot resolve", func() {
			h.messaging.history["G5"] = []model.Message{{UserID: "U404", Text: "?"}}

			_, err := h.registry().Reconcile(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.comments[5][0]).To(ContainSubstring("**U404**: \r\n ?"))
		})

		It("skips a group that is already archived", func() {
			h.messaging.groups["studio-5"].Archived = true

			out, err := h.registry().Reconcile(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "find_group")).To(Equal(action.StepSkipped))
			Expect(h.tracker.comments).To(BeEmpty())
		})
	})
})

var _ = Describe("Registry", func() {
	It("rejects unknown actions", func() {
		h := newHarness()
		ev := model.WebhookEvent{Action: model.ActionUnknown, RawAction: "edited"}

		out, err := h.registry().Reconcile(context.Background(), ev)
		Expect(err).To(MatchError(action.ErrUnhandledAction))
		Expect(out).To(BeNil())
	})
})
