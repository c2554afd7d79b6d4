package action_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/issue_tracker"
)

var _ = Describe("labeled", func() {
	var (
		h       *harness
		ctx     context.Context
		issue   model.Issue
		tracked *model.TrackedIssue
		boards  map[string]*model.Project
	)

	statusLabel := func(name string) model.Label {
		return model.Label{Name: name, Description: "status"}
	}

	BeforeEach(func() {
		h = newHarness()
		ctx = context.Background()
		issue = model.Issue{Number: 7, State: model.IssueStateOpen}
		h.records.requests[7] = &model.RequestRecord{ID: "rec7", RequestID: "REQ-7", JobStatus: "incoming"}

		tracked = &model.TrackedIssue{ContentID: "I_7", Number: 7, State: model.IssueStateOpen}
		boards = map[string]*model.Project{
			"All Projects": {ID: "P_all", Name: "All Projects", Columns: []model.ProjectColumn{
				{ID: "COL_in", Name: "incoming"}, {ID: "COL_acc", Name: "accepted"},
			}},
			"Design": {ID: "P_design", Name: "Design", Columns: []model.ProjectColumn{
				{ID: "COL_d_in", Name: "Incoming"}, {ID: "COL_d_acc", Name: "Accepted"}, {ID: "COL_d_done", Name: "completed"},
			}},
		}
		h.tracker.findIssueFn = func(ctx context.Context, number int) (*model.TrackedIssue, error) {
			copied := *tracked
			return &copied, nil
		}
		h.tracker.findProjectFn = func(ctx context.Context, name string) (*model.Project, error) {
			if p, ok := boards[name]; ok {
				return p, nil
			}
			return nil, issue_tracker.ErrNotFound
		}
	})

	Describe("status labels", func() {
		It("writes status and delivery date once, however often it is replayed", func() {
			l := statusLabel("completed")
			tracked.Labels = []model.Label{l}

			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, l))
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "sync_status")).To(Equal(action.StepOK))

			out, err = h.registry().Reconcile(ctx, labeledEvent(issue, l))
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "sync_status")).To(Equal(action.StepSkipped))

			updates := h.records.Updates()
			Expect(updates).To(HaveLen(1))
			Expect(updates[0]).To(Equal(map[string]any{
				"jobStatus":     "completed",
				"dateDelivered": "2024-05-05",
			}))
		})

		It("stamps the start date on accepted", func() {
			l := statusLabel("accepted")

			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, l))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.records.Updates()).To(ConsistOf(map[string]any{
				"jobStatus": "accepted",
				"startDate": "2024-05-05",
			}))
		})

		It("moves cards to the column named after the status", func() {
			l := statusLabel("accepted")
			tracked.Labels = []model.Label{l}
			tracked.Cards = []model.ProjectCard{
				{ID: "CARD_1", ProjectName: "Design", Column: model.ProjectColumn{ID: "COL_d_in", Name: "Incoming"}},
			}

			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, l))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.moved).To(ConsistOf("CARD_1->COL_d_acc"))
		})

		It("leaves a card already in the status column alone", func() {
			l := statusLabel("incoming")
			tracked.Cards = []model.ProjectCard{
				{ID: "CARD_1", ProjectName: "Design", Column: model.ProjectColumn{ID: "COL_d_in", Name: "Incoming"}},
				{ID: "CARD_2", ProjectName: "All Projects", Column: model.ProjectColumn{ID: "COL_in", Name: "incoming"}},
			}

			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, l))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.moved).To(BeEmpty())
			Expect(stepStatus(out, "move_card:CARD_1")).To(Equal(action.StepSkipped))
			Expect(h.tracker.added).To(BeEmpty(), "incoming board already carries the issue")
		})

		It("closes the issue when completed is applied", func() {
			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, statusLabel("completed")))
			Expect(err).NotTo(HaveOccurred())

			edits := h.tracker.Edits()
			Expect(edits).To(HaveLen(1))
			Expect(*edits[0].Edit.State).To(Equal(model.IssueStateClosed))
		})

		It("does not reclose an issue that is already closed", func() {
			issue.State = model.IssueStateClosed

			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, statusLabel("completed")))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.Edits()).To(BeEmpty())
			Expect(stepStatus(out, "close_completed")).To(Equal(action.StepSkipped))
		})
	})

	Describe("project labels", func() {
		It("adds an incoming issue to the first column of All Projects", func() {
			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "incoming"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.added).To(ConsistOf("I_7->COL_in"))
		})

		It("adds the issue to the board named by a department label", func() {
			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "Design", Description: "department"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.added).To(ConsistOf("I_7->COL_d_in"))
			Expect(h.records.Updates()).To(BeEmpty())
		})

		It("skips when no board matches", func() {
			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "Video", Description: "project"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.added).To(BeEmpty())
			Expect(stepStatus(out, "add_card")).To(Equal(action.StepSkipped))
		})
	})

	Describe("record fields", func() {
		It("writes priority and category", func() {
			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "p1", Description: "Priority"}))
			Expect(err).NotTo(HaveOccurred())
			_, err = h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "print", Description: "category"}))
			Expect(err).NotTo(HaveOccurred())

			Expect(h.records.Updates()).To(Equal([]map[string]any{
				{"priority": "p1"},
				{"jobCategory": "print"},
			}))
		})

		It("ignores labels without a taxonomy description", func() {
			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "question"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(stepStatus(out, "classify")).To(Equal(action.StepSkipped))
			Expect(h.records.Updates()).To(BeEmpty())
			Expect(h.tracker.Edits()).To(BeEmpty())
		})
	})

	Describe("expedite", func() {
		BeforeEach(func() {
			h.records.requests[7].Expedite = true
			tracked.Labels = []model.Label{{Name: "accepted", Description: "status"}, {Name: "Design", Description: "department"}}
		})

		It("prepends expedite and keeps the existing labels", func() {
			_, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "p2", Description: "priority"}))
			Expect(err).NotTo(HaveOccurred())

			edits := h.tracker.Edits()
			Expect(edits).To(HaveLen(1))
			Expect(*edits[0].Edit.Labels).To(Equal([]string{"expedite", "accepted", "Design"}))
		})

		It("does nothing once the label is present", func() {
			tracked.Labels = append(tracked.Labels, model.Label{Name: "expedite"})

			out, err := h.registry().Reconcile(ctx, labeledEvent(issue, model.Label{Name: "p2", Description: "priority"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.tracker.Edits()).To(BeEmpty())
			Expect(stepStatus(out, "expedite")).To(Equal(action.StepSkipped))
		})
	})

	It("still updates the record when the issue cannot be read", func() {
		h.tracker.findIssueFn = nil

		out, err := h.registry().Reconcile(ctx, labeledEvent(issue, statusLabel("review")))
		Expect(err).NotTo(HaveOccurred())
		Expect(stepStatus(out, "find_issue")).To(Equal(action.StepFailed))
		Expect(h.records.Updates()).To(ConsistOf(map[string]any{"jobStatus": "review"}))
		Expect(stepStatus(out, "move_card")).To(Equal(action.StepSkipped))
	})
})
