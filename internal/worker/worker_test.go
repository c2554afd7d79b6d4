package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/queue"
	"basegraph.app/studiobot/internal/worker"
)

var _ = Describe("Scheduler", func() {
	var (
		ctx        context.Context
		q          queue.Queue
		clock      *fakeClock
		reconciler *fakeReconciler
		outcomes   *fakeOutcomeStore
		scheduler  *worker.Scheduler
	)

	BeforeEach(func() {
		ctx = context.Background()
		q = queue.NewMemoryQueue()
		clock = &fakeClock{now: time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)}
		reconciler = &fakeReconciler{}
		outcomes = &fakeOutcomeStore{}
	})

	JustBeforeEach(func() {
		scheduler = worker.New(q, mapper.NewGitHubEventMapper(), reconciler, outcomes, worker.Config{
			PollInterval: 10 * time.Millisecond,
			Now:          clock.Now,
		}, nil)
	})

	drain := func() int {
		n, err := scheduler.DrainOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		scheduler.Wait()
		return n
	}

	Describe("DrainOnce", func() {
		It("waits for NotBefore before running a task", func() {
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 42, "d-1", clock.Now().Add(15*time.Minute)))).To(Succeed())

			Expect(drain()).To(Equal(0))
			Expect(reconciler.Events()).To(BeEmpty())

			clock.Advance(15 * time.Minute)
			Expect(drain()).To(Equal(1))

			events := reconciler.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Action).To(Equal(model.ActionOpened))
			Expect(events[0].Issue.Number).To(Equal(42))
			Expect(events[0].Issue.Title).To(Equal("Poster"))
			Expect(events[0].DeliveryID).To(Equal("d-1"))
		})

		It("runs a claimed task only once", func() {
			Expect(q.Enqueue(ctx, task(model.ActionLabeled, 7, "d-2", clock.Now()))).To(Succeed())

			Expect(drain()).To(Equal(1))
			Expect(drain()).To(Equal(0))
			Expect(reconciler.Events()).To(HaveLen(1))
		})

		It("saves the outcome", func() {
			Expect(q.Enqueue(ctx, task(model.ActionClosed, 9, "d-3", clock.Now()))).To(Succeed())

			drain()

			saved := outcomes.Saved()
			Expect(saved).To(HaveLen(1))
			Expect(saved[0].Action).To(Equal(model.ActionClosed))
			Expect(saved[0].IssueNumber).To(Equal(9))
			Expect(saved[0].Succeeded()).To(BeTrue())
		})

		It("keeps going when saving the outcome fails", func() {
			outcomes.err = errors.New("db down")
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 1, "d-4", clock.Now()))).To(Succeed())
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 2, "d-5", clock.Now()))).To(Succeed())

			Expect(drain()).To(Equal(2))
			Expect(reconciler.Events()).To(HaveLen(2))
		})

		It("reports an undecodable payload as a failed decode step", func() {
			bad := task(model.ActionOpened, 5, "d-6", clock.Now())
			bad.Payload = []byte(`{"action":`)
			Expect(q.Enqueue(ctx, bad)).To(Succeed())

			drain()

			Expect(reconciler.Events()).To(BeEmpty())
			saved := outcomes.Saved()
			Expect(saved).To(HaveLen(1))
			step, ok := saved[0].Step(worker.StepDecodeTask)
			Expect(ok).To(BeTrue())
			Expect(step.Status).To(Equal(action.StepFailed))
		})

		It("recovers a panicking action into a failed outcome", func() {
			reconciler.fn = func(ctx context.Context, event model.WebhookEvent) (*action.Outcome, error) {
				panic("boom")
			}
			Expect(q.Enqueue(ctx, task(model.ActionAssigned, 3, "d-7", clock.Now()))).To(Succeed())

			drain()

			saved := outcomes.Saved()
			Expect(saved).To(HaveLen(1))
			Expect(saved[0].Succeeded()).To(BeFalse())
			step, ok := saved[0].Step(worker.StepReconcile)
			Expect(ok).To(BeTrue())
			Expect(step.Reason).To(ContainSubstring("panic: boom"))
		})

		It("reports a registry error as a failed reconcile step", func() {
			reconciler.fn = func(ctx context.Context, event model.WebhookEvent) (*action.Outcome, error) {
				return nil, action.ErrUnhandledAction
			}
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 4, "d-8", clock.Now()))).To(Succeed())

			drain()

			saved := outcomes.Saved()
			Expect(saved).To(HaveLen(1))
			step, _ := saved[0].Step(worker.StepReconcile)
			Expect(step.Status).To(Equal(action.StepFailed))
		})

		It("serializes tasks for the same issue in claim order", func() {
			var running, maxRunning int32
			reconciler.fn = func(ctx context.Context, event model.WebhookEvent) (*action.Outcome, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				out := action.NewOutcome(event.Action, event.Issue.Number, event.DeliveryID, time.Now())
				out.Finish(time.Now())
				return out, nil
			}

			now := clock.Now()
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 42, "a", now.Add(-2*time.Second)))).To(Succeed())
			Expect(q.Enqueue(ctx, task(model.ActionLabeled, 42, "b", now.Add(-time.Second)))).To(Succeed())
			Expect(q.Enqueue(ctx, task(model.ActionAssigned, 42, "c", now))).To(Succeed())

			Expect(drain()).To(Equal(3))

			Expect(atomic.LoadInt32(&maxRunning)).To(Equal(int32(1)))
			var deliveries []string
			for _, ev := range reconciler.Events() {
				deliveries = append(deliveries, ev.DeliveryID)
			}
			Expect(deliveries).To(Equal([]string{"a", "b", "c"}))
		})

		It("runs different issues in parallel", func() {
			release := make(chan struct{})
			reconciler.fn = func(ctx context.Context, event model.WebhookEvent) (*action.Outcome, error) {
				if event.Issue.Number == 1 {
					select {
					case <-release:
					case <-time.After(2 * time.Second):
						return nil, errors.New("issue 1 was not released")
					}
				} else {
					close(release)
				}
				out := action.NewOutcome(event.Action, event.Issue.Number, event.DeliveryID, time.Now())
				out.Finish(time.Now())
				return out, nil
			}

			Expect(q.Enqueue(ctx, task(model.ActionOpened, 1, "x", clock.Now()))).To(Succeed())
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 2, "y", clock.Now()))).To(Succeed())

			drain()

			for _, out := range outcomes.Saved() {
				Expect(out.Succeeded()).To(BeTrue(), "issue %d", out.IssueNumber)
			}
		})
	})

	Describe("Run", func() {
		It("drains due tasks until stopped", func() {
			Expect(q.Enqueue(ctx, task(model.ActionOpened, 11, "r-1", clock.Now().Add(time.Minute)))).To(Succeed())

			done := make(chan error, 1)
			go func() { done <- scheduler.Run(ctx) }()

			Consistently(reconciler.Events, 50*time.Millisecond).Should(BeEmpty())

			clock.Advance(time.Minute)
			Eventually(reconciler.Events).Should(HaveLen(1))

			scheduler.Stop()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("returns when the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- scheduler.Run(runCtx) }()

			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
