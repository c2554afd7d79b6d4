package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/service"
	"basegraph.app/studiobot/internal/worker"
)

var _ = Describe("SweepRunner", func() {
	var (
		ctx     context.Context
		sweeper *fakeSweeper
		reports *fakeSweepStore
		report  *service.SweepReport
	)

	BeforeEach(func() {
		ctx = context.Background()
		report = &service.SweepReport{IssuesScanned: 3, Corrections: 1}
		sweeper = &fakeSweeper{report: report}
		reports = &fakeSweepStore{}
	})

	It("rejects an invalid schedule", func() {
		_, err := worker.NewSweepRunner(sweeper, reports, worker.SweepConfig{Schedule: "not a schedule"}, nil)
		Expect(err).To(MatchError(ContainSubstring("parsing sweep schedule")))
	})

	It("rejects a five field schedule", func() {
		_, err := worker.NewSweepRunner(sweeper, reports, worker.SweepConfig{Schedule: "0 23 * * *"}, nil)
		Expect(err).To(HaveOccurred())
	})

	Describe("RunOnce", func() {
		It("sweeps and stores the report", func() {
			runner, err := worker.NewSweepRunner(sweeper, reports, worker.SweepConfig{Schedule: "0 0 23 * * *"}, nil)
			Expect(err).NotTo(HaveOccurred())

			got, err := runner.RunOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeIdenticalTo(report))
			Expect(reports.saved).To(ConsistOf(report))
		})

		It("stores a partial report when the sweep fails", func() {
			sweeper.err = errors.New("listing issues: boom")
			runner, err := worker.NewSweepRunner(sweeper, reports, worker.SweepConfig{Schedule: "0 0 23 * * *"}, nil)
			Expect(err).NotTo(HaveOccurred())

			got, err := runner.RunOnce(ctx)
			Expect(err).To(MatchError(ContainSubstring("boom")))
			Expect(got).To(BeIdenticalTo(report))
			Expect(reports.saved).To(HaveLen(1))
		})

		It("works without a report store", func() {
			runner, err := worker.NewSweepRunner(sweeper, nil, worker.SweepConfig{Schedule: "0 0 23 * * *"}, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = runner.RunOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sweeper.Calls()).To(Equal(1))
		})
	})

	It("runs on its schedule until stopped", func() {
		loc, err := time.LoadLocation("America/New_York")
		Expect(err).NotTo(HaveOccurred())
		runner, err := worker.NewSweepRunner(sweeper, nil, worker.SweepConfig{Schedule: "* * * * * *", Location: loc}, nil)
		Expect(err).NotTo(HaveOccurred())

		runner.Start(ctx)
		Eventually(sweeper.Calls, 3*time.Second, 50*time.Millisecond).Should(BeNumerically(">=", 1))

		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		runner.Stop(stopCtx)
	})
})
