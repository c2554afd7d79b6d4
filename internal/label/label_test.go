package label_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/label"
	"basegraph.app/studiobot/internal/model"
)

var _ = Describe("Label", func() {
	Describe("ParseCategory", func() {
		It("maps known descriptions", func() {
			Expect(label.ParseCategory("department")).To(Equal(label.CategoryDepartment))
			Expect(label.ParseCategory("project")).To(Equal(label.CategoryProject))
			Expect(label.ParseCategory("status")).To(Equal(label.CategoryStatus))
			Expect(label.ParseCategory("priority")).To(Equal(label.CategoryPriority))
			Expect(label.ParseCategory("category")).To(Equal(label.CategoryCategory))
		})

		It("is case and whitespace insensitive", func() {
			Expect(label.ParseCategory("  Status ")).To(Equal(label.CategoryStatus))
		})

		It("decodes anything else as unclassified", func() {
			Expect(label.ParseCategory("")).To(Equal(label.CategoryUnclassified))
			Expect(label.ParseCategory("Something a human wrote")).To(Equal(label.CategoryUnclassified))
		})
	})

	Describe("AddsToProject", func() {
		It("is true for department and project labels", func() {
			Expect(label.AddsToProject(model.Label{Name: "Engineering", Description: "department"})).To(BeTrue())
			Expect(label.AddsToProject(model.Label{Name: "Website", Description: "project"})).To(BeTrue())
		})

		It("is true for incoming regardless of description", func() {
			Expect(label.AddsToProject(model.Label{Name: "incoming", Description: "status"})).To(BeTrue())
			Expect(label.AddsToProject(model.Label{Name: "Incoming"})).To(BeTrue())
		})

		It("is false for other labels", func() {
			Expect(label.AddsToProject(model.Label{Name: "review", Description: "status"})).To(BeFalse())
		})
	})

	Describe("ProjectName", func() {
		It("routes incoming to All Projects", func() {
			Expect(label.ProjectName(model.Label{Name: "incoming"})).To(Equal(label.AllProjects))
		})

		It("uses the label name otherwise", func() {
			Expect(label.ProjectName(model.Label{Name: "Engineering"})).To(Equal("Engineering"))
		})
	})

	Describe("Derive", func() {
		It("reads status, priority and category from labels", func() {
			c := label.Derive([]model.Label{
				{Name: "Engineering", Description: "department"},
				{Name: "review", Description: "status"},
				{Name: "p1", Description: "priority"},
				{Name: "design", Description: "category"},
				{Name: "good first issue"},
			})
			Expect(c).To(Equal(label.Canonical{Status: "review", Priority: "p1", Category: "design"}))
		})

		It("prefers the status furthest along the workflow", func() {
			c := label.Derive([]model.Label{
				{Name: "completed", Description: "status"},
				{Name: "in progress", Description: "status"},
				{Name: "accepted", Description: "status"},
			})
			Expect(c.Status).To(Equal("completed"))
		})

		It("ranks unknown status names below known ones", func() {
			c := label.Derive([]model.Label{
				{Name: "review", Description: "status"},
				{Name: "waiting on vendor", Description: "status"},
			})
			Expect(c.Status).To(Equal("review"))

			c = label.Derive([]model.Label{{Name: "waiting on vendor", Description: "status"}})
			Expect(c.Status).To(Equal("waiting on vendor"))
		})

		It("ranks statuses case-insensitively", func() {
			Expect(label.StatusRank(" In Progress ")).To(Equal(2))
			Expect(label.StatusRank("unknown")).To(Equal(-1))
		})

		It("leaves absent categories empty", func() {
			Expect(label.Derive(nil)).To(Equal(label.Canonical{}))
		})
	})
})
