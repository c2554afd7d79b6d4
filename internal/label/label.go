// Package label classifies issue labels by their taxonomy description.
//
// A label's name says what it is ("review", "p1", "Engineering"); its description says what
// kind of label it is ("status", "priority", "department"). Reconciliation keys off the kind.
package label

import (
	"strings"

	"basegraph.app/studiobot/internal/model"
)

type Category string

const (
	CategoryDepartment   Category = "department"
	CategoryProject      Category = "project"
	CategoryStatus       Category = "status"
	CategoryPriority     Category = "priority"
	CategoryCategory     Category = "category"
	CategoryUnclassified Category = "unclassified"
)

const (
	Incoming  = "incoming"
	Accepted  = "accepted"
	Completed = "completed"
	Expedite  = "expedite"

	// AllProjects is the board every incoming issue lands on.
	AllProjects = "All Projects"
)

// Statuses is the status taxonomy in workflow order.
var Statuses = []string{
	Incoming, Accepted, "in progress", "rejected", "blocked", "review", Completed, "hold", "canceled",
}

// ParseCategory maps a label description onto the closed set of categories.
func ParseCategory(description string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(description))) {
	case CategoryDepartment:
		return CategoryDepartment
	case CategoryProject:
		return CategoryProject
	case CategoryStatus:
		return CategoryStatus
	case CategoryPriority:
		return CategoryPriority
	case CategoryCategory:
		return CategoryCategory
	default:
		return CategoryUnclassified
	}
}

// Classify returns the category of a label.
func Classify(l model.Label) Category {
	return ParseCategory(l.Description)
}

// AddsToProject reports whether applying the label should put the issue on a board.
func AddsToProject(l model.Label) bool {
	if IsIncoming(l.Name) {
		return true
	}
	switch Classify(l) {
	case CategoryDepartment, CategoryProject:
		return true
	default:
		return false
	}
}

// ProjectName is the board searched for when the label is applied.
func ProjectName(l model.Label) string {
	if IsIncoming(l.Name) {
		return AllProjects
	}
	return l.Name
}

func IsIncoming(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), Incoming)
}

func IsCompleted(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), Completed)
}

// Canonical is the record state implied by an issue's current labels.
type Canonical struct {
	Status   string
	Priority string
	Category string
}

// Derive reads status, priority and category off a label set. Status labels are not removed
// as an issue moves, so when several are present the one furthest along Statuses wins; names
// outside Statuses rank below every known status. For priority and category the last label wins.
func Derive(labels []model.Label) Canonical {
	var c Canonical
	rank := -1
	for _, l := range labels {
		switch Classify(l) {
		case CategoryStatus:
			if r := StatusRank(l.Name); c.Status == "" || r >= rank {
				c.Status, rank = l.Name, r
			}
		case CategoryPriority:
			c.Priority = l.Name
		case CategoryCategory:
			c.Category = l.Name
		case CategoryDepartment, CategoryProject, CategoryUnclassified:
		}
	}
	return c
}

// StatusRank is the position of a status name in Statuses, or -1 when it is not a known status.
func StatusRank(name string) int {
	name = strings.TrimSpace(name)
	for i, s := range Statuses {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}
