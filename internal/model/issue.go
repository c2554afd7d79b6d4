package model

import (
	"strings"
	"time"
)

type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

type Label struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Issue is the slice of a GitHub issue carried by a webhook delivery.
type Issue struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	State    IssueState `json:"state"`
	Assignee string     `json:"assignee,omitempty"`
	Labels   []Label    `json:"labels"`
}

func (i Issue) IsClosed() bool {
	return i.State == IssueStateClosed
}

func (i Issue) HasLabel(name string) bool {
	return hasLabel(i.Labels, name)
}

func (i Issue) LabelNames() []string {
	return labelNames(i.Labels)
}

// ProjectColumn is a column on a classic project board.
type ProjectColumn struct {
	ID   string
	Name string
}

// Project is a classic project board and its columns in board order.
type Project struct {
	ID      string
	Name    string
	Columns []ProjectColumn
}

// ProjectCard joins an issue to a board position.
type ProjectCard struct {
	ID          string
	ProjectName string
	Column      ProjectColumn
}

// TrackedIssue is the GraphQL view of an issue: its node ID, taxonomy labels and cards.
type TrackedIssue struct {
	ContentID string
	Number    int
	State     IssueState
	ClosedAt  *time.Time
	Labels    []Label
	Cards     []ProjectCard
}

func (i TrackedIssue) IsClosed() bool {
	return i.State == IssueStateClosed
}

func (i TrackedIssue) HasLabel(name string) bool {
	return hasLabel(i.Labels, name)
}

// LabelsNamed returns every label carrying the given name, taxonomy included.
func (i TrackedIssue) LabelsNamed(name string) []Label {
	var out []Label
	for _, l := range i.Labels {
		if strings.EqualFold(l.Name, name) {
			out = append(out, l)
		}
	}
	return out
}

// IssuePage is one page of the cursor-paginated issue listing.
type IssuePage struct {
	Issues      []TrackedIssue
	TotalCount  int
	EndCursor   string
	HasNextPage bool
}

func hasLabel(labels []Label, name string) bool {
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

func labelNames(labels []Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}
