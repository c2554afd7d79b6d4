package issue_tracker

import (
	"context"
	"errors"

	"basegraph.app/studiobot/internal/model"
)

var ErrNotFound = errors.New("not found")

// IssueEdit is a partial issue update. Nil fields are left untouched.
type IssueEdit struct {
	Body   *string
	Labels *[]string
	State  *model.IssueState
}

type ListIssuesParams struct {
	After string
	First int
}

type IssueTrackerService interface {
	EditIssue(ctx context.Context, number int, edit IssueEdit) error
	CreateComment(ctx context.Context, number int, body string) error
	FindIssue(ctx context.Context, number int) (*model.TrackedIssue, error)
	// FindProject returns the board named name (case-insensitive), with its columns in board order.
	// Boards the search only partially matches are ignored.
	FindProject(ctx context.Context, name string) (*model.Project, error)
	AddProjectCard(ctx context.Context, contentID, columnID string) (string, error)
	MoveProjectCard(ctx context.Context, cardID, columnID string) error
	DeleteProjectCard(ctx context.Context, cardID string) error
	ListIssues(ctx context.Context, params ListIssuesParams) (*model.IssuePage, error)
}
