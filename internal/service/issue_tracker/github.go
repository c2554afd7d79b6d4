package issue_tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	graphql "github.com/hasura/go-graphql-client"
	"golang.org/x/oauth2"

	"basegraph.app/studiobot/internal/model"
)

type GitHubConfig struct {
	Token      string
	Owner      string
	Repository string
	GraphQLURL string
	// RESTBaseURL overrides https://api.github.com/ (tests, GHES).
	RESTBaseURL string
	HTTPClient  *http.Client
}

type gitHubIssueTrackerService struct {
	rest  *github.Client
	gql   *graphql.Client
	owner string
	repo  string
}

func NewGitHubIssueTrackerService(cfg GitHubConfig) (IssueTrackerService, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	rest := github.NewClient(httpClient)
	if cfg.RESTBaseURL != "" {
		base := cfg.RESTBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		rest.BaseURL = u
	}

	return &gitHubIssueTrackerService{
		rest:  rest,
		gql:   graphql.NewClient(cfg.GraphQLURL, httpClient),
		owner: cfg.Owner,
		repo:  cfg.Repository,
	}, nil
}

func (s *gitHubIssueTrackerService) EditIssue(ctx context.Context, number int, edit IssueEdit) error {
	req := &github.IssueRequest{
		Body:   edit.Body,
		Labels: edit.Labels,
	}
	if edit.State != nil {
		req.State = github.String(string(*edit.State))
	}

	_, resp, err := s.rest.Issues.Edit(ctx, s.owner, s.repo, number, req)
	if err != nil {
		return restError(resp, fmt.Errorf("editing issue %d: %w", number, err))
	}
	return nil
}

func (s *gitHubIssueTrackerService) CreateComment(ctx context.Context, number int, body string) error {
	_, resp, err := s.rest.Issues.CreateComment(ctx, s.owner, s.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return restError(resp, fmt.Errorf("commenting on issue %d: %w", number, err))
	}
	return nil
}

func (s *gitHubIssueTrackerService) FindIssue(ctx context.Context, number int) (*model.TrackedIssue, error) {
	var resp struct {
		Repository struct {
			Issue *issueNode `json:"issue"`
		} `json:"repository"`
	}
	err := s.exec(ctx, findIssueQuery, map[string]any{
		"owner":  s.owner,
		"name":   s.repo,
		"number": number,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("finding issue %d: %w", number, err)
	}
	if resp.Repository.Issue == nil {
		return nil, fmt.Errorf("finding issue %d: %w", number, ErrNotFound)
	}

	issue := resp.Repository.Issue.toModel()
	return &issue, nil
}

func (s *gitHubIssueTrackerService) FindProject(ctx context.Context, name string) (*model.Project, error) {
	var resp struct {
		Repository struct {
			Projects struct {
				Nodes []struct {
					ID      string `json:"id"`
					Name    string `json:"name"`
					Columns struct {
						Nodes []columnNode `json:"nodes"`
					} `json:"columns"`
				} `json:"nodes"`
			} `json:"projects"`
		} `json:"repository"`
	}
	err := s.exec(ctx, findProjectQuery, map[string]any{
		"owner":  s.owner,
		"name":   s.repo,
		"search": name,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("finding project %q: %w", name, err)
	}

	for _, node := range resp.Repository.Projects.Nodes {
		if !strings.EqualFold(strings.TrimSpace(node.Name), strings.TrimSpace(name)) {
			continue
		}
		project := &model.Project{ID: node.ID, Name: node.Name}
		for _, c := range node.Columns.Nodes {
			project.Columns = append(project.Columns, model.ProjectColumn{ID: c.ID, Name: c.Name})
		}
		return project, nil
	}
	return nil, fmt.Errorf("finding project %q: %w", name, ErrNotFound)
}

func (s *gitHubIssueTrackerService) AddProjectCard(ctx context.Context, contentID, columnID string) (string, error) {
	var resp struct {
		AddProjectCard struct {
			CardEdge struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"cardEdge"`
		} `json:"addProjectCard"`
	}
	err := s.exec(ctx, addProjectCardMutation, map[string]any{
		"contentId": contentID,
		"columnId":  columnID,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("adding project card: %w", err)
	}
	return resp.AddProjectCard.CardEdge.Node.ID, nil
}

func (s *gitHubIssueTrackerService) MoveProjectCard(ctx context.Context, cardID, columnID string) error {
	err := s.exec(ctx, moveProjectCardMutation, map[string]any{
		"cardId":   cardID,
		"columnId": columnID,
	}, nil)
	if err != nil {
		return fmt.Errorf("moving project card %s: %w", cardID, err)
	}
	return nil
}

func (s *gitHubIssueTrackerService) DeleteProjectCard(ctx context.Context, cardID string) error {
	err := s.exec(ctx, deleteProjectCardMutation, map[string]any{
		"cardId": cardID,
	}, nil)
	if err != nil {
		return fmt.Errorf("deleting project card %s: %w", cardID, err)
	}
	return nil
}

func (s *gitHubIssueTrackerService) ListIssues(ctx context.Context, params ListIssuesParams) (*model.IssuePage, error) {
	first := params.First
	if first <= 0 || first > 100 {
		first = 100
	}
	var after any
	if params.After != "" {
		after = params.After
	}

	var resp struct {
		Repository struct {
			Issues struct {
				TotalCount int `json:"totalCount"`
				PageInfo   struct {
					EndCursor   string `json:"endCursor"`
					HasNextPage bool   `json:"hasNextPage"`
				} `json:"pageInfo"`
				Nodes []issueNode `json:"nodes"`
			} `json:"issues"`
		} `json:"repository"`
	}
	err := s.exec(ctx, listIssuesQuery, map[string]any{
		"owner": s.owner,
		"name":  s.repo,
		"first": first,
		"after": after,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	issues := resp.Repository.Issues
	page := &model.IssuePage{
		TotalCount:  issues.TotalCount,
		EndCursor:   issues.PageInfo.EndCursor,
		HasNextPage: issues.PageInfo.HasNextPage,
		Issues:      make([]model.TrackedIssue, 0, len(issues.Nodes)),
	}
	for _, n := range issues.Nodes {
		page.Issues = append(page.Issues, n.toModel())
	}
	return page, nil
}

func (s *gitHubIssueTrackerService) exec(ctx context.Context, query string, vars map[string]any, out any) error {
	raw, err := s.gql.ExecRaw(ctx, query, vars)
	if err != nil {
		return graphQLError(err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}
	return nil
}

type columnNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type issueNode struct {
	ID       string     `json:"id"`
	Number   int        `json:"number"`
	State    string     `json:"state"`
	ClosedAt *time.Time `json:"closedAt"`
	Labels   struct {
		Nodes []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"nodes"`
	} `json:"labels"`
	ProjectCards struct {
		Nodes []struct {
			ID      string `json:"id"`
			Project struct {
				Name string `json:"name"`
			} `json:"project"`
			Column *columnNode `json:"column"`
		} `json:"nodes"`
	} `json:"projectCards"`
}

func (n issueNode) toModel() model.TrackedIssue {
	issue := model.TrackedIssue{
		ContentID: n.ID,
		Number:    n.Number,
		State:     model.IssueState(strings.ToLower(n.State)),
		ClosedAt:  n.ClosedAt,
	}
	for _, l := range n.Labels.Nodes {
		issue.Labels = append(issue.Labels, model.Label{Name: l.Name, Description: l.Description})
	}
	for _, c := range n.ProjectCards.Nodes {
		card := model.ProjectCard{ID: c.ID, ProjectName: c.Project.Name}
		// Cards in a project's "awaiting triage" state have no column.
		if c.Column != nil {
			card.Column = model.ProjectColumn{ID: c.Column.ID, Name: c.Column.Name}
		}
		issue.Cards = append(issue.Cards, card)
	}
	return issue
}

func graphQLError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "Could not resolve to a node") {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return err
}

func restError(resp *github.Response, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
