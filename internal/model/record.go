package model

// RequestRecord is the Record Store row for one studio request, keyed by its GitHub issue.
type RequestRecord struct {
	ID             string
	RequestID      string
	Title          string
	GitHubIssue    string
	JobStatus      string
	Priority       string
	JobCategory    string
	Expedite       bool
	RequestedEmail []string
	DepartmentID   []string
	DepartmentName []string
	Owner          []string
	StartDate      string
	DateDelivered  string
}

// Requester returns the first requested email, or "" when none is linked.
func (r RequestRecord) Requester() string {
	return first(r.RequestedEmail)
}

func (r RequestRecord) Department() (id, name string) {
	return first(r.DepartmentID), first(r.DepartmentName)
}

// StaffRecord resolves a GitHub handle ("@login") to a messaging identity.
type StaffRecord struct {
	ID     string
	GitHub string
	Email  string
	Slack  string
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
