package model

// WebhookEvent is one validated issues-event delivery. It is built once per request and
// rebuilt from RawBody when the delayed task runs.
type WebhookEvent struct {
	Action     Action
	RawAction  string
	Issue      Issue
	Label      *Label
	Assignee   string // event-level assignee on "assigned"; falls back to Issue.Assignee
	Sender     string
	DeliveryID string
	RawBody    []byte
	Signature  string
}

// AssigneeLogin returns the login the event assigns, if any.
func (e WebhookEvent) AssigneeLogin() string {
	if e.Assignee != "" {
		return e.Assignee
	}
	return e.Issue.Assignee
}
