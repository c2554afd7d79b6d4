package model

// MessagingGroup is the private group scoped to one issue, named "{namespace}-{issueNumber}".
type MessagingGroup struct {
	ID       string
	Name     string
	Archived bool
	Topic    string
	Purpose  string
	Members  []string
}

// Message is one entry of a group's history.
type Message struct {
	UserID    string
	Text      string
	Timestamp string
}

// Folder is a File Storage folder.
type Folder struct {
	ID   string
	Name string
}
