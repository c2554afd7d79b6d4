package record_store

import (
	"context"
	"errors"

	"basegraph.app/studiobot/internal/model"
)

var ErrNotFound = errors.New("record not found")

// Request table field names.
const (
	FieldRequestID      = "requestID"
	FieldTitle          = "title"
	FieldGitHubIssue    = "githubIssue"
	FieldJobStatus      = "jobStatus"
	FieldPriority       = "priority"
	FieldJobCategory    = "jobCategory"
	FieldExpedite       = "expedite"
	FieldRequestedEmail = "requestedEmail"
	FieldDepartmentID   = "departmentID"
	FieldDepartmentName = "departmentName"
	FieldStartDate      = "startDate"
	FieldDateDelivered  = "dateDelivered"
)

// Staff table field names.
const (
	FieldStaffGitHub = "github"
	FieldStaffEmail  = "email"
	FieldStaffSlack  = "slack"
)

type RecordStoreService interface {
	// FindRequestByIssue returns the first request whose githubIssue matches number.
	FindRequestByIssue(ctx context.Context, number int) (*model.RequestRecord, error)
	// FindStaffByGitHub matches handle ("@login") against the staff github field.
	FindStaffByGitHub(ctx context.Context, handle string) (*model.StaffRecord, error)
	UpdateRequest(ctx context.Context, recordID string, fields map[string]any) error
}
