package record_store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mehanizm/airtable"

	"basegraph.app/studiobot/internal/model"
)

type AirtableConfig struct {
	APIKey       string
	Base         string
	RequestTable string
	StaffTable   string
	OwnerField   string
	// BaseURL overrides the public API endpoint.
	BaseURL string
}

type airtableRecordStoreService struct {
	requests   *airtable.Table
	staff      *airtable.Table
	ownerField string
}

func NewAirtableRecordStoreService(cfg AirtableConfig) (RecordStoreService, error) {
	client := airtable.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		if err := client.SetBaseURL(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("setting airtable base url: %w", err)
		}
	}

	return &airtableRecordStoreService{
		requests:   client.GetTable(cfg.Base, cfg.RequestTable),
		staff:      client.GetTable(cfg.Base, cfg.StaffTable),
		ownerField: cfg.OwnerField,
	}, nil
}

func (s *airtableRecordStoreService) FindRequestByIssue(ctx context.Context, number int) (*model.RequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formula := fmt.Sprintf("{%s} = '%d'", FieldGitHubIssue, number)
	records, err := s.requests.GetRecords().
		WithFilterFormula(formula).
		MaxRecords(2).
		Do()
	if err != nil {
		return nil, fmt.Errorf("querying requests for issue %d: %w", number, err)
	}
	if records == nil || len(records.Records) == 0 {
		return nil, fmt.Errorf("request for issue %d: %w", number, ErrNotFound)
	}
	if len(records.Records) > 1 {
		slog.WarnContext(ctx, "multiple requests reference one issue, using the first",
			"issue_number", number,
			"record_id", records.Records[0].ID)
	}

	return s.toRequest(records.Records[0]), nil
}

func (s *airtableRecordStoreService) FindStaffByGitHub(ctx context.Context, handle string) (*model.StaffRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formula := fmt.Sprintf("{%s} = '%s'", FieldStaffGitHub, escapeFormula(handle))
	records, err := s.staff.GetRecords().
		WithFilterFormula(formula).
		MaxRecords(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("querying staff for %s: %w", handle, err)
	}
	if records == nil || len(records.Records) == 0 {
		return nil, fmt.Errorf("staff %s: %w", handle, ErrNotFound)
	}

	r := records.Records[0]
	return &model.StaffRecord{
		ID:     r.ID,
		GitHub: stringField(r.Fields, FieldStaffGitHub),
		Email:  stringField(r.Fields, FieldStaffEmail),
		Slack:  stringField(r.Fields, FieldStaffSlack),
	}, nil
}

func (s *airtableRecordStoreService) UpdateRequest(ctx context.Context, recordID string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.requests.UpdateRecordsPartial(&airtable.Records{
		Records: []*airtable.Record{{ID: recordID, Fields: fields}},
	})
	if err != nil {
		return fmt.Errorf("updating request %s: %w", recordID, err)
	}
	return nil
}

func (s *airtableRecordStoreService) toRequest(r *airtable.Record) *model.RequestRecord {
	return &model.RequestRecord{
		ID:             r.ID,
		RequestID:      stringField(r.Fields, FieldRequestID),
		Title:          stringField(r.Fields, FieldTitle),
		GitHubIssue:    stringField(r.Fields, FieldGitHubIssue),
		JobStatus:      stringField(r.Fields, FieldJobStatus),
		Priority:       stringField(r.Fields, FieldPriority),
		JobCategory:    stringField(r.Fields, FieldJobCategory),
		Expedite:       boolField(r.Fields, FieldExpedite),
		RequestedEmail: listField(r.Fields, FieldRequestedEmail),
		DepartmentID:   listField(r.Fields, FieldDepartmentID),
		DepartmentName: listField(r.Fields, FieldDepartmentName),
		Owner:          listField(r.Fields, s.ownerField),
		StartDate:      stringField(r.Fields, FieldStartDate),
		DateDelivered:  stringField(r.Fields, FieldDateDelivered),
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func listField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func escapeFormula(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
