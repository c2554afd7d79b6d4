package action

import (
	"context"
	"time"

	"basegraph.app/studiobot/internal/label"
	"basegraph.app/studiobot/internal/model"
	"basegraph.app/studiobot/internal/service/record_store"
)

const dateLayout = "2006-01-02"

// RecordSync writes label-derived state onto a RequestRecord. Every write is skipped when
// the record already holds the value, so replays leave the record untouched.
type RecordSync struct {
	records  record_store.RecordStoreService
	location *time.Location
	now      func() time.Time
}

func NewRecordSync(records record_store.RecordStoreService, location *time.Location, now func() time.Time) *RecordSync {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RecordSync{records: records, location: location, now: now}
}

// Status sets jobStatus, stamping startDate on accepted and dateDelivered on completed in the
// same write.
func (s *RecordSync) Status(ctx context.Context, record *model.RequestRecord, status string) (bool, error) {
	if record.JobStatus == status {
		return false, nil
	}

	fields := map[string]any{record_store.FieldJobStatus: status}
	switch status {
	case label.Accepted:
		fields[record_store.FieldStartDate] = s.today()
	case label.Completed:
		fields[record_store.FieldDateDelivered] = s.today()
	}

	if err := s.records.UpdateRequest(ctx, record.ID, fields); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RecordSync) Priority(ctx context.Context, record *model.RequestRecord, priority string) (bool, error) {
	return s.field(ctx, record.ID, record_store.FieldPriority, record.Priority, priority)
}

func (s *RecordSync) Category(ctx context.Context, record *model.RequestRecord, category string) (bool, error) {
	return s.field(ctx, record.ID, record_store.FieldJobCategory, record.JobCategory, category)
}

// Owner links the record to a staff row.
func (s *RecordSync) Owner(ctx context.Context, record *model.RequestRecord, field, staffID string) (bool, error) {
	if len(record.Owner) == 1 && record.Owner[0] == staffID {
		return false, nil
	}
	if err := s.records.UpdateRequest(ctx, record.ID, map[string]any{field: []string{staffID}}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RecordSync) field(ctx context.Context, recordID, field, current, value string) (bool, error) {
	if current == value {
		return false, nil
	}
	if err := s.records.UpdateRequest(ctx, recordID, map[string]any{field: value}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RecordSync) today() string {
	return s.now().In(s.location).Format(dateLayout)
}
