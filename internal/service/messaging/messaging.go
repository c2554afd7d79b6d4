package messaging

import (
	"context"
	"errors"

	"basegraph.app/studiobot/internal/model"
)

var ErrNotFound = errors.New("not found")

type MessagingService interface {
	// FindGroup looks up a private group by exact name, archived groups included.
	FindGroup(ctx context.Context, name string) (*model.MessagingGroup, error)
	CreateGroup(ctx context.Context, name string) (*model.MessagingGroup, error)
	ArchiveGroup(ctx context.Context, groupID string) error
	UnarchiveGroup(ctx context.Context, groupID string) error
	// Invite is a no-op for users already in the group.
	Invite(ctx context.Context, groupID string, userIDs ...string) error
	SetTopic(ctx context.Context, groupID, topic string) error
	SetPurpose(ctx context.Context, groupID, purpose string) error
	// History returns the group's user messages oldest first.
	History(ctx context.Context, groupID string) ([]model.Message, error)
	UserIDByEmail(ctx context.Context, email string) (string, error)
	// UserIDByHandle matches "@name" against workspace user names.
	UserIDByHandle(ctx context.Context, handle string) (string, error)
	UserName(ctx context.Context, userID string) (string, error)
	TeamID(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, groupID, text string) error
}
