package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"

	"basegraph.app/studiobot/internal/model"
)

type SlackConfig struct {
	Token    string
	BotToken string
	// APIURL overrides https://slack.com/api/.
	APIURL string
}

type slackMessagingService struct {
	user *slack.Client
	bot  *slack.Client

	mu     sync.Mutex
	teamID string
}

func NewSlackMessagingService(cfg SlackConfig) MessagingService {
	var opts []slack.Option
	if cfg.APIURL != "" {
		url := cfg.APIURL
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		opts = append(opts, slack.OptionAPIURL(url))
	}

	return &slackMessagingService{
		user: slack.New(cfg.Token, opts...),
		bot:  slack.New(cfg.BotToken, opts...),
	}
}

func (s *slackMessagingService) FindGroup(ctx context.Context, name string) (*model.MessagingGroup, error) {
	params := &slack.GetConversationsParameters{
		Types:           []string{"private_channel"},
		ExcludeArchived: false,
		Limit:           1000,
	}
	for {
		channels, cursor, err := s.user.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("listing groups: %w", err)
		}
		for i := range channels {
			if channels[i].Name == name {
				return toGroup(&channels[i]), nil
			}
		}
		if cursor == "" {
			return nil, fmt.Errorf("group %s: %w", name, ErrNotFound)
		}
		params.Cursor = cursor
	}
}

func (s *slackMessagingService) CreateGroup(ctx context.Context, name string) (*model.MessagingGroup, error) {
	ch, err := s.user.CreateConversationContext(ctx, slack.CreateConversationParams{
		ChannelName: name,
		IsPrivate:   true,
	})
	if err != nil {
		if isSlackError(err, "name_taken") {
			return s.FindGroup(ctx, name)
		}
		return nil, fmt.Errorf("creating group %s: %w", name, err)
	}
	return toGroup(ch), nil
}

func (s *slackMessagingService) ArchiveGroup(ctx context.Context, groupID string) error {
	if err := s.user.ArchiveConversationContext(ctx, groupID); err != nil && !isSlackError(err, "already_archived") {
		return fmt.Errorf("archiving group %s: %w", groupID, err)
	}
	return nil
}

func (s *slackMessagingService) UnarchiveGroup(ctx context.Context, groupID string) error {
	if err := s.user.UnArchiveConversationContext(ctx, groupID); err != nil && !isSlackError(err, "not_archived") {
		return fmt.Errorf("unarchiving group %s: %w", groupID, err)
	}
	return nil
}

func (s *slackMessagingService) Invite(ctx context.Context, groupID string, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.user.InviteUsersToConversationContext(ctx, groupID, userIDs...)
	if err != nil && !isSlackError(err, "already_in_channel", "cant_invite_self") {
		return fmt.Errorf("inviting to group %s: %w", groupID, err)
	}
	return nil
}

func (s *slackMessagingService) SetTopic(ctx context.Context, groupID, topic string) error {
	if _, err := s.user.SetTopicOfConversationContext(ctx, groupID, topic); err != nil {
		return fmt.Errorf("setting topic of %s: %w", groupID, err)
	}
	return nil
}

func (s *slackMessagingService) SetPurpose(ctx context.Context, groupID, purpose string) error {
	if _, err := s.user.SetPurposeOfConversationContext(ctx, groupID, purpose); err != nil {
		return fmt.Errorf("setting purpose of %s: %w", groupID, err)
	}
	return nil
}

func (s *slackMessagingService) History(ctx context.Context, groupID string) ([]model.Message, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: groupID,
		Limit:     200,
	}

	// Slack pages newest first.
	var newestFirst []model.Message
	for {
		resp, err := s.user.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("reading history of %s: %w", groupID, err)
		}
		for _, m := range resp.Messages {
			if m.Type != "message" || m.SubType != "" {
				continue
			}
			newestFirst = append(newestFirst, model.Message{
				UserID:    m.User,
				Text:      m.Text,
				Timestamp: m.Timestamp,
			})
		}
		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
	}

	out := make([]model.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out, nil
}

func (s *slackMessagingService) UserIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.user.GetUserByEmailContext(ctx, email)
	if err != nil {
		if isSlackError(err, "users_not_found") {
			return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return "", fmt.Errorf("looking up user %s: %w", email, err)
	}
	return u.ID, nil
}

func (s *slackMessagingService) UserIDByHandle(ctx context.Context, handle string) (string, error) {
	name := strings.TrimPrefix(handle, "@")
	users, err := s.user.GetUsersContext(ctx)
	if err != nil {
		return "", fmt.Errorf("listing users: %w", err)
	}
	for _, u := range users {
		if u.Name == name {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("user %s: %w", handle, ErrNotFound)
}

func (s *slackMessagingService) UserName(ctx context.Context, userID string) (string, error) {
	u, err := s.user.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("reading user %s: %w", userID, err)
	}
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName, nil
	}
	if u.RealName != "" {
		return u.RealName, nil
	}
	return u.Name, nil
}

func (s *slackMessagingService) TeamID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teamID != "" {
		return s.teamID, nil
	}

	team, err := s.user.GetTeamInfoContext(ctx)
	if err != nil {
		return "", fmt.Errorf("reading team info: %w", err)
	}
	s.teamID = team.ID
	return s.teamID, nil
}

func (s *slackMessagingService) PostMessage(ctx context.Context, groupID, text string) error {
	_, _, err := s.bot.PostMessageContext(ctx, groupID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting to %s: %w", groupID, err)
	}
	return nil
}

func toGroup(ch *slack.Channel) *model.MessagingGroup {
	return &model.MessagingGroup{
		ID:       ch.ID,
		Name:     ch.Name,
		Archived: ch.IsArchived,
		Topic:    ch.Topic.Value,
		Purpose:  ch.Purpose.Value,
		Members:  ch.Members,
	}
}

func isSlackError(err error, codes ...string) bool {
	msg := err.Error()
	for _, code := range codes {
		if msg == code || strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
