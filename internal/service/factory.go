package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"basegraph.app/studiobot/core/config"
	"basegraph.app/studiobot/internal/action"
	"basegraph.app/studiobot/internal/queue"
	"basegraph.app/studiobot/internal/retry"
	"basegraph.app/studiobot/internal/service/file_storage"
	"basegraph.app/studiobot/internal/service/issue_tracker"
	"basegraph.app/studiobot/internal/service/messaging"
	"basegraph.app/studiobot/internal/service/record_store"
)

// Services wires the adapters and services from configuration. Adapters are built on
// first use so the webhook server never needs API credentials.
type Services struct {
	cfg   config.Config
	queue queue.Queue
	now   func() time.Time

	once     sync.Once
	adapters action.Services
	err      error
}

func NewServices(cfg config.Config, q queue.Queue) *Services {
	return &Services{cfg: cfg, queue: q, now: time.Now}
}

func (s *Services) Dispatch() DispatchService {
	return NewDispatchService(s.queue, Delays{
		Settle:   s.cfg.Schedule.SettleDelay,
		Debounce: s.cfg.Schedule.DebounceDelay,
	}, s.now, nil)
}

// Adapters returns the external system clients, building them once.
func (s *Services) Adapters(ctx context.Context) (action.Services, error) {
	s.once.Do(func() {
		s.adapters, s.err = buildAdapters(ctx, s.cfg)
	})
	return s.adapters, s.err
}

func buildAdapters(ctx context.Context, cfg config.Config) (action.Services, error) {
	tracker, err := issue_tracker.NewGitHubIssueTrackerService(issue_tracker.GitHubConfig{
		Token:      cfg.GitHub.Token,
		Owner:      cfg.GitHub.Owner,
		Repository: cfg.GitHub.Repository,
		GraphQLURL: cfg.GitHub.GraphQLURL,
	})
	if err != nil {
		return action.Services{}, fmt.Errorf("creating issue tracker: %w", err)
	}

	records, err := record_store.NewAirtableRecordStoreService(record_store.AirtableConfig{
		APIKey:       cfg.Airtable.APIKey,
		Base:         cfg.Airtable.Base,
		RequestTable: cfg.Airtable.RequestTable,
		StaffTable:   cfg.Airtable.StaffTable,
		OwnerField:   cfg.Airtable.OwnerField,
	})
	if err != nil {
		return action.Services{}, fmt.Errorf("creating record store: %w", err)
	}

	svc := action.Services{
		Tracker: tracker,
		Records: records,
		Messaging: messaging.NewSlackMessagingService(messaging.SlackConfig{
			Token:    cfg.Slack.Token,
			BotToken: cfg.Slack.BotToken,
		}),
	}

	if cfg.Drive.Ready() {
		storage, err := file_storage.NewDriveFileStorageService(ctx, file_storage.DriveConfig{
			CredentialsJSON: cfg.Drive.CredentialsJSON,
		})
		if err != nil {
			return action.Services{}, fmt.Errorf("creating file storage: %w", err)
		}
		svc.Storage = storage
	}

	return svc, nil
}

func (s *Services) actionConfig() action.Config {
	return action.Config{
		Owner:         s.cfg.GitHub.Owner,
		Repository:    s.cfg.GitHub.Repository,
		Namespace:     s.cfg.Team.Namespace,
		Managers:      s.cfg.Team.Managers,
		OwnerField:    s.cfg.Airtable.OwnerField,
		RecordViewURL: s.cfg.Airtable.ViewEndpoint,
		DriveURL:      s.cfg.Drive.URL,
		DriveWorkDir:  s.cfg.Drive.WorkDir,
		Lookup: retry.Policy{
			MaxAttempts:     s.cfg.Retry.MaxAttempts,
			InitialInterval: s.cfg.Retry.InitialInterval,
			MaxInterval:     s.cfg.Retry.MaxInterval,
		},
		Location: s.cfg.Schedule.Location(),
		Now:      s.now,
	}
}

func (s *Services) Registry(ctx context.Context) (*action.Registry, error) {
	adapters, err := s.Adapters(ctx)
	if err != nil {
		return nil, err
	}
	return action.NewRegistry(adapters, s.actionConfig()), nil
}

func (s *Services) Sweeper(ctx context.Context) (SweeperService, error) {
	adapters, err := s.Adapters(ctx)
	if err != nil {
		return nil, err
	}
	recordSync := action.NewRecordSync(adapters.Records, s.cfg.Schedule.Location(), s.now)
	return NewSweeperService(adapters.Tracker, adapters.Records, recordSync, SweeperConfig{
		CardRetention: s.cfg.Schedule.CardRetention,
		Now:           s.now,
	}, nil), nil
}
