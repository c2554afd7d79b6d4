package file_storage

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"basegraph.app/studiobot/internal/model"
)

const folderMimeType = "application/vnd.google-apps.folder"

type DriveConfig struct {
	CredentialsJSON string
	// Endpoint overrides the Drive API endpoint; it disables authentication.
	Endpoint string
}

type driveFileStorageService struct {
	files *drive.FilesService
}

func NewDriveFileStorageService(ctx context.Context, cfg DriveConfig) (FileStorageService, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	} else {
		opts = append(opts,
			option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
			option.WithScopes(drive.DriveScope))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}
	return &driveFileStorageService{files: svc.Files}, nil
}

func (s *driveFileStorageService) FindOrCreateFolder(ctx context.Context, name, parentID string) (*model.Folder, error) {
	q := fmt.Sprintf("mimeType = '%s' and name = '%s' and trashed = false", folderMimeType, escapeQuery(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	list, err := s.files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching folder %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return &model.Folder{ID: list.Files[0].Id, Name: list.Files[0].Name}, nil
	}

	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	created, err := s.files.Create(folder).
		Fields("id, name").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return &model.Folder{ID: created.Id, Name: created.Name}, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
