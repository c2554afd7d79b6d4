package file_storage

import (
	"context"

	"basegraph.app/studiobot/internal/model"
)

type FileStorageService interface {
	// FindOrCreateFolder returns the folder called name under parentID, creating it when
	// absent. An empty parentID means the drive root.
	FindOrCreateFolder(ctx context.Context, name, parentID string) (*model.Folder, error)
}
