package store

import (
	"context"

	"github.com/nhle/redmine-bridge/internal/model"
)

// Store defines the persistence interface for installations. One row exists
// per configured Redmine instance, uniquely keyed by normalized URL.
type Store interface {
	CreateInstallation(ctx context.Context, inst model.Installation) (*model.Installation, error)
	GetInstallations(ctx context.Context) ([]model.Installation, error)
	GetInstallationByID(ctx context.Context, id string) (*model.Installation, error)

	// GetInstallationByURL looks up an installation by its normalized
	// Redmine URL. Returns (nil, nil) when no installation matches.
	GetInstallationByURL(ctx context.Context, redmineURL string) (*model.Installation, error)

	DeleteInstallation(ctx context.Context, id string) error
}
