package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/redmine-bridge/internal/model"
)

// CreateInstallation inserts a new installation and returns the stored row.
// The unique index on redmine_url is the last line of defense against
// duplicates; callers are expected to check GetInstallationByURL first.
func (s *SQLiteStore) CreateInstallation(
	ctx context.Context,
	inst model.Installation,
) (*model.Installation, error) {
	if strings.TrimSpace(inst.RedmineURL) == "" {
		return nil, fmt.Errorf("installation URL must not be empty")
	}
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO installations (
			id, redmine_url, default_project_id,
			default_tracker_id, default_priority_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.RedmineURL, inst.DefaultProjectID,
		inst.DefaultTrackerID, inst.DefaultPriorityID,
		inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating installation for %s: %w", inst.RedmineURL, err)
	}
	return &inst, nil
}

// GetInstallations returns all installations, oldest first.
func (s *SQLiteStore) GetInstallations(ctx context.Context) ([]model.Installation, error) {
	var installs []model.Installation
	err := s.db.SelectContext(ctx, &installs,
		"SELECT * FROM installations ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("listing installations: %w", err)
	}
	return installs, nil
}

// GetInstallationByID returns the installation with the given ID.
func (s *SQLiteStore) GetInstallationByID(
	ctx context.Context,
	id string,
) (*model.Installation, error) {
	var inst model.Installation
	err := s.db.GetContext(ctx, &inst,
		"SELECT * FROM installations WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("installation %s not found", id)
		}
		return nil, fmt.Errorf("getting installation %s: %w", id, err)
	}
	return &inst, nil
}

// GetInstallationByURL returns the installation configured for the given
// normalized Redmine URL, or (nil, nil) when none exists.
func (s *SQLiteStore) GetInstallationByURL(
	ctx context.Context,
	redmineURL string,
) (*model.Installation, error) {
	var inst model.Installation
	err := s.db.GetContext(ctx, &inst,
		"SELECT * FROM installations WHERE redmine_url = ?", redmineURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting installation for %s: %w", redmineURL, err)
	}
	return &inst, nil
}

// DeleteInstallation removes an installation.
func (s *SQLiteStore) DeleteInstallation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM installations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting installation %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("installation %s not found", id)
	}
	return nil
}
