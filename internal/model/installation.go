package model

import "time"

// Installation is one configured Redmine connection plus its operational
// defaults. It is uniquely keyed by the normalized Redmine URL; a second
// setup run against the same URL must abort instead of creating a second
// row. The API key is not part of the row: it lives in the system keyring
// under the installation ID.
type Installation struct {
	// ID is the unique identifier for this installation.
	ID string `db:"id"`

	// RedmineURL is the normalized root URL of the Redmine instance
	// (explicit scheme, no trailing slash).
	RedmineURL string `db:"redmine_url"`

	// DefaultProjectID is the project identifier used when a create-issue
	// call supplies none.
	DefaultProjectID string `db:"default_project_id"`

	// DefaultTrackerID is the tracker used when a call supplies none.
	DefaultTrackerID int `db:"default_tracker_id"`

	// DefaultPriorityID is the priority chosen during setup. A zero value
	// means "unset"; the service path then falls back to the hard-coded
	// client default rather than this field.
	DefaultPriorityID int `db:"default_priority_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Title returns the user-facing label for the installation.
func (i Installation) Title() string {
	return "Redmine (" + i.RedmineURL + ")"
}
