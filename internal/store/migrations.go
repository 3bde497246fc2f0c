package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS installations (
	id                  TEXT PRIMARY KEY,
	redmine_url         TEXT NOT NULL,
	default_project_id  TEXT NOT NULL DEFAULT '',
	default_tracker_id  INTEGER NOT NULL DEFAULT 1,
	default_priority_id INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_installations_redmine_url
	ON installations(redmine_url);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
