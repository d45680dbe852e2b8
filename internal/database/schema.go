package database

const catalogSchema = `
CREATE TABLE items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	target TEXT NOT NULL DEFAULT '',
	args TEXT NOT NULL DEFAULT '',
	origin TEXT NOT NULL,
	cover TEXT NOT NULL DEFAULT '',
	banner TEXT NOT NULL DEFAULT '',
	logo TEXT NOT NULL DEFAULT '',
	hero TEXT NOT NULL DEFAULT '',
	last_played INTEGER NOT NULL DEFAULT 0,
	installed_at INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_items_origin ON items(origin);
CREATE INDEX idx_items_last_played ON items(last_played);

CREATE TABLE item_groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	settings TEXT,
	position INTEGER NOT NULL
);

CREATE INDEX idx_groups_position ON item_groups(position);

CREATE TABLE group_items (
	group_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (group_id, item_id),
	FOREIGN KEY (group_id) REFERENCES item_groups(id) ON DELETE CASCADE,
	FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX idx_group_items_item ON group_items(item_id);
`

// catalogMigrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// catalogMigrations[0] is empty because version 0 uses the base schema
var catalogMigrations = []string{
	"",
}
