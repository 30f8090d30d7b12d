package postgres

// Schema creates the tables read by the repository. Statements are
// idempotent so Migrate can run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS content_item (
	id                 UUID PRIMARY KEY,
	content_type_alias TEXT NOT NULL,
	revision           BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS property_value (
	content_id     UUID NOT NULL REFERENCES content_item (id) ON DELETE CASCADE,
	property_alias TEXT NOT NULL,
	value          TEXT,
	PRIMARY KEY (content_id, property_alias)
);

CREATE TABLE IF NOT EXISTS property_type (
	content_type_alias TEXT NOT NULL,
	alias              TEXT NOT NULL,
	editor_alias       TEXT NOT NULL,
	configuration      JSONB,
	sort_order         INT NOT NULL DEFAULT 0,
	PRIMARY KEY (content_type_alias, alias)
);

CREATE TABLE IF NOT EXISTS media_entity (
	key                UUID NOT NULL,
	published          BOOLEAN NOT NULL,
	content_type_alias TEXT NOT NULL,
	name               TEXT NOT NULL DEFAULT '',
	file_path          TEXT NOT NULL DEFAULT '',
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (key, published)
);
`
