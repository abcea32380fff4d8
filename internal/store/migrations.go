package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "nodes: knowledge graph facts, entities, concepts, events",
		SQL: `
CREATE TABLE nodes (
    id            TEXT PRIMARY KEY,
    type          TEXT NOT NULL CHECK (type IN ('entity', 'concept', 'event', 'source')),
    label         TEXT NOT NULL CHECK (label != ''),
    content       TEXT NOT NULL DEFAULT '',

    -- Belief strength, decayed by the dream pass, boosted by touch
    confidence    REAL NOT NULL DEFAULT 1.0 CHECK (confidence >= 0.0 AND confidence <= 1.0),

    -- JSON arrays
    tags          TEXT NOT NULL DEFAULT '[]',
    source_ids    TEXT NOT NULL DEFAULT '[]',

    access_count  INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL
);

CREATE INDEX idx_nodes_type       ON nodes(type);
CREATE INDEX idx_nodes_confidence ON nodes(confidence DESC);
CREATE INDEX idx_nodes_accessed   ON nodes(last_accessed);
`,
	},
	{
		Version:     2,
		Description: "edges: typed weighted relationships, cascade on node delete",
		SQL: `
CREATE TABLE edges (
    id                TEXT PRIMARY KEY,
    source            TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    target            TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    type              TEXT NOT NULL,
    weight            REAL NOT NULL DEFAULT 0.5 CHECK (weight >= 0.0 AND weight <= 1.0),

    -- JSON array of supporting references
    context_ids       TEXT NOT NULL DEFAULT '[]',

    -- Only meaningful for 'contradicts' edges
    resolution_status TEXT,

    created_at        INTEGER NOT NULL,
    last_reinforced   INTEGER NOT NULL
);

CREATE INDEX idx_edges_source     ON edges(source);
CREATE INDEX idx_edges_target     ON edges(target);
CREATE INDEX idx_edges_type       ON edges(type);
CREATE INDEX idx_edges_resolution ON edges(type, resolution_status);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
