package catalog

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS songs (
			id INTEGER PRIMARY KEY,
			uri TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			duration INTEGER NOT NULL DEFAULT 0,
			album_id INTEGER,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			play_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title);
		CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album_id);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}
