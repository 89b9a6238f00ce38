package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// item_claims.person_id intentionally has no foreign key: claims are weak
// references swept by DeleteClaimsForPerson.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    tax TEXT NOT NULL DEFAULT '0',
    tip TEXT NOT NULL DEFAULT '0',
    tax_split_mode TEXT NOT NULL DEFAULT 'EQUAL',
    tip_split_mode TEXT NOT NULL DEFAULT 'EQUAL',
    bill_image TEXT,
    bill_parsed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS people (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    name TEXT NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit_price TEXT NOT NULL,
    total_price TEXT NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_claims (
    item_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    quantity TEXT NOT NULL,
    PRIMARY KEY (item_id, person_id),
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_people_event_id ON people(event_id);
CREATE INDEX IF NOT EXISTS idx_items_event_id ON items(event_id);
CREATE INDEX IF NOT EXISTS idx_item_claims_person_id ON item_claims(person_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
