package db

// SchemaVersion is the current database schema version
const SchemaVersion = 1

// Uniqueness on hash256 is enforced by the insert path's existence check, not
// by the schema. Two overlapping runs can still both observe "absent" and
// insert the same hash; deployments with concurrent runs need a UNIQUE index
// here.
const schema = `
-- Hotfixes table
CREATE TABLE IF NOT EXISTS hotfixes (
    id TEXT PRIMARY KEY,
    unique_filename TEXT NOT NULL,
    filename TEXT NOT NULL,
    hash TEXT NOT NULL,
    hash256 TEXT NOT NULL,
    length INTEGER NOT NULL,
    contents TEXT NOT NULL,
    scraped_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    version TEXT
);

CREATE INDEX IF NOT EXISTS idx_hotfixes_unique_filename ON hotfixes(unique_filename);
CREATE INDEX IF NOT EXISTS idx_hotfixes_filename ON hotfixes(filename);
CREATE INDEX IF NOT EXISTS idx_hotfixes_scraped_at ON hotfixes(scraped_at);
CREATE INDEX IF NOT EXISTS idx_hotfixes_hash256 ON hotfixes(hash256);

-- Schema metadata
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
