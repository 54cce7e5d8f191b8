package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/simplyzetax/habanero/internal/models"
)

// ExistsByHash256 reports whether a row with the given content hash exists.
func (db *DB) ExistsByHash256(hash256 string) (bool, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM hotfixes WHERE hash256 = ?", hash256).Scan(&count); err != nil {
		return false, fmt.Errorf("check hash256: %w", err)
	}
	return count > 0, nil
}

// InsertHotfix appends a new hotfix row. The existence of the content hash is
// re-checked inside the insert transaction; a row that appeared since the
// caller's check makes this a soft skip (inserted=false), not an error. This
// shrinks the window between resolve and insert, it does not close it.
func (db *DB) InsertHotfix(h models.Hotfix) (inserted bool, err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM hotfixes WHERE hash256 = ?", h.Hash256).Scan(&count); err != nil {
		return false, fmt.Errorf("recheck hash256: %w", err)
	}
	if count > 0 {
		slog.Warn("hotfix already persisted, skipping insert", "filename", h.Filename, "hash256", h.Hash256)
		return false, nil
	}

	id := h.ID
	if id == "" {
		id, err = generateID()
		if err != nil {
			return false, fmt.Errorf("generate id: %w", err)
		}
	}
	scrapedAt := h.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	version := h.Version
	if version == "" {
		version = models.VersionUnknown
	}

	_, err = tx.Exec(
		`INSERT INTO hotfixes (id, unique_filename, filename, hash, hash256, length, contents, scraped_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, h.UniqueFilename, h.Filename, h.Hash, h.Hash256, h.Length, h.Contents,
		scrapedAt.Format(time.RFC3339), version,
	)
	if err != nil {
		return false, fmt.Errorf("insert hotfix: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// DistinctVersions returns every known version label, excluding NULL, empty
// and "unknown" entries.
func (db *DB) DistinctVersions() ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT version FROM hotfixes WHERE version IS NOT NULL AND version != '' AND version != ?",
		models.VersionUnknown,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CountHotfixes returns the total number of persisted rows.
func (db *DB) CountHotfixes() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM hotfixes").Scan(&count); err != nil {
		return 0, fmt.Errorf("count hotfixes: %w", err)
	}
	return count, nil
}

// HotfixByHash256 returns the persisted row for the given content hash.
func (db *DB) HotfixByHash256(hash256 string) (*models.Hotfix, error) {
	var h models.Hotfix
	var scrapedAt string
	var version sql.NullString
	err := db.conn.QueryRow(
		`SELECT id, unique_filename, filename, hash, hash256, length, contents, scraped_at, version
		 FROM hotfixes WHERE hash256 = ? LIMIT 1`, hash256,
	).Scan(&h.ID, &h.UniqueFilename, &h.Filename, &h.Hash, &h.Hash256, &h.Length, &h.Contents, &scrapedAt, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hotfix: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, scrapedAt); perr == nil {
		h.ScrapedAt = t
	}
	if version.Valid {
		h.Version = version.String
	}
	return &h, nil
}
