package db

import (
	"testing"

	"github.com/simplyzetax/habanero/internal/models"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testHotfix(filename, hash256, version string) models.Hotfix {
	return models.Hotfix{
		UniqueFilename: "uf-" + filename,
		Filename:       filename,
		Hash:           "weak-" + hash256,
		Hash256:        hash256,
		Length:         42,
		Contents:       "[section]\nkey=value\n",
		Version:        version,
	}
}

func TestInsertAndExists(t *testing.T) {
	db := setupDB(t)

	exists, err := db.ExistsByHash256("h1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("hash should not exist yet")
	}

	inserted, err := db.InsertHotfix(testHotfix("DefaultGame.ini", "h1", "31.20"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("insert reported skipped")
	}

	exists, err = db.ExistsByHash256("h1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("hash should exist after insert")
	}
}

func TestInsertDuplicateHashIsSoftSkip(t *testing.T) {
	db := setupDB(t)

	if _, err := db.InsertHotfix(testHotfix("DefaultGame.ini", "h1", "31.20")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same content hash under a different catalog key must not produce a
	// second row, and must not error.
	inserted, err := db.InsertHotfix(testHotfix("OtherName.ini", "h1", "31.20"))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert reported inserted=true")
	}

	count, err := db.CountHotfixes()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestInsertAssignsIDAndScrapedAt(t *testing.T) {
	db := setupDB(t)

	if _, err := db.InsertHotfix(testHotfix("DefaultGame.ini", "h1", "31.20")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h, err := db.HotfixByHash256("h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h == nil {
		t.Fatal("row not found")
	}
	if len(h.ID) != len("hf-")+16 || h.ID[:3] != "hf-" {
		t.Errorf("id = %q", h.ID)
	}
	if h.ScrapedAt.IsZero() {
		t.Error("scraped_at not set")
	}
	if h.Version != "31.20" {
		t.Errorf("version = %q", h.Version)
	}
}

func TestInsertEmptyVersionStoredAsUnknown(t *testing.T) {
	db := setupDB(t)

	if _, err := db.InsertHotfix(testHotfix("DefaultGame.ini", "h1", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h, err := db.HotfixByHash256("h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h.Version != models.VersionUnknown {
		t.Errorf("version = %q, want unknown", h.Version)
	}
}

func TestDistinctVersions(t *testing.T) {
	db := setupDB(t)

	for i, hf := range []models.Hotfix{
		testHotfix("a.ini", "h1", "31.20"),
		testHotfix("b.ini", "h2", "31.20"),
		testHotfix("c.ini", "h3", "30.10"),
		testHotfix("d.ini", "h4", ""),
	} {
		if _, err := db.InsertHotfix(hf); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	versions, err := db.DistinctVersions()
	if err != nil {
		t.Fatalf("distinct versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %v, want two labels", versions)
	}
	seen := map[string]bool{}
	for _, v := range versions {
		seen[v] = true
	}
	if !seen["31.20"] || !seen["30.10"] {
		t.Errorf("versions = %v", versions)
	}
}

func TestHotfixByHash256Missing(t *testing.T) {
	db := setupDB(t)

	h, err := db.HotfixByHash256("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h != nil {
		t.Errorf("h = %+v, want nil", h)
	}
}
