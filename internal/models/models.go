package models

import (
	"fmt"
	"time"
)

// VersionUnknown is stored when the upstream version endpoint did not
// report a usable version label.
const VersionUnknown = "unknown"

// StorageIDs holds the catalog's storage backend identifiers for an entry.
type StorageIDs struct {
	DSS string `json:"DSS"`
}

// CatalogEntry is one file as reported by the upstream cloud storage listing.
// Hash256 is the canonical identity of the entry's contents: two entries with
// equal Hash256 carry the same content regardless of their UniqueFilename.
type CatalogEntry struct {
	UniqueFilename string     `json:"uniqueFilename"`
	Filename       string     `json:"filename"`
	Hash           string     `json:"hash"`
	Hash256        string     `json:"hash256"`
	Length         int64      `json:"length"`
	ContentType    string     `json:"contentType"`
	Uploaded       string     `json:"uploaded"`
	StorageType    string     `json:"storageType"`
	StorageIDs     StorageIDs `json:"storageIds"`
	DoNotCache     bool       `json:"doNotCache"`
}

// Validate checks the fields the ingest pipeline depends on.
func (e CatalogEntry) Validate() error {
	if e.UniqueFilename == "" {
		return fmt.Errorf("catalog entry: uniqueFilename is empty")
	}
	if e.Filename == "" {
		return fmt.Errorf("catalog entry %s: filename is empty", e.UniqueFilename)
	}
	if e.Hash == "" {
		return fmt.Errorf("catalog entry %s: hash is empty", e.UniqueFilename)
	}
	if e.Hash256 == "" {
		return fmt.Errorf("catalog entry %s: hash256 is empty", e.UniqueFilename)
	}
	if e.Length < 0 {
		return fmt.Errorf("catalog entry %s: negative length %d", e.UniqueFilename, e.Length)
	}
	return nil
}

// VersionModule is one entry of the version endpoint's modules map.
type VersionModule struct {
	CLN       string `json:"cln"`
	Build     string `json:"build"`
	BuildDate string `json:"buildDate"`
	Version   string `json:"version"`
	Branch    string `json:"branch"`
}

// VersionInfo is the upstream version/release descriptor. Only Version feeds
// into branch naming and persisted rows; the rest is kept for logging.
type VersionInfo struct {
	App                       string                   `json:"app"`
	ServerDate                string                   `json:"serverDate"`
	OverridePropertiesVersion string                   `json:"overridePropertiesVersion"`
	CLN                       string                   `json:"cln"`
	Build                     string                   `json:"build"`
	ModuleName                string                   `json:"moduleName"`
	BuildDate                 string                   `json:"buildDate"`
	Version                   string                   `json:"version"`
	Branch                    string                   `json:"branch"`
	Modules                   map[string]VersionModule `json:"modules"`
}

// Validate checks the fields downstream consumers rely on.
func (v VersionInfo) Validate() error {
	if v.Version == "" {
		return fmt.Errorf("version info: version is empty")
	}
	return nil
}

// Hotfix is one fully ingested catalog entry as persisted in the database.
type Hotfix struct {
	ID             string
	UniqueFilename string
	Filename       string
	Hash           string
	Hash256        string
	Length         int64
	Contents       string
	ScrapedAt      time.Time
	Version        string
}

// NewHotfix builds a Hotfix row from a catalog entry and its fetched
// contents. ID and ScrapedAt are assigned by the store on insert.
func NewHotfix(e CatalogEntry, contents, version string) Hotfix {
	if version == "" {
		version = VersionUnknown
	}
	return Hotfix{
		UniqueFilename: e.UniqueFilename,
		Filename:       e.Filename,
		Hash:           e.Hash,
		Hash256:        e.Hash256,
		Length:         e.Length,
		Contents:       contents,
		Version:        version,
	}
}
