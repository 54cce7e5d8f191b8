// Package config loads the service configuration from a JSON file with
// environment overrides for anything secret or deployment-specific.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults point at the public upstream endpoints. The client credentials are
// the well-known public launcher pair; override them via environment for any
// other account.
const (
	DefaultTokenURL   = "https://account-public-service-prod.ol.epicgames.com/account/api/oauth/token"
	DefaultAPIBaseURL = "https://fngw-mcp-gc-livefn.ol.epicgames.com"

	defaultClientID     = "ec684b8c687f479fadea3cb2ad83f5c6"
	defaultClientSecret = "e1f31c211f28413186262d37a13fc84d"
)

// Epic holds the upstream endpoint and credential settings.
type Epic struct {
	TokenURL     string `json:"token_url"`
	APIBaseURL   string `json:"api_base_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Author is the commit identity used by the repository sink.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Config is the full service configuration.
type Config struct {
	Epic       Epic   `json:"epic"`
	DBPath     string `json:"db_path"`
	RepoPath   string `json:"repo_path"`
	ListenAddr string `json:"listen_addr"`
	Author     Author `json:"author"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Epic: Epic{
			TokenURL:     DefaultTokenURL,
			APIBaseURL:   DefaultAPIBaseURL,
			ClientID:     defaultClientID,
			ClientSecret: defaultClientSecret,
		},
		DBPath:     "data/hotfixes.db",
		RepoPath:   "data/mirror.git",
		ListenAddr: ":8080",
		Author:     Author{Name: "habanero", Email: "habanero@localhost"},
	}
}

// Load reads the config file, falling back to defaults when it does not
// exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

func (c *Config) applyEnv() {
	override(&c.Epic.TokenURL, "HABANERO_TOKEN_URL")
	override(&c.Epic.APIBaseURL, "HABANERO_API_BASE_URL")
	override(&c.Epic.ClientID, "HABANERO_CLIENT_ID")
	override(&c.Epic.ClientSecret, "HABANERO_CLIENT_SECRET")
	override(&c.DBPath, "HABANERO_DB_PATH")
	override(&c.RepoPath, "HABANERO_REPO_PATH")
	override(&c.ListenAddr, "HABANERO_LISTEN_ADDR")
}

func override(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}
