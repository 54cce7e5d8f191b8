package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/simplyzetax/habanero/internal/auth"
	"github.com/simplyzetax/habanero/internal/config"
	"github.com/simplyzetax/habanero/internal/db"
	"github.com/simplyzetax/habanero/internal/epic"
	"github.com/simplyzetax/habanero/internal/gitrepo"
	"github.com/simplyzetax/habanero/internal/workflow"
)

// buildEngine wires the workflow engine from config: credential provider,
// catalog client, database and mirror repository. The returned cleanup closes
// the database.
func buildEngine(cfg *config.Config) (*workflow.Engine, *db.DB, func(), error) {
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := os.MkdirAll(cfg.RepoPath, 0755); err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("create repo dir: %w", err)
	}
	mirror, err := gitrepo.New(&gitrepo.Options{
		FS:          osfs.New(filepath.Clean(cfg.RepoPath)),
		AuthorName:  cfg.Author.Name,
		AuthorEmail: cfg.Author.Email,
	})
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("open mirror repository: %w", err)
	}

	tokens := auth.NewProvider(cfg.Epic.TokenURL, cfg.Epic.ClientID, cfg.Epic.ClientSecret)
	catalog := epic.New(cfg.Epic.APIBaseURL)

	engine := workflow.New(tokens, catalog, store, mirror)
	cleanup := func() { store.Close() }
	return engine, store, cleanup, nil
}
