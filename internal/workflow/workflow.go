// Package workflow orchestrates one reconciliation run: acquire a token,
// diff the remote catalog against persisted state, ingest every new item into
// the database and the mirror repository, then regenerate the version index.
//
// There is no saved run state. A crashed or re-triggered run re-executes the
// whole workflow; safety rests on every step converging when re-run over
// already-applied effects (existence checks before inserts, content compares
// before commits).
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/simplyzetax/habanero/internal/changeset"
	"github.com/simplyzetax/habanero/internal/gitrepo"
	"github.com/simplyzetax/habanero/internal/models"
	"github.com/simplyzetax/habanero/internal/step"
)

// StableBranch is the branch carrying the full mirror and the version index.
const StableBranch = "main"

// TokenSource provides upstream bearer tokens.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// Catalog lists and fetches remote items.
type Catalog interface {
	ListSystemFiles(ctx context.Context, token string) ([]models.CatalogEntry, error)
	FileContents(ctx context.Context, token, uniqueFilename string) (string, error)
	Version(ctx context.Context, token string) (models.VersionInfo, error)
}

// Store is the persistence sink.
type Store interface {
	ExistsByHash256(hash256 string) (bool, error)
	InsertHotfix(h models.Hotfix) (bool, error)
	DistinctVersions() ([]string, error)
}

// Mirror is the repository sink.
type Mirror interface {
	EnsureBranch(name, placeholderPath, placeholderContent string) error
	WriteFiles(branch string, files []gitrepo.FileChange, message string) (int, error)
	PushReadme(branch, content, message string) (bool, error)
}

// Policies holds the retry policy of every named step.
type Policies struct {
	Credentials step.Policy
	Version     step.Policy
	List        step.Policy
	Branches    step.Policy
	Resolve     step.Policy
	Item        step.Policy
	Fetch       step.Policy
	Insert      step.Policy
	Push        step.Policy
	Readme      step.Policy
}

// DefaultPolicies returns the production retry policies.
func DefaultPolicies() Policies {
	return Policies{
		Credentials: step.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: step.Exponential, Timeout: 2 * time.Minute},
		Version:     step.Policy{MaxAttempts: 5, Delay: 3 * time.Second, Backoff: step.Exponential, Timeout: 5 * time.Minute},
		List:        step.Policy{MaxAttempts: 5, Delay: 3 * time.Second, Backoff: step.Exponential, Timeout: 5 * time.Minute},
		Branches:    step.Policy{MaxAttempts: 5, Delay: 5 * time.Second, Backoff: step.Exponential, Timeout: 5 * time.Minute},
		Resolve:     step.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: step.Exponential, Timeout: 2 * time.Minute},
		Item:        step.Policy{MaxAttempts: 3, Delay: 5 * time.Second, Backoff: step.Exponential, Timeout: 10 * time.Minute},
		Fetch:       step.Policy{MaxAttempts: 3, Delay: 3 * time.Second, Backoff: step.Exponential, Timeout: 5 * time.Minute},
		Insert:      step.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: step.Exponential, Timeout: 2 * time.Minute},
		Push:        step.Policy{MaxAttempts: 5, Delay: 5 * time.Second, Backoff: step.Exponential, Timeout: 5 * time.Minute},
		Readme:      step.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: step.Exponential, Timeout: 2 * time.Minute},
	}
}

// ItemResult is the outcome of one catalog entry within a run.
type ItemResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Version  string `json:"version,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RunReport is the aggregate outcome of one run.
type RunReport struct {
	Success bool         `json:"success"`
	Version string       `json:"version,omitempty"`
	Items   []ItemResult `json:"items,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

// Engine wires the collaborators of the reconciliation workflow.
type Engine struct {
	Tokens   TokenSource
	Catalog  Catalog
	Store    Store
	Mirror   Mirror
	Policies Policies
}

// New builds an Engine with default policies.
func New(tokens TokenSource, catalog Catalog, store Store, mirror Mirror) *Engine {
	return &Engine{
		Tokens:   tokens,
		Catalog:  catalog,
		Store:    store,
		Mirror:   mirror,
		Policies: DefaultPolicies(),
	}
}

// itemOutcome carries a per-item result plus its pending file write.
type itemOutcome struct {
	result ItemResult
	change *gitrepo.FileChange
}

// Run executes the workflow once. A failed non-per-item step aborts the run
// and is reported as the run's reason; a failed item is recorded in the
// report and the run continues with the remaining items.
func (e *Engine) Run(ctx context.Context) (RunReport, error) {
	token, err := step.Do(ctx, "get-client-credentials", e.Policies.Credentials, func(ctx context.Context) (string, error) {
		return e.Tokens.GetToken(ctx)
	})
	if err != nil {
		return failed(err), err
	}

	info, err := step.Do(ctx, "get-version", e.Policies.Version, func(ctx context.Context) (models.VersionInfo, error) {
		return e.Catalog.Version(ctx, token)
	})
	if err != nil {
		return failed(err), err
	}
	label := info.Version
	if label == "" {
		label = models.VersionUnknown
	}
	versionBranch := "version-" + label
	slog.Info("run started", "version", label, "build", info.Build)

	entries, err := step.Do(ctx, "get-hotfix-list", e.Policies.List, func(ctx context.Context) ([]models.CatalogEntry, error) {
		return e.Catalog.ListSystemFiles(ctx, token)
	})
	if err != nil {
		return failed(err), err
	}

	_, err = step.Do(ctx, "ensure-branches", e.Policies.Branches, func(ctx context.Context) (struct{}, error) {
		if err := e.Mirror.EnsureBranch(StableBranch, "README.md", renderIndex(nil)); err != nil {
			return struct{}{}, err
		}
		readme := renderVersionReadme(label)
		if err := e.Mirror.EnsureBranch(versionBranch, "README.md", readme); err != nil {
			return struct{}{}, err
		}
		_, err := e.Mirror.PushReadme(versionBranch, readme, fmt.Sprintf("Update README for version %s", label))
		return struct{}{}, err
	})
	if err != nil {
		return failed(err), err
	}

	fresh, err := step.Do(ctx, "resolve-change-set", e.Policies.Resolve, func(ctx context.Context) ([]models.CatalogEntry, error) {
		return changeset.Resolve(entries, e.Store.ExistsByHash256)
	})
	if err != nil {
		return failed(err), err
	}
	slog.Info("change set resolved", "remote", len(entries), "new", len(fresh))

	var results []ItemResult
	var files []gitrepo.FileChange
	for _, entry := range fresh {
		entry := entry
		outcome, err := step.Do(ctx, "process-hotfix-"+entry.Filename, e.Policies.Item, func(ctx context.Context) (itemOutcome, error) {
			return e.processEntry(ctx, token, entry, label)
		})
		if err != nil {
			// Failure isolation: this item is spent, the run continues.
			results = append(results, ItemResult{Success: false, Filename: entry.Filename, Version: label, Reason: err.Error()})
			if ctx.Err() != nil {
				return failed(ctx.Err()), ctx.Err()
			}
			continue
		}
		results = append(results, outcome.result)
		if outcome.change != nil {
			files = append(files, *outcome.change)
		}
	}

	if len(files) > 0 {
		message := fmt.Sprintf("Update %d hotfixes for version %s", len(files), label)
		_, err = step.Do(ctx, "push-hotfixes", e.Policies.Push, func(ctx context.Context) (int, error) {
			if _, err := e.Mirror.WriteFiles(versionBranch, files, message); err != nil {
				return 0, err
			}
			return e.Mirror.WriteFiles(StableBranch, files, message)
		})
		if err != nil {
			return RunReport{Success: false, Version: label, Items: results, Reason: err.Error()}, err
		}
	}

	_, err = step.Do(ctx, "update-readme", e.Policies.Readme, func(ctx context.Context) (bool, error) {
		versions, err := e.Store.DistinctVersions()
		if err != nil {
			return false, err
		}
		sortVersions(versions)
		return e.Mirror.PushReadme(StableBranch, renderIndex(versions), "Update hotfix index")
	})
	if err != nil {
		return RunReport{Success: false, Version: label, Items: results, Reason: err.Error()}, err
	}

	slog.Info("run finished", "version", label, "items", len(results), "written", len(files))
	return RunReport{Success: true, Version: label, Items: results}, nil
}

// processEntry ingests one catalog entry. Soft outcomes (already persisted,
// empty contents) return a failed ItemResult without error so the step is not
// retried; real failures return an error for the retry loop.
func (e *Engine) processEntry(ctx context.Context, token string, entry models.CatalogEntry, label string) (itemOutcome, error) {
	exists, err := e.Store.ExistsByHash256(entry.Hash256)
	if err != nil {
		return itemOutcome{}, err
	}
	if exists {
		slog.Warn("hotfix already in database, skipping", "filename", entry.Filename)
		return itemOutcome{result: ItemResult{Success: false, Filename: entry.Filename, Version: label, Reason: "already exists"}}, nil
	}

	contents, err := step.Do(ctx, "fetch-hotfix-contents-"+entry.Filename, e.Policies.Fetch, func(ctx context.Context) (string, error) {
		return e.Catalog.FileContents(ctx, token, entry.UniqueFilename)
	})
	if err != nil {
		return itemOutcome{}, err
	}
	if len(contents) == 0 {
		slog.Warn("hotfix has empty contents, skipping", "filename", entry.Filename)
		return itemOutcome{result: ItemResult{Success: false, Filename: entry.Filename, Version: label, Reason: "empty contents"}}, nil
	}

	_, err = step.Do(ctx, "insert-hotfix-"+entry.Filename, e.Policies.Insert, func(ctx context.Context) (bool, error) {
		return e.Store.InsertHotfix(models.NewHotfix(entry, contents, label))
	})
	if err != nil {
		return itemOutcome{}, err
	}

	return itemOutcome{
		result: ItemResult{Success: true, Filename: entry.Filename, Version: label},
		change: &gitrepo.FileChange{Path: "hotfixes/" + entry.Filename + ".ini", Content: contents},
	}, nil
}

func failed(err error) RunReport {
	return RunReport{Success: false, Reason: err.Error()}
}
