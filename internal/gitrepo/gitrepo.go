// Package gitrepo mirrors ingested files into branches of a bare git
// repository. Writes are content-compared against the stored blobs so that
// re-running an ingest produces no new commits, and multiple file writes are
// batched into a single commit per branch.
package gitrepo

import (
	"errors"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	// DefaultAuthorName is used for commit signatures when none is configured.
	DefaultAuthorName = "habanero"

	// DefaultAuthorEmail is used for commit signatures when none is configured.
	DefaultAuthorEmail = "habanero@localhost"
)

// Options configures the repository location and commit identity.
type Options struct {
	// FS is the REQUIRED filesystem holding the bare repository
	// (OS-backed in production, in-memory in tests).
	FS billy.Filesystem

	// AuthorName and AuthorEmail form the commit signature.
	AuthorName  string
	AuthorEmail string

	// Now supplies commit timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidOptions, "FS is required")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.AuthorName == "" {
		o.AuthorName = DefaultAuthorName
	}
	if o.AuthorEmail == "" {
		o.AuthorEmail = DefaultAuthorEmail
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// FileChange is one file write within a batched commit.
type FileChange struct {
	Path    string
	Content string
}

// Repo is a handle to the mirror repository.
type Repo struct {
	repo *git.Repository
	opts Options
}

// New opens the bare repository on opts.FS, initializing it when absent.
func New(opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	storage := filesystem.NewStorage(opts.FS, cache.NewObjectLRUDefault())

	repo, err := git.Open(storage, nil)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.Init(storage, nil)
	}
	if err != nil {
		return nil, WrapError(err, "open repository")
	}

	return &Repo{repo: repo, opts: *opts}, nil
}

// signature builds the commit signature with the current clock reading.
func (r *Repo) signature() object.Signature {
	return object.Signature{
		Name:  r.opts.AuthorName,
		Email: r.opts.AuthorEmail,
		When:  r.opts.Now(),
	}
}
