package gitrepo

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// EnsureBranch creates the branch from an initial commit containing one
// placeholder file when the branch ref does not exist. An existing branch is
// left untouched.
func (r *Repo) EnsureBranch(name, placeholderPath, placeholderContent string) error {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err == nil {
		return nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("resolve branch %s: %w", name, err)
	}

	blob, err := r.writeBlob([]byte(placeholderContent))
	if err != nil {
		return err
	}
	treeHash, err := r.updateTree(nil, map[string]plumbing.Hash{placeholderPath: blob})
	if err != nil {
		return err
	}
	if _, err := r.commit(name, treeHash, nil, fmt.Sprintf("Initialize %s branch", name)); err != nil {
		return err
	}

	slog.Info("branch created", "branch", name)
	return nil
}

// WriteFile creates or updates a single file on the branch. When the stored
// blob at path already equals content the write is skipped and no commit is
// made. A missing branch is created from scratch by the write.
func (r *Repo) WriteFile(branch, path, content, message string) (skipped bool, err error) {
	head, baseTree, err := r.branchHead(branch)
	if err != nil {
		return false, err
	}

	if baseTree != nil {
		existing, found, err := treeFileContent(baseTree, path)
		if err != nil {
			return false, err
		}
		if found && existing == content {
			return true, nil
		}
	}

	blob, err := r.writeBlob([]byte(content))
	if err != nil {
		return false, err
	}
	treeHash, err := r.updateTree(baseTree, map[string]plumbing.Hash{path: blob})
	if err != nil {
		return false, err
	}

	var parents []plumbing.Hash
	if head != nil {
		parents = append(parents, head.Hash)
	}
	if _, err := r.commit(branch, treeHash, parents, message); err != nil {
		return false, err
	}
	return false, nil
}

// WriteFiles applies all changed files in one commit on the branch. Files
// whose stored content already matches are dropped from the commit, keeping
// their existing blob. Returns the number of files actually written; zero
// changed files means no commit at all.
func (r *Repo) WriteFiles(branch string, files []FileChange, message string) (written int, err error) {
	head, baseTree, err := r.branchHead(branch)
	if err != nil {
		return 0, err
	}

	changes := make(map[string]plumbing.Hash)
	for _, f := range files {
		if baseTree != nil {
			existing, found, err := treeFileContent(baseTree, f.Path)
			if err != nil {
				return 0, err
			}
			if found && existing == f.Content {
				continue
			}
		}
		blob, err := r.writeBlob([]byte(f.Content))
		if err != nil {
			return 0, err
		}
		changes[f.Path] = blob
	}

	if len(changes) == 0 {
		slog.Debug("no file changes", "branch", branch)
		return 0, nil
	}

	treeHash, err := r.updateTree(baseTree, changes)
	if err != nil {
		return 0, err
	}

	var parents []plumbing.Hash
	if head != nil {
		parents = append(parents, head.Hash)
	}
	if _, err := r.commit(branch, treeHash, parents, message); err != nil {
		return 0, err
	}

	slog.Info("files committed", "branch", branch, "written", len(changes), "unchanged", len(files)-len(changes))
	return len(changes), nil
}

// PushReadme writes the branch's README.md with the usual content compare.
func (r *Repo) PushReadme(branch, content, message string) (skipped bool, err error) {
	return r.WriteFile(branch, "README.md", content, message)
}

// FileContent returns the content of path on the branch head, with found
// reporting whether branch and file exist.
func (r *Repo) FileContent(branch, path string) (content string, found bool, err error) {
	_, tree, err := r.branchHead(branch)
	if err != nil || tree == nil {
		return "", false, err
	}
	return treeFileContent(tree, path)
}

// History returns the commit messages of the branch, newest first, following
// first parents. A missing branch is ErrBranchMissing.
func (r *Repo) History(branch string) ([]string, error) {
	head, _, err := r.branchHead(branch)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, WrapError(ErrBranchMissing, branch)
	}

	var messages []string
	for c := head; ; {
		messages = append(messages, c.Message)
		if c.NumParents() == 0 {
			break
		}
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("load parent commit: %w", err)
		}
		c = parent
	}
	return messages, nil
}

// treeFileContent reads one file from a tree; a lookup miss is found=false.
func treeFileContent(tree *object.Tree, path string) (content string, found bool, err error) {
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", path, err)
	}
	content, err = f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return content, true, nil
}
