package gitrepo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// branchHead resolves a branch to its head commit and tree. A missing
// reference means "no prior state" and yields nils, not an error.
func (r *Repo) branchHead(branch string) (*object.Commit, *object.Tree, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("load head commit of %s: %w", branch, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, fmt.Errorf("load head tree of %s: %w", branch, err)
	}
	return commit, tree, nil
}

// writeBlob stores content as a blob object and returns its hash.
func (r *Repo) writeBlob(content []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("close blob: %w", err)
	}

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}
	return hash, nil
}

// updateTree builds a new tree from base (nil for an empty base) with the
// given path→blob changes applied. Entries of the base tree not named in
// changes are carried forward unchanged; only the directory spine along each
// changed path is rebuilt.
func (r *Repo) updateTree(base *object.Tree, changes map[string]plumbing.Hash) (plumbing.Hash, error) {
	var entries []object.TreeEntry
	if base != nil {
		entries = append(entries, base.Entries...)
	}

	direct := make(map[string]plumbing.Hash)
	nested := make(map[string]map[string]plumbing.Hash)
	for path, blob := range changes {
		dir, rest, found := strings.Cut(path, "/")
		if !found {
			direct[path] = blob
			continue
		}
		if nested[dir] == nil {
			nested[dir] = make(map[string]plumbing.Hash)
		}
		nested[dir][rest] = blob
	}

	for name, blob := range direct {
		entries = upsertEntry(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blob})
	}

	for dir, sub := range nested {
		var subBase *object.Tree
		if i := findEntry(entries, dir); i >= 0 && entries[i].Mode == filemode.Dir {
			t, err := r.repo.TreeObject(entries[i].Hash)
			if err != nil {
				return plumbing.ZeroHash, fmt.Errorf("load subtree %s: %w", dir, err)
			}
			subBase = t
		}
		subHash, err := r.updateTree(subBase, sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = upsertEntry(entries, object.TreeEntry{Name: dir, Mode: filemode.Dir, Hash: subHash})
	}

	sortTreeEntries(entries)

	tree := &object.Tree{Entries: entries}
	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode tree: %w", err)
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store tree: %w", err)
	}
	return hash, nil
}

// commit stores a commit object for the tree and advances the branch ref.
func (r *Repo) commit(branch string, treeHash plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	sig := r.signature()
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode commit: %w", err)
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store commit: %w", err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("advance branch %s: %w", branch, err)
	}
	return hash, nil
}

func findEntry(entries []object.TreeEntry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func upsertEntry(entries []object.TreeEntry, entry object.TreeEntry) []object.TreeEntry {
	if i := findEntry(entries, entry.Name); i >= 0 {
		entries[i] = entry
		return entries
	}
	return append(entries, entry)
}

// sortTreeEntries orders entries the way git expects: byte order over names,
// with directories compared as if their name had a trailing slash.
func sortTreeEntries(entries []object.TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return sortName(entries[i]) < sortName(entries[j])
	})
}

func sortName(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
