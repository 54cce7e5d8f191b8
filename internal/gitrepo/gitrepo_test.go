package gitrepo

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(&Options{
		FS:  memfs.New(),
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return repo
}

func TestNewRequiresFS(t *testing.T) {
	_, err := New(&Options{})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestEnsureBranchCreatesPlaceholderCommit(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.EnsureBranch("version-31.20", "README.md", "# Hotfixes for 31.20\n"))

	history, err := repo.History("version-31.20")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Initialize version-31.20 branch", history[0])

	content, found, err := repo.FileContent("version-31.20", "README.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "# Hotfixes for 31.20\n", content)
}

func TestEnsureBranchIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.EnsureBranch("main", "README.md", "one"))
	require.NoError(t, repo.EnsureBranch("main", "README.md", "two"))

	history, err := repo.History("main")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	content, _, err := repo.FileContent("main", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "one", content)
}

func TestWriteFileCreatesAndUpdates(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "placeholder"))

	skipped, err := repo.WriteFile("main", "hotfixes/DefaultGame.ini", "[a]\nk=1\n", "Add DefaultGame")
	require.NoError(t, err)
	assert.False(t, skipped)

	content, found, err := repo.FileContent("main", "hotfixes/DefaultGame.ini")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "[a]\nk=1\n", content)

	// Update with different content commits again.
	skipped, err = repo.WriteFile("main", "hotfixes/DefaultGame.ini", "[a]\nk=2\n", "Update DefaultGame")
	require.NoError(t, err)
	assert.False(t, skipped)

	history, err := repo.History("main")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestWriteFileSkipsIdenticalContent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "placeholder"))

	_, err := repo.WriteFile("main", "hotfixes/DefaultGame.ini", "same", "Add")
	require.NoError(t, err)

	skipped, err := repo.WriteFile("main", "hotfixes/DefaultGame.ini", "same", "Add again")
	require.NoError(t, err)
	assert.True(t, skipped)

	history, err := repo.History("main")
	require.NoError(t, err)
	assert.Len(t, history, 2, "identical write must not commit")
}

func TestWriteFileUsesEnsuredCommitAsParent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("version-31.20", "README.md", "ph"))

	_, err := repo.WriteFile("version-31.20", "hotfixes/a.ini", "x", "Add a")
	require.NoError(t, err)

	history, err := repo.History("version-31.20")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Add a", history[0])
	assert.Equal(t, "Initialize version-31.20 branch", history[1])
}

func TestWriteFilesBatchesIntoOneCommit(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "ph"))

	files := []FileChange{
		{Path: "hotfixes/a.ini", Content: "a"},
		{Path: "hotfixes/b.ini", Content: "b"},
		{Path: "hotfixes/c.ini", Content: "c"},
	}
	written, err := repo.WriteFiles("main", files, "Ingest 3 hotfixes")
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	history, err := repo.History("main")
	require.NoError(t, err)
	assert.Len(t, history, 2, "three files must land in one commit")

	for _, f := range files {
		content, found, err := repo.FileContent("main", f.Path)
		require.NoError(t, err)
		require.True(t, found, f.Path)
		assert.Equal(t, f.Content, content)
	}

	// Placeholder entry must be carried forward.
	_, found, err := repo.FileContent("main", "README.md")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWriteFilesSkipsUnchangedAndCommitsRest(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "ph"))

	_, err := repo.WriteFiles("main", []FileChange{{Path: "hotfixes/a.ini", Content: "a"}}, "Ingest a")
	require.NoError(t, err)

	written, err := repo.WriteFiles("main", []FileChange{
		{Path: "hotfixes/a.ini", Content: "a"},  // unchanged
		{Path: "hotfixes/b.ini", Content: "b2"}, // new
	}, "Ingest b")
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	content, _, err := repo.FileContent("main", "hotfixes/a.ini")
	require.NoError(t, err)
	assert.Equal(t, "a", content)
}

func TestWriteFilesAllUnchangedMakesNoCommit(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "ph"))

	files := []FileChange{{Path: "hotfixes/a.ini", Content: "a"}}
	_, err := repo.WriteFiles("main", files, "Ingest")
	require.NoError(t, err)

	before, err := repo.History("main")
	require.NoError(t, err)

	written, err := repo.WriteFiles("main", files, "Ingest again")
	require.NoError(t, err)
	assert.Zero(t, written)

	after, err := repo.History("main")
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestWriteFilesOnMissingBranchCreatesIt(t *testing.T) {
	repo := newTestRepo(t)

	written, err := repo.WriteFiles("fresh", []FileChange{{Path: "hotfixes/a.ini", Content: "a"}}, "Ingest")
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	history, err := repo.History("fresh")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPushReadme(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "old"))

	skipped, err := repo.PushReadme("main", "# Index\n", "Update index")
	require.NoError(t, err)
	assert.False(t, skipped)

	skipped, err = repo.PushReadme("main", "# Index\n", "Update index")
	require.NoError(t, err)
	assert.True(t, skipped)

	content, _, err := repo.FileContent("main", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Index\n", content)
}

func TestHistoryMissingBranch(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.History("nope")
	assert.ErrorIs(t, err, ErrBranchMissing)
}

func TestBranchesAreIndependent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureBranch("main", "README.md", "stable"))
	require.NoError(t, repo.EnsureBranch("version-31.20", "README.md", "versioned"))

	_, err := repo.WriteFiles("version-31.20", []FileChange{{Path: "hotfixes/a.ini", Content: "a"}}, "Ingest")
	require.NoError(t, err)

	_, found, err := repo.FileContent("main", "hotfixes/a.ini")
	require.NoError(t, err)
	assert.False(t, found, "write on version branch must not leak to main")
}
