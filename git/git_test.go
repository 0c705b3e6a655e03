package git

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Identity{Name: "amplify-auto-fix", Email: "auto-fix@example.com"}

func initRepo(t *testing.T) (*Repo, billy.Filesystem) {
	t.Helper()
	fsys := memfs.New()
	repo, err := Init(fsys)
	require.NoError(t, err)
	return repo, fsys
}

func writeFile(t *testing.T, fsys billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := Open(memfs.New())
	assert.ErrorIs(t, err, ErrNotARepository)
}

func TestCommitAll(t *testing.T) {
	repo, fsys := initRepo(t)
	writeFile(t, fsys, "index.js", "console.log('hello')\n")

	hash, err := repo.CommitAll("chore: initial import", testAuthor)
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	clean, err := repo.IsClean()
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestCommitAllNothingToCommit(t *testing.T) {
	repo, fsys := initRepo(t)
	writeFile(t, fsys, "index.js", "console.log('hello')\n")
	_, err := repo.CommitAll("chore: initial import", testAuthor)
	require.NoError(t, err)

	_, err = repo.CommitAll("fix: nothing changed", testAuthor)
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestHeadHashMovesWithCommits(t *testing.T) {
	repo, fsys := initRepo(t)
	writeFile(t, fsys, "index.js", "v1\n")
	_, err := repo.CommitAll("chore: v1", testAuthor)
	require.NoError(t, err)

	first, err := repo.HeadHash()
	require.NoError(t, err)

	writeFile(t, fsys, "index.js", "v2\n")
	_, err = repo.CommitAll("chore: v2", testAuthor)
	require.NoError(t, err)

	second, err := repo.HeadHash()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHeadMessage(t *testing.T) {
	repo, fsys := initRepo(t)
	writeFile(t, fsys, "index.js", "v1\n")
	_, err := repo.CommitAll("fix(lint): apply eslint fixes [auto-fix-attempt:1]", testAuthor)
	require.NoError(t, err)

	msg, err := repo.HeadMessage()
	require.NoError(t, err)
	assert.Contains(t, msg, "[auto-fix-attempt:1]")
	assert.True(t, IsAutomatedFix(msg))
}

func TestCurrentBranch(t *testing.T) {
	repo, fsys := initRepo(t)
	writeFile(t, fsys, "index.js", "v1\n")
	_, err := repo.CommitAll("chore: v1", testAuthor)
	require.NoError(t, err)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestFixCommitMessageReactive(t *testing.T) {
	msg, err := FixCommitMessage("lint", "apply eslint fixes", 1)
	require.NoError(t, err)
	assert.Equal(t, "fix(lint): apply eslint fixes [auto-fix-attempt:1]", msg)
	assert.NotContains(t, msg, SkipCIMarker)

	attempt, ok := RetryAttemptOf(msg)
	assert.True(t, ok)
	assert.Equal(t, 1, attempt)
	assert.True(t, IsAutomatedFix(msg))
}

func TestFixCommitMessagePreflight(t *testing.T) {
	msg, err := FixCommitMessage("ci", "apply preflight fixes", 0)
	require.NoError(t, err)
	assert.Equal(t, "fix(ci): apply preflight fixes [skip ci]", msg)
	assert.NotContains(t, msg, RetryMarkerPrefix)
	assert.True(t, IsAutomatedFix(msg))
}

func TestFixCommitMessageNoScope(t *testing.T) {
	msg, err := FixCommitMessage("", "regenerate outputs", 2)
	require.NoError(t, err)
	assert.Equal(t, "fix: regenerate outputs [auto-fix-attempt:2]", msg)
}

func TestFixCommitMessageEmptyDescription(t *testing.T) {
	_, err := FixCommitMessage("lint", "", 1)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestRetryAttemptOf(t *testing.T) {
	tests := []struct {
		message string
		want    int
		ok      bool
	}{
		{"fix(lint): cleanup [auto-fix-attempt:3]", 3, true},
		{"fix: cleanup [skip ci]", 0, false},
		{"feat: add page", 0, false},
		{"fix: cleanup [auto-fix-attempt:x]", 0, false},
	}
	for _, tt := range tests {
		attempt, ok := RetryAttemptOf(tt.message)
		assert.Equal(t, tt.ok, ok, tt.message)
		assert.Equal(t, tt.want, attempt, tt.message)
	}
}

func TestIsAutomatedFix(t *testing.T) {
	assert.False(t, IsAutomatedFix("feat: add checkout page"))
	assert.True(t, IsAutomatedFix("fix: bug [skip ci]"))
	assert.True(t, IsAutomatedFix("fix: bug [auto-fix-attempt:1]"))
}
