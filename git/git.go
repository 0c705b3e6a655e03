// Package git wraps go-git with the small set of repository operations
// the fix loop needs: identifying the current branch and head, committing
// marked fix changes, and pushing them back. All repository state lives
// behind a billy filesystem, so tests run entirely in memory.
package git

import (
	"context"
	"errors"
	"time"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultRemoteName is the remote used for push operations.
const DefaultRemoteName = "origin"

// Identity names the author of fix commits.
type Identity struct {
	Name  string
	Email string
}

// Repo is an open git repository with a worktree.
type Repo struct {
	repo *gogit.Repository
	wt   *gogit.Worktree
	fs   billy.Filesystem
}

// Open opens the repository rooted at the given filesystem. The
// filesystem must contain a .git directory.
func Open(fsys billy.Filesystem) (*Repo, error) {
	storer, err := storage(fsys)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.Open(storer, fsys)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotARepository
		}
		return nil, WrapError(err, "could not open repository")
	}
	return wrap(repo, fsys)
}

// Init creates a new repository rooted at the given filesystem.
func Init(fsys billy.Filesystem) (*Repo, error) {
	storer, err := storage(fsys)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.Init(storer, fsys)
	if err != nil {
		return nil, WrapError(err, "could not initialize repository")
	}
	return wrap(repo, fsys)
}

func storage(fsys billy.Filesystem) (*filesystem.Storage, error) {
	dot, err := fsys.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, WrapError(err, "could not scope git directory")
	}
	return filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), nil
}

func wrap(repo *gogit.Repository, fsys billy.Filesystem) (*Repo, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "could not open worktree")
	}
	return &Repo{repo: repo, wt: wt, fs: fsys}, nil
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "could not resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// HeadHash returns the full hash of the current head commit. The hash
// identifies the exact tree content a build ran against, which makes it a
// stable retry token: a fix commit moves the head, so a stale token can
// be recognized and discarded.
func (r *Repo) HeadHash() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "could not resolve HEAD")
	}
	return head.Hash().String(), nil
}

// HeadMessage returns the commit message of the head commit. Fix-commit
// markers in it carry recovery state across process invocations.
func (r *Repo) HeadMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "could not resolve HEAD")
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", WrapError(err, "could not read head commit")
	}
	return commit.Message, nil
}

// IsClean reports whether the worktree has no staged or unstaged changes.
func (r *Repo) IsClean() (bool, error) {
	status, err := r.wt.Status()
	if err != nil {
		return false, WrapError(err, "could not read worktree status")
	}
	return status.IsClean(), nil
}

// CommitAll stages every change in the worktree and commits it with the
// given message. Returns ErrNothingToCommit when the worktree is clean.
func (r *Repo) CommitAll(message string, author Identity) (string, error) {
	clean, err := r.IsClean()
	if err != nil {
		return "", err
	}
	if clean {
		return "", ErrNothingToCommit
	}

	if err := r.wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", WrapError(err, "could not stage changes")
	}

	hash, err := r.wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", WrapError(err, "could not commit changes")
	}
	return hash.String(), nil
}

// Push pushes the current branch to the remote. Honors context
// cancellation. Returns ErrAlreadyUpToDate when the remote already has
// the head commit.
func (r *Repo) Push(ctx context.Context, remote string) error {
	if remote == "" {
		remote = DefaultRemoteName
	}
	err := r.repo.PushContext(ctx, &gogit.PushOptions{RemoteName: remote})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return ErrAlreadyUpToDate
	}
	if err != nil {
		return WrapErrorf(err, "could not push to %q", remote)
	}
	return nil
}
