package testutil

import (
	"fmt"
	"path"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/ir"
)

// Repo builds fixture histories. Every commit is stamped by a
// DeterministicClock, so the same sequence of calls yields the same hashes.
//
// Not safe for concurrent use.
type Repo struct {
	t        testing.TB
	Repo     *git.Repository
	Worktree *git.Worktree
	Clock    *DeterministicClock

	staged []string
	runs   int
}

// NewMemoryRepo creates a repository held entirely in memory.
func NewMemoryRepo(t testing.TB) *Repo {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return newRepo(t, repo)
}

// NewDiskRepo creates a repository in a temporary directory, for tests that
// go through project discovery.
func NewDiskRepo(t testing.TB) *Repo {
	t.Helper()
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	return newRepo(t, repo)
}

func newRepo(t testing.TB, repo *git.Repository) *Repo {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &Repo{t: t, Repo: repo, Worktree: wt, Clock: NewDeterministicClock()}
}

// Root returns the worktree root ("/" for in-memory repositories).
func (r *Repo) Root() string {
	return r.Worktree.Filesystem.Root()
}

// Write writes a file and stages it for the next commit.
func (r *Repo) Write(name, content string) *Repo {
	r.t.Helper()
	fs := r.Worktree.Filesystem
	require.NoError(r.t, fs.MkdirAll(path.Dir(name), 0o755))
	require.NoError(r.t, util.WriteFile(fs, name, []byte(content), 0o644))
	r.staged = append(r.staged, name)
	return r
}

// Remove deletes a file from the worktree and the index.
func (r *Repo) Remove(name string) *Repo {
	r.t.Helper()
	_, err := r.Worktree.Remove(name)
	require.NoError(r.t, err)
	return r
}

// Commit stages written files and commits them, returning the commit hash.
func (r *Repo) Commit(message string) string {
	r.t.Helper()
	return r.commit(message)
}

// Merge commits the staged files as a merge of HEAD and other. The tree is
// whatever the index holds; no content is merged.
func (r *Repo) Merge(message, other string) string {
	r.t.Helper()
	return r.commit(message, r.Head(), other)
}

// Branch creates branch name at commit from and checks it out.
func (r *Repo) Branch(name, from string) *Repo {
	r.t.Helper()
	require.NoError(r.t, r.Worktree.Checkout(&git.CheckoutOptions{
		Hash:   plumbing.NewHash(from),
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}))
	return r
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(name string) *Repo {
	r.t.Helper()
	require.NoError(r.t, r.Worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	}))
	return r
}

func (r *Repo) commit(message string, parents ...string) string {
	r.t.Helper()
	for _, name := range r.staged {
		_, err := r.Worktree.Add(name)
		require.NoError(r.t, err)
	}
	r.staged = nil

	sig := &object.Signature{Name: "Fixture", Email: "fixture@example.com", When: r.Clock.NextTime()}
	opts := &git.CommitOptions{Author: sig, Committer: sig}
	for _, p := range parents {
		opts.Parents = append(opts.Parents, plumbing.NewHash(p))
	}
	hash, err := r.Worktree.Commit(message, opts)
	require.NoError(r.t, err)
	return hash.String()
}

// Run records d: it writes fresh content to every declared output, commits
// the run descriptor alongside, and returns the commit hash. Descriptors
// without an id are stored under a sequential name and get a derived id.
func (r *Repo) Run(d ir.Descriptor) string {
	r.t.Helper()
	r.runs++
	for _, out := range d.Outputs {
		r.Write(out, fmt.Sprintf("%s from %q (run %d)\n", out, d.Command, r.runs))
	}
	return r.record(d)
}

// Rerun records d without touching its outputs, as a deterministic run that
// reproduces the bytes already committed. Only the descriptor changes.
func (r *Repo) Rerun(d ir.Descriptor) string {
	r.t.Helper()
	r.runs++
	return r.record(d)
}

func (r *Repo) record(d ir.Descriptor) string {
	r.t.Helper()
	name := d.ID
	if name == "" {
		name = fmt.Sprintf("run-%03d", r.runs)
	}

	data, err := ir.EncodeDescriptor(d)
	require.NoError(r.t, err)
	r.Write(ir.RunPath(name), string(data))

	return r.Commit("record: " + d.Command)
}

// Head returns the current HEAD commit hash.
func (r *Repo) Head() string {
	r.t.Helper()
	ref, err := r.Repo.Head()
	require.NoError(r.t, err)
	return ref.Hash().String()
}
