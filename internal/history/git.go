package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/roach88/lineage/internal/ir"
)

// GitSource reads history from a go-git repository.
// It works on any storer, so in-memory repositories serve tests.
type GitSource struct {
	repo *git.Repository
}

// NewGitSource wraps an opened repository.
func NewGitSource(repo *git.Repository) *GitSource {
	return &GitSource{repo: repo}
}

// Resolve maps revision to a commit hash. An empty revision means HEAD.
func (s *GitSource) Resolve(ctx context.Context, revision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("resolve", err)
	}
	if revision == "" {
		revision = "HEAD"
	}

	hash, err := s.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return "", &HistoryUnavailableError{Op: "resolve", Err: err}
		}
		return "", &RevisionNotFoundError{Revision: revision, Err: err}
	}

	if _, err := s.repo.CommitObject(*hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", &RevisionNotFoundError{Revision: revision, Err: err}
		}
		return "", &HistoryUnavailableError{Op: "resolve", Err: err}
	}

	return hash.String(), nil
}

// Log returns every commit reachable from commitID.
// Order is whatever go-git yields; Reader imposes the topological order.
func (s *GitSource) Log(ctx context.Context, commitID string) ([]ir.CommitRecord, error) {
	iter, err := s.repo.Log(&git.LogOptions{From: plumbing.NewHash(commitID)})
	if err != nil {
		return nil, unavailable("log", err)
	}
	defer iter.Close()

	var records []ir.CommitRecord
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := s.record(ctx, c)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, unavailable("log", err)
	}

	slog.Debug("history log read", "commit", commitID, "commits", len(records))

	if records == nil {
		records = []ir.CommitRecord{}
	}
	return records, nil
}

// Exists reports whether path names a file in the tree of commitID.
func (s *GitSource) Exists(ctx context.Context, commitID, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("exists", err)
	}

	c, err := s.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return false, unavailable("exists", err)
	}
	tree, err := c.Tree()
	if err != nil {
		return false, unavailable("tree", err)
	}

	_, err = tree.File(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, object.ErrFileNotFound),
		errors.Is(err, object.ErrDirectoryNotFound),
		errors.Is(err, object.ErrEntryNotFound):
		return false, nil
	default:
		return false, unavailable("exists", err)
	}
}

// record converts a commit into a CommitRecord, decoding its run descriptor.
func (s *GitSource) record(ctx context.Context, c *object.Commit) (ir.CommitRecord, error) {
	rec := ir.CommitRecord{
		ID:      c.Hash.String(),
		Parents: make([]string, 0, len(c.ParentHashes)),
		When:    c.Committer.When,
		Message: c.Message,
		Changed: []string{},
		Content: make(map[string]string),
	}
	for _, p := range c.ParentHashes {
		rec.Parents = append(rec.Parents, p.String())
	}

	tree, err := c.Tree()
	if err != nil {
		return ir.CommitRecord{}, unavailable("tree", err)
	}

	tc, err := changes(ctx, c, tree)
	if err != nil {
		return ir.CommitRecord{}, err
	}

	var runs []string
	for _, p := range tc.changed {
		switch {
		case ir.IsRunPath(p):
			runs = append(runs, p)
		case ir.IsMetadata(p):
		default:
			rec.Changed = append(rec.Changed, p)
			rec.Content[p] = tc.content[p]
		}
	}
	for _, p := range tc.adopted {
		if !ir.IsMetadata(p) {
			rec.Adopted = append(rec.Adopted, p)
			rec.Content[p] = tc.content[p]
		}
	}
	for _, p := range tc.removed {
		if !ir.IsMetadata(p) {
			rec.Removed = append(rec.Removed, p)
		}
	}

	switch len(runs) {
	case 0:
	case 1:
		proc, err := decodeRun(tree, rec.ID, runs[0])
		if err != nil {
			return ir.CommitRecord{}, err
		}
		rec.Process = proc
	default:
		return ir.CommitRecord{}, &HistoryUnavailableError{
			Op:  "decode",
			Err: fmt.Errorf("commit %s records %d runs %v, expected at most one", rec.ID, len(runs), runs),
		}
	}

	return rec, nil
}

// decodeRun reads and validates the descriptor at runPath.
func decodeRun(tree *object.Tree, commitID, runPath string) (*ir.ProcessInvocation, error) {
	f, err := tree.File(runPath)
	if err != nil {
		return nil, unavailable("decode", err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, unavailable("decode", err)
	}

	raw := []byte(contents)
	d, err := ir.DecodeDescriptor(raw)
	if err != nil {
		return nil, &HistoryUnavailableError{
			Op:  "decode",
			Err: fmt.Errorf("%s in commit %s: %w", runPath, commitID, err),
		}
	}
	return d.Invocation(commitID, raw), nil
}

// treeChanges is what one commit did to the tree.
type treeChanges struct {
	changed []string
	adopted []string
	removed []string
	content map[string]string
}

// changes lists the paths a commit added, modified or removed, with the blob
// hash of every path present afterwards.
//
// For a merge a path counts as changed only when it differs from every
// parent, so content brought in from a merged branch is not recorded twice.
// A path that differs from some parents but matches another is adopted: the
// merge keeps that parent's version. A path missing from the merge but
// present in any parent is removed.
func changes(ctx context.Context, c *object.Commit, tree *object.Tree) (treeChanges, error) {
	tc := treeChanges{content: make(map[string]string)}

	if c.NumParents() == 0 {
		err := tree.Files().ForEach(func(f *object.File) error {
			tc.changed = append(tc.changed, f.Name)
			tc.content[f.Name] = f.Hash.String()
			return nil
		})
		if err != nil {
			return treeChanges{}, unavailable("tree", err)
		}
		sort.Strings(tc.changed)
		return tc, nil
	}

	changedBy := make(map[string]int)
	removed := make(map[string]bool)
	parents := 0

	err := c.Parents().ForEach(func(parent *object.Commit) error {
		parents++
		parentTree, err := parent.Tree()
		if err != nil {
			return err
		}
		diff, err := parentTree.DiffContext(ctx, tree)
		if err != nil {
			return err
		}
		for _, ch := range diff {
			action, err := ch.Action()
			if err != nil {
				return err
			}
			switch action {
			case merkletrie.Insert, merkletrie.Modify:
				changedBy[ch.To.Name]++
				tc.content[ch.To.Name] = ch.To.TreeEntry.Hash.String()
			case merkletrie.Delete:
				removed[ch.From.Name] = true
			}
		}
		return nil
	})
	if err != nil {
		return treeChanges{}, unavailable("diff", err)
	}

	for p, n := range changedBy {
		if n == parents {
			tc.changed = append(tc.changed, p)
		} else {
			tc.adopted = append(tc.adopted, p)
		}
	}
	for p := range removed {
		tc.removed = append(tc.removed, p)
	}
	sort.Strings(tc.changed)
	sort.Strings(tc.adopted)
	sort.Strings(tc.removed)
	return tc, nil
}
