package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/project"
	"github.com/roach88/lineage/internal/testutil"
)

const testRoot = "/project"

func newTestBuilder(repo *testutil.Repo) *Builder {
	return NewBuilder(
		project.New(testRoot, ""),
		history.NewReader(history.NewGitSource(repo.Repo)),
	)
}

func build(t *testing.T, repo *testutil.Repo, paths ...string) *Graph {
	t.Helper()
	g, err := newTestBuilder(repo).Build(context.Background(), paths, "HEAD")
	require.NoError(t, err)
	return g
}

func latest(t *testing.T, g *Graph, path string) NodeID {
	t.Helper()
	id, ok := g.Latest(path)
	require.True(t, ok, "no live version of %s", path)
	return id
}

func pathsOf(g *Graph, ids []NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, _ := g.Node(id)
		out = append(out, n.Path)
	}
	sort.Strings(out)
	return out
}

// siblingsFixture records:
//
//	      D---E---G
//	     /     \
//	A---B---C   F
//
// A is added by hand; B, {C, D}, E and {F, G} are each generated by one run.
func siblingsFixture(t *testing.T) *testutil.Repo {
	repo := testutil.NewMemoryRepo(t)
	repo.Write("A", "a\n").Commit("add A")
	repo.Run(ir.Descriptor{Command: "make-b", Inputs: []string{"A"}, Outputs: []string{"B"}})
	repo.Run(ir.Descriptor{Command: "make-cd", Inputs: []string{"B"}, Outputs: []string{"C", "D"}})
	repo.Run(ir.Descriptor{Command: "make-e", Inputs: []string{"D"}, Outputs: []string{"E"}})
	repo.Run(ir.Descriptor{Command: "make-fg", Inputs: []string{"E"}, Outputs: []string{"F", "G"}})
	return repo
}

// wcFixture records `wc < source.txt > result.wc`.
func wcFixture(t *testing.T) *testutil.Repo {
	repo := testutil.NewMemoryRepo(t)
	repo.Write("source.txt", "one two three\n").Commit("add source")
	repo.Run(ir.Descriptor{Command: "wc", Inputs: []string{"source.txt"}, Outputs: []string{"result.wc"}})
	return repo
}
