package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/testutil"
)

func TestSiblings(t *testing.T) {
	g := build(t, siblingsFixture(t))

	tests := []struct {
		path string
		want []string
	}{
		{"A", []string{"A"}},
		{"B", []string{"B"}},
		{"C", []string{"C", "D"}},
		{"D", []string{"C", "D"}},
		{"E", []string{"E"}},
		{"F", []string{"F", "G"}},
		{"G", []string{"F", "G"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id := latest(t, g, tt.path)
			assert.Equal(t, tt.want, pathsOf(g, g.Siblings(id)))
			assert.Equal(t, tt.want, g.SiblingPaths(id))
		})
	}
}

func TestSiblings_FilteredBuild(t *testing.T) {
	repo := siblingsFixture(t)

	tests := []struct {
		paths []string
		want  []string
	}{
		{[]string{"C"}, []string{"C", "D"}},
		{[]string{"G"}, []string{"F", "G"}},
		{[]string{"A"}, []string{"A"}},
		{[]string{"A", "G"}, []string{"A", "F", "G"}},
		{[]string{"C", "D"}, []string{"C", "D"}},
	}

	for _, tt := range tests {
		g := build(t, repo, tt.paths...)
		assert.Equal(t, tt.want, g.SiblingPaths(g.Requested()...), "paths %v", tt.paths)
	}
}

func TestSiblings_ReflexiveAndSymmetric(t *testing.T) {
	g := build(t, siblingsFixture(t))

	for _, n := range g.Nodes() {
		sibs := g.Siblings(n.ID)
		assert.Contains(t, sibs, n.ID, "%s is not its own sibling", n.Path)
		for _, s := range sibs {
			assert.Contains(t, g.Siblings(s), n.ID, "%s -> %d is not symmetric", n.Path, s)
		}
	}
}

func TestSiblings_Unknown(t *testing.T) {
	g := build(t, wcFixture(t))
	assert.Nil(t, g.Siblings(NodeID(g.Len())))
	assert.Empty(t, g.SiblingPaths())
}

func TestSiblings_SyntheticLeaf(t *testing.T) {
	g := build(t, wcFixture(t), "result.wc")

	leaf, ok := g.Lookup("source.txt", "")
	require.True(t, ok)
	assert.Equal(t, []NodeID{leaf}, g.Siblings(leaf))
}

func TestOutputPaths(t *testing.T) {
	g := build(t, wcFixture(t))
	assert.Equal(t, []string{"result.wc"}, g.OutputPaths())
	assert.True(t, g.IsOutput("result.wc"))
	assert.False(t, g.IsOutput("source.txt"))
	assert.False(t, g.IsOutput("missing"))
}

func TestOutputPaths_Empty(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	repo.Write("a", "1").Write("b", "2").Commit("plain")

	g := build(t, repo)
	assert.NotNil(t, g.OutputPaths())
	assert.Empty(t, g.OutputPaths())
}

func TestOutputPaths_LastWriteWins(t *testing.T) {
	repo := wcFixture(t)

	repo.Write("result.wc", "hand edited").Commit("edit result")
	assert.Empty(t, build(t, repo).OutputPaths())

	repo.Run(ir.Descriptor{Command: "wc", Inputs: []string{"source.txt"}, Outputs: []string{"result.wc"}})
	assert.Equal(t, []string{"result.wc"}, build(t, repo).OutputPaths())
}

func TestOutputPaths_Partition(t *testing.T) {
	repo := siblingsFixture(t)
	repo.Write("C", "edited by hand").Commit("edit C")
	g := build(t, repo)

	outputs := make(map[string]bool)
	for _, p := range g.OutputPaths() {
		outputs[p] = true
	}

	for _, p := range g.Paths() {
		id := latest(t, g, p)
		n, _ := g.Node(id)
		assert.Equal(t, n.Kind() == GeneratedOutput, outputs[p], "%s", p)
	}
	assert.Equal(t, []string{"B", "D", "E", "F", "G"}, g.OutputPaths())
}

func TestConsumers(t *testing.T) {
	g := build(t, siblingsFixture(t))

	d := latest(t, g, "D")
	consumers := g.Consumers(d)
	require.Len(t, consumers, 1)

	p, ok := g.Process(consumers[0])
	require.True(t, ok)
	assert.Equal(t, "make-e", p.Command)
	assert.Empty(t, g.Consumers(latest(t, g, "G")))
}

func TestProcess_ReturnsCopy(t *testing.T) {
	g := build(t, wcFixture(t))

	p, ok := g.Process(0)
	require.True(t, ok)
	p.Generates[0] = 99

	again, _ := g.Process(0)
	assert.NotEqual(t, NodeID(99), again.Generates[0])

	_, ok = g.Process(ProcessID(len(g.Processes())))
	assert.False(t, ok)
}
