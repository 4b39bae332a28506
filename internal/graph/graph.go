package graph

import (
	"sort"
	"sync"
)

// NodeID addresses a node in a Graph's node arena.
type NodeID int

// ProcessID addresses a process in a Graph's process arena.
type ProcessID int

// NoProcess marks a node that no recorded process generated.
const NoProcess ProcessID = -1

// tombstone marks a deleted path in a version history.
const tombstone NodeID = -1

// NodeKind distinguishes raw inputs from generated outputs.
type NodeKind int

const (
	// RawInput is a file added or edited without a recorded process, or a
	// synthetic leaf.
	RawInput NodeKind = iota
	// GeneratedOutput is a file produced by a recorded process.
	GeneratedOutput
)

func (k NodeKind) String() string {
	if k == GeneratedOutput {
		return "generated"
	}
	return "raw"
}

// Node is a file as it existed after a commit.
type Node struct {
	ID       NodeID    `json:"id"`
	Path     string    `json:"path"`
	CommitID string    `json:"commit_id,omitempty"` // Empty for synthetic leaves
	Order    int       `json:"order"`               // Build position of CommitID, -1 for synthetic leaves
	Producer ProcessID `json:"producer"`            // NoProcess for raw inputs
}

// Kind reports whether the node was generated by a process.
func (n Node) Kind() NodeKind {
	if n.Producer == NoProcess {
		return RawInput
	}
	return GeneratedOutput
}

// Synthetic reports whether the node stands in for an input that has no
// recorded version in scope.
func (n Node) Synthetic() bool {
	return n.CommitID == ""
}

// Process is one recorded invocation.
type Process struct {
	ID        ProcessID `json:"id"`
	RunID     string    `json:"run_id"`
	CommitID  string    `json:"commit_id"`
	Order     int       `json:"order"`
	Command   string    `json:"command,omitempty"`
	Consumes  []NodeID  `json:"consumes"`
	Generates []NodeID  `json:"generates"`
}

type nodeKey struct {
	path   string
	commit string
}

type version struct {
	order int
	node  NodeID
}

// Graph is the immutable provenance graph built for one query.
// It is safe for concurrent reads.
type Graph struct {
	revision string
	commitID string
	scope    []string

	nodes     []Node
	processes []Process
	byKey     map[nodeKey]NodeID
	versions  map[string][]version
	content   map[NodeID]string // Blob hash per node, when known
	orders    map[string]int
	commits   []string
	requested []NodeID

	outputsOnce sync.Once
	outputs     []string
}

func newGraph(revision, commitID string, scope []string) *Graph {
	return &Graph{
		revision: revision,
		commitID: commitID,
		scope:    scope,
		byKey:    make(map[nodeKey]NodeID),
		versions: make(map[string][]version),
		content:  make(map[NodeID]string),
		orders:   make(map[string]int),
	}
}

// Revision returns the revision the graph was requested for.
func (g *Graph) Revision() string { return g.revision }

// CommitID returns the commit the revision resolved to.
func (g *Graph) CommitID() string { return g.commitID }

// Scope returns the normalized path filter, empty for the whole tree.
func (g *Graph) Scope() []string { return append([]string{}, g.scope...) }

// Commits returns the commits the graph was built from, oldest first.
func (g *Graph) Commits() []string { return append([]string{}, g.commits...) }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []Node {
	return append([]Node{}, g.nodes...)
}

// Process returns the process with the given id.
func (g *Graph) Process(id ProcessID) (Process, bool) {
	if id < 0 || int(id) >= len(g.processes) {
		return Process{}, false
	}
	return cloneProcess(g.processes[id]), true
}

// Processes returns every process in commit order.
func (g *Graph) Processes() []Process {
	out := make([]Process, len(g.processes))
	for i, p := range g.processes {
		out[i] = cloneProcess(p)
	}
	return out
}

// Lookup returns the node for (path, commitID). Synthetic leaves are found
// with an empty commitID.
func (g *Graph) Lookup(path, commitID string) (NodeID, bool) {
	id, ok := g.byKey[nodeKey{path: path, commit: commitID}]
	return id, ok
}

// Requested returns the latest node of every scope path, in scope order.
func (g *Graph) Requested() []NodeID {
	return append([]NodeID{}, g.requested...)
}

// Paths returns every path with a recorded version, sorted.
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.versions))
	for p := range g.versions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Latest returns the most recent version of path in the graph. Deleted
// paths have no latest version.
func (g *Graph) Latest(path string) (NodeID, bool) {
	vs := g.versions[path]
	if len(vs) == 0 {
		return 0, false
	}
	return live(vs[len(vs)-1])
}

// LatestAt returns the version of path current after commitID. commitID
// must be one of the graph's commits.
func (g *Graph) LatestAt(path, commitID string) (NodeID, bool) {
	order, ok := g.orders[commitID]
	if !ok {
		return 0, false
	}
	return g.versionAt(path, order+1)
}

// versionAt returns the last version of path strictly before order.
func (g *Graph) versionAt(path string, order int) (NodeID, bool) {
	vs := g.versions[path]
	i := sort.Search(len(vs), func(i int) bool { return vs[i].order >= order })
	if i == 0 {
		return 0, false
	}
	return live(vs[i-1])
}

func live(v version) (NodeID, bool) {
	if v.node == tombstone {
		return 0, false
	}
	return v.node, true
}

func cloneProcess(p Process) Process {
	p.Consumes = append([]NodeID{}, p.Consumes...)
	p.Generates = append([]NodeID{}, p.Generates...)
	return p
}
