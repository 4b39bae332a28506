package graph

import "sort"

// Siblings returns every node generated by the same process as id,
// including id itself. A node with no producing process is its own only
// sibling. Results are sorted by path, then commit order.
func (g *Graph) Siblings(id NodeID) []NodeID {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	if n.Producer == NoProcess {
		return []NodeID{id}
	}

	out := append([]NodeID{}, g.processes[n.Producer].Generates...)
	g.sortNodes(out)
	return out
}

// SiblingPaths returns the distinct paths of the union of the siblings of
// ids, sorted.
func (g *Graph) SiblingPaths(ids ...NodeID) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, id := range ids {
		for _, s := range g.Siblings(id) {
			p := g.nodes[s].Path
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// OutputPaths returns the sorted paths whose latest version in the graph was
// generated by a process. Output status is last-write-wins: a plain edit or
// deletion after the generating commit clears it.
func (g *Graph) OutputPaths() []string {
	g.outputsOnce.Do(func() {
		g.outputs = []string{}
		for path := range g.versions {
			if g.IsOutput(path) {
				g.outputs = append(g.outputs, path)
			}
		}
		sort.Strings(g.outputs)
	})
	return append([]string{}, g.outputs...)
}

// IsOutput reports whether path is in OutputPaths.
func (g *Graph) IsOutput(path string) bool {
	id, ok := g.Latest(path)
	return ok && g.nodes[id].Producer != NoProcess
}

// Producer returns the process that generated id.
func (g *Graph) Producer(id NodeID) (Process, bool) {
	n, ok := g.Node(id)
	if !ok || n.Producer == NoProcess {
		return Process{}, false
	}
	return g.Process(n.Producer)
}

// Consumers returns the processes that consumed id, in commit order.
func (g *Graph) Consumers(id NodeID) []ProcessID {
	var out []ProcessID
	for _, p := range g.processes {
		for _, in := range p.Consumes {
			if in == id {
				out = append(out, p.ID)
				break
			}
		}
	}
	return out
}

func (g *Graph) sortNodes(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := g.nodes[ids[i]], g.nodes[ids[j]]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Order < b.Order
	})
}
