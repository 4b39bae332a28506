package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/project"
)

// Builder constructs graphs for one project. Building is a pure function of
// the project, the history it reads and the arguments; a Builder holds no
// graph state between calls.
type Builder struct {
	project *project.Project
	reader  *history.Reader
}

// NewBuilder creates a Builder for p reading history through reader.
func NewBuilder(p *project.Project, reader *history.Reader) *Builder {
	return &Builder{project: p, reader: reader}
}

// NormalizePath converts a path into the canonical key used by graphs.
func (b *Builder) NormalizePath(path string) (string, error) {
	return b.project.Normalize(path)
}

// FormatPath renders a canonical key for display.
func (b *Builder) FormatPath(key string) string {
	return b.project.Format(key)
}

// Build constructs the graph of revision restricted to the commits touching
// paths (every commit when paths is empty).
//
// Every path must exist at revision; the first that does not fails the whole
// build with project.InvalidPathError. Errors from history are returned as
// is and no partial graph is ever returned.
func (b *Builder) Build(ctx context.Context, paths []string, revision string) (*Graph, error) {
	keys := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		key, err := b.project.Normalize(p)
		if err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	src := b.reader.Source()
	commitID, err := src.Resolve(ctx, revision)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		ok, err := src.Exists(ctx, commitID, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &project.InvalidPathError{
				Path:   key,
				Reason: fmt.Sprintf("does not exist at revision %s", revision),
			}
		}
	}

	_, records, err := b.reader.Read(ctx, commitID, keys)
	if err != nil {
		return nil, err
	}

	g := newGraph(revision, commitID, keys)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.apply(rec)
	}

	for _, key := range keys {
		if id, ok := g.Latest(key); ok {
			g.requested = append(g.requested, id)
		}
	}

	slog.Debug("graph built",
		"revision", revision,
		"commit", commitID,
		"commits", len(g.commits),
		"nodes", len(g.nodes),
		"processes", len(g.processes))

	return g, nil
}

// apply adds one commit, which must follow every commit applied before it
// in history order.
func (g *Graph) apply(rec ir.CommitRecord) {
	order := len(g.commits)
	g.commits = append(g.commits, rec.ID)
	g.orders[rec.ID] = order

	if rec.Process == nil {
		for _, p := range rec.Changed {
			g.setContent(g.upsert(p, rec.ID, order, NoProcess), rec.Content[p])
		}
	} else {
		g.applyProcess(rec, order)
	}

	g.adopt(rec, order)

	for _, p := range rec.Removed {
		g.versions[p] = append(g.versions[p], version{order: order, node: tombstone})
	}
}

func (g *Graph) applyProcess(rec ir.CommitRecord, order int) {
	inv := rec.Process
	proc := Process{
		ID:        ProcessID(len(g.processes)),
		RunID:     inv.ID,
		CommitID:  rec.ID,
		Order:     order,
		Command:   inv.Command,
		Consumes:  []NodeID{},
		Generates: []NodeID{},
	}

	// Inputs resolve before outputs exist, so a process that rewrites its
	// own input consumes the previous version.
	for _, in := range inv.Inputs {
		proc.Consumes = appendUnique(proc.Consumes, g.resolveInput(in, order))
	}

	declared := make(map[string]bool, len(inv.Outputs))
	for _, out := range inv.Outputs {
		declared[out] = true
		id := g.upsert(out, rec.ID, order, proc.ID)
		proc.Generates = appendUnique(proc.Generates, id)

		// An output the run left byte-identical keeps its previous content.
		blob, ok := rec.Content[out]
		if !ok {
			if prev, found := g.versionAt(out, order); found {
				blob = g.content[prev]
			}
		}
		g.setContent(id, blob)
	}
	g.processes = append(g.processes, proc)

	for _, p := range rec.Changed {
		if !declared[p] {
			g.setContent(g.upsert(p, rec.ID, order, NoProcess), rec.Content[p])
		}
	}

	slog.Debug("process applied",
		"run", inv.ID,
		"commit", rec.ID,
		"inputs", len(proc.Consumes),
		"outputs", len(proc.Generates))
}

// upsert creates or overwrites the node (path, commitID).
func (g *Graph) upsert(path, commitID string, order int, producer ProcessID) NodeID {
	key := nodeKey{path: path, commit: commitID}
	if id, ok := g.byKey[key]; ok {
		g.nodes[id].Producer = producer
		return id
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		ID:       id,
		Path:     path,
		CommitID: commitID,
		Order:    order,
		Producer: producer,
	})
	g.byKey[key] = id
	g.versions[path] = append(g.versions[path], version{order: order, node: id})
	return id
}

func (g *Graph) setContent(id NodeID, blob string) {
	if blob != "" {
		g.content[id] = blob
	}
}

// adopt makes the most recent version with matching content current again
// for every path a merge kept from one of its parents. Without a match in
// the graph the path's history is left as is.
func (g *Graph) adopt(rec ir.CommitRecord, order int) {
	for _, p := range rec.Adopted {
		blob := rec.Content[p]
		if blob == "" {
			continue
		}
		vs := g.versions[p]
		for i := len(vs) - 1; i >= 0; i-- {
			id := vs[i].node
			if id == tombstone || g.content[id] != blob {
				continue
			}
			if i < len(vs)-1 {
				g.versions[p] = append(vs, version{order: order, node: id})
				slog.Debug("merge adopted version", "path", p, "commit", rec.ID, "node", id)
			}
			break
		}
	}
}

// resolveInput returns the version of path current strictly before order,
// or the path's synthetic leaf when there is none.
func (g *Graph) resolveInput(path string, order int) NodeID {
	if id, ok := g.versionAt(path, order); ok {
		return id
	}

	key := nodeKey{path: path}
	if id, ok := g.byKey[key]; ok {
		return id
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		ID:       id,
		Path:     path,
		Order:    -1,
		Producer: NoProcess,
	})
	g.byKey[key] = id
	return id
}

func appendUnique(ids []NodeID, id NodeID) []NodeID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
