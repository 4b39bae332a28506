package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrExportNotFound is returned when no export has the requested id.
var ErrExportNotFound = errors.New("export not found")

// Direction is the role of a node in an edge.
type Direction string

const (
	DirectionConsumes  Direction = "consumes"
	DirectionGenerates Direction = "generates"
)

// Export summarizes one stored export.
type Export struct {
	ID        string   `json:"id"`
	Revision  string   `json:"revision"`
	CommitID  string   `json:"commit_id"`
	Scope     []string `json:"scope"`
	Nodes     int      `json:"nodes"`
	Processes int      `json:"processes"`
	Outputs   int      `json:"outputs"`
}

// Edge links a process to a node it consumed or generated.
type Edge struct {
	ProcessID int       `json:"process_id"`
	NodeID    int       `json:"node_id"`
	Direction Direction `json:"direction"`
}

// ReadExport returns the summary of export id.
func (s *Store) ReadExport(ctx context.Context, id string) (Export, error) {
	e := Export{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT revision, commit_id,
			(SELECT COUNT(*) FROM nodes WHERE export_id = e.id),
			(SELECT COUNT(*) FROM processes WHERE export_id = e.id),
			(SELECT COUNT(*) FROM outputs WHERE export_id = e.id)
		FROM exports e
		WHERE e.id = ?
	`, id).Scan(&e.Revision, &e.CommitID, &e.Nodes, &e.Processes, &e.Outputs)
	if errors.Is(err, sql.ErrNoRows) {
		return Export{}, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	if err != nil {
		return Export{}, fmt.Errorf("read export: %w", err)
	}

	e.Scope, err = s.strings(ctx, `
		SELECT path FROM scope WHERE export_id = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return Export{}, fmt.Errorf("read scope: %w", err)
	}
	return e, nil
}

// ListExports returns every export id in the order they were written.
func (s *Store) ListExports(ctx context.Context) ([]string, error) {
	ids, err := s.strings(ctx, `SELECT id FROM exports ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return ids, nil
}

// ReadOutputs returns the output paths of export id, sorted.
func (s *Store) ReadOutputs(ctx context.Context, id string) ([]string, error) {
	paths, err := s.strings(ctx, `
		SELECT path FROM outputs WHERE export_id = ? ORDER BY path COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read outputs: %w", err)
	}
	return paths, nil
}

// ReadSiblingPaths returns the paths generated by the process that generated
// the latest recorded version of path in export id, sorted. A path without a
// producer is its own only sibling; a path not in the export has none.
func (s *Store) ReadSiblingPaths(ctx context.Context, id, path string) ([]string, error) {
	var producer sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT producer FROM nodes
		WHERE export_id = ? AND path = ? AND commit_id != ''
		ORDER BY ord DESC
		LIMIT 1
	`, id, path).Scan(&producer)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read siblings: %w", err)
	}
	if !producer.Valid {
		return []string{path}, nil
	}

	paths, err := s.strings(ctx, `
		SELECT DISTINCT n.path
		FROM edges e
		JOIN nodes n ON n.export_id = e.export_id AND n.id = e.node_id
		WHERE e.export_id = ? AND e.process_id = ? AND e.direction = ?
		ORDER BY n.path COLLATE BINARY ASC
	`, id, producer.Int64, string(DirectionGenerates))
	if err != nil {
		return nil, fmt.Errorf("read siblings: %w", err)
	}
	return paths, nil
}

// ReadEdges returns every edge of export id ordered by process, direction
// and position.
func (s *Store) ReadEdges(ctx context.Context, id string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT process_id, node_id, direction
		FROM edges
		WHERE export_id = ?
		ORDER BY process_id ASC, direction COLLATE BINARY ASC, position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		var e Edge
		var dir string
		if err := rows.Scan(&e.ProcessID, &e.NodeID, &dir); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Direction = Direction(dir)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// strings runs a single-column query. Returns an empty slice, not nil, when
// there are no rows.
func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
