package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/lineage/internal/graph"
	"github.com/roach88/lineage/internal/ir"
)

// WriteGraph stores g as export id in a single transaction. Either the whole
// graph is written or nothing is. Writing an id twice fails on the exports
// UNIQUE constraint.
//
// Node ids are positions in g and only meaningful within one export; the
// key column is content-addressed and joins the same file version across
// exports.
func (s *Store) WriteGraph(ctx context.Context, id string, g *graph.Graph) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write export: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO exports (id, revision, commit_id)
		VALUES (?, ?, ?)
	`, id, g.Revision(), g.CommitID()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	for i, p := range g.Scope() {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO scope (export_id, position, path) VALUES (?, ?, ?)
		`, id, i, p); err != nil {
			return fmt.Errorf("write scope: %w", err)
		}
	}

	// Processes before nodes: nodes reference their producer.
	processes := g.Processes()
	for _, p := range processes {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO processes (export_id, id, run_id, commit_id, ord, command)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, p.ID, p.RunID, p.CommitID, p.Order, p.Command); err != nil {
			return fmt.Errorf("write process %s: %w", p.RunID, err)
		}
	}

	for _, n := range g.Nodes() {
		var producer sql.NullInt64
		if n.Producer != graph.NoProcess {
			producer = sql.NullInt64{Int64: int64(n.Producer), Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO nodes (export_id, id, key, path, commit_id, ord, producer)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, n.ID, ir.NodeKey(n.Path, n.CommitID), n.Path, n.CommitID, n.Order, producer); err != nil {
			return fmt.Errorf("write node %s: %w", n.Path, err)
		}
	}

	for _, p := range processes {
		if err = writeEdges(ctx, tx, id, p.ID, DirectionConsumes, p.Consumes); err != nil {
			return err
		}
		if err = writeEdges(ctx, tx, id, p.ID, DirectionGenerates, p.Generates); err != nil {
			return err
		}
	}

	for _, path := range g.OutputPaths() {
		node, _ := g.Latest(path)
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO outputs (export_id, path, node_id) VALUES (?, ?, ?)
		`, id, path, node); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write export: commit: %w", err)
	}

	slog.Debug("export written",
		"export", id,
		"commit", g.CommitID(),
		"nodes", g.Len(),
		"processes", len(processes))
	return nil
}

func writeEdges(ctx context.Context, tx *sql.Tx, exportID string, proc graph.ProcessID, dir Direction, nodes []graph.NodeID) error {
	for i, n := range nodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (export_id, process_id, node_id, direction, position)
			VALUES (?, ?, ?, ?, ?)
		`, exportID, proc, n, string(dir), i); err != nil {
			return fmt.Errorf("write %s edge: %w", dir, err)
		}
	}
	return nil
}
