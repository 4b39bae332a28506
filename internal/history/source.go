package history

import (
	"context"

	"github.com/roach88/lineage/internal/ir"
)

// Source is the version-control history a Reader consumes.
type Source interface {
	// Resolve maps a revision (symbolic name or hash) to a commit id.
	Resolve(ctx context.Context, revision string) (string, error)

	// Log returns every commit reachable from commitID, including it, in
	// any order. Each record lists its parent ids.
	Log(ctx context.Context, commitID string) ([]ir.CommitRecord, error)

	// Exists reports whether path is a file in the tree of commitID.
	Exists(ctx context.Context, commitID, path string) (bool, error)
}
