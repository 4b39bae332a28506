package history

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/lineage/internal/ir"
)

// Reader produces the commit sequence a graph is built from.
type Reader struct {
	source Source
}

// NewReader creates a Reader over src.
func NewReader(src Source) *Reader {
	return &Reader{source: src}
}

// Source returns the underlying history source.
func (r *Reader) Source() Source {
	return r.source
}

// Read resolves revision and returns its commit id together with the
// commits touching paths, oldest first. A commit touches a path when it
// changes, adopts or removes it, or records a process declaring it as an
// output. An empty filter keeps every commit.
//
// Ordering is computed over the full log before filtering, so a kept commit
// always follows every kept ancestor even when the commits in between were
// filtered out.
func (r *Reader) Read(ctx context.Context, revision string, paths []string) (string, []ir.CommitRecord, error) {
	commitID, err := r.source.Resolve(ctx, revision)
	if err != nil {
		return "", nil, err
	}

	records, err := r.source.Log(ctx, commitID)
	if err != nil {
		return "", nil, err
	}

	ordered := OldestFirst(records)
	if len(paths) == 0 {
		slog.Debug("history read", "revision", revision, "commit", commitID, "commits", len(ordered))
		return commitID, ordered, nil
	}

	filter := make(map[string]bool, len(paths))
	for _, p := range paths {
		filter[p] = true
	}

	kept := make([]ir.CommitRecord, 0, len(ordered))
	for _, rec := range ordered {
		if rec.Touches(filter) {
			kept = append(kept, rec)
		}
	}

	slog.Debug("history read",
		"revision", revision,
		"commit", commitID,
		"commits", len(ordered),
		"kept", len(kept),
		"paths", len(paths))

	return commitID, kept, nil
}

// OldestFirst orders records so that every commit follows all of its parents
// present in records. Among commits whose parents are all placed, the
// earliest commit time goes first, then the smallest id, so the result is
// identical for identical input regardless of input order.
func OldestFirst(records []ir.CommitRecord) []ir.CommitRecord {
	index := make(map[string]int, len(records))
	for i, rec := range records {
		index[rec.ID] = i
	}

	pending := make([]int, len(records))
	children := make(map[string][]int, len(records))
	for i, rec := range records {
		for _, p := range rec.Parents {
			// Parents outside the log (shallow history) impose no order.
			if _, ok := index[p]; !ok {
				continue
			}
			pending[i]++
			children[p] = append(children[p], i)
		}
	}

	before := func(a, b int) bool {
		ra, rb := records[a], records[b]
		if !ra.When.Equal(rb.When) {
			return ra.When.Before(rb.When)
		}
		return ra.ID < rb.ID
	}

	// ready stays sorted; the head is the next commit to emit.
	var ready []int
	push := func(i int) {
		at := sort.Search(len(ready), func(j int) bool { return before(i, ready[j]) })
		ready = append(ready, 0)
		copy(ready[at+1:], ready[at:])
		ready[at] = i
	}

	for i := range records {
		if pending[i] == 0 {
			push(i)
		}
	}

	out := make([]ir.CommitRecord, 0, len(records))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, records[next])

		for _, child := range children[records[next].ID] {
			pending[child]--
			if pending[child] == 0 {
				push(child)
			}
		}
	}

	return out
}
