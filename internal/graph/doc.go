// Package graph builds the provenance graph of a project and answers
// structural queries over it.
//
// A Graph is built fresh per query from the oldest-first commit sequence of
// a history.Reader and is immutable afterwards. Nodes are (path, commit)
// pairs: "this file as it existed after this commit". Processes are recorded
// invocations with consumes edges to the node versions they read and
// generates edges to the nodes they produced.
//
// # Storage
//
// Nodes and processes live in two arenas addressed by NodeID and ProcessID.
// Each path additionally keeps its ordered version history (commit order,
// node), so "latest version as of commit" and "version strictly before
// commit" are binary searches instead of walks back through history.
//
// # Invariants
//
//   - Every generated node has exactly one producing process
//   - A process only consumes versions from strictly earlier commits, so the
//     graph is acyclic by construction
//   - Inputs with no earlier version become synthetic leaves keyed
//     (path, "") and shared between consumers; they are not errors
//   - Deletions append a tombstone to the path's version history
//   - A merge that keeps one parent's file makes the version with the same
//     content current again, found by blob hash
package graph
