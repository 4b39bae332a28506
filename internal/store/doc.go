// Package store exports provenance graphs to SQLite for ad-hoc querying.
//
// An export is a snapshot of one built graph:
//   - exports: one row per export, with the revision and commit it was built at
//   - scope: the path filter of the build, in request order
//   - processes: recorded invocations
//   - nodes: file versions and synthetic leaves, keyed by ir.NodeKey
//   - edges: consumes and generates links between processes and nodes
//   - outputs: paths whose latest version was generated
//
// Exports are write-once. Queries never read them back into a graph; the
// repository history stays the only source of truth.
//
// # Deterministic Query Results
//
// Every read orders by an explicit key (seq, id or path COLLATE BINARY), so
// identical exports read back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
