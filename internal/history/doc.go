// Package history reads recorded provenance out of a project's commit history.
//
// A Source is the version-control collaborator: it resolves revisions and
// lists reachable commits, each as an ir.CommitRecord carrying its changed
// paths and, when the commit recorded one, its run descriptor. GitSource is
// the go-git implementation.
//
// Reader turns a Source log into the sequence the graph builder consumes:
// oldest-recorded-first (every commit after all of its parents) and
// restricted to the commits that touch a path filter.
//
// # Errors
//
//   - RevisionNotFoundError: the revision does not resolve
//   - HistoryUnavailableError: storage could not be read, a run descriptor
//     is malformed, or a storage deadline expired
//
// Cancellation via context.Canceled is returned unwrapped; the caller
// discards whatever it was building.
package history
