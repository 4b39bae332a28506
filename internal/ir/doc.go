// Package ir provides the provenance record types shared by the history
// reader, the graph builder and the CLI.
//
// This package contains type definitions and the run descriptor codec only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - All paths are project-relative, slash-separated and clean
//   - Records are immutable once read from history
//   - Descriptor ids are stable: either recorded explicitly or derived from
//     the commit hash and descriptor body (see hash.go)
package ir
