package ir

import "time"

// MetadataDir is the tree prefix holding provenance metadata.
// Paths below it are never reported as changed paths of a commit.
const MetadataDir = ".lineage"

// RunsDir holds one run descriptor per recorded process invocation.
const RunsDir = MetadataDir + "/runs"

// CommitRecord is one commit of project history as seen by the graph builder.
type CommitRecord struct {
	ID      string    `json:"id"`      // Commit hash
	Parents []string  `json:"parents"` // Parent commit hashes
	When    time.Time `json:"when"`    // Committer time, used only to break ordering ties
	Message string    `json:"message"`

	// Changed lists paths added or modified by this commit.
	Changed []string `json:"changed"`

	// Adopted lists paths a merge took unchanged from one of its parents
	// while differing from another.
	Adopted []string `json:"adopted,omitempty"`

	// Removed lists paths deleted by this commit.
	Removed []string `json:"removed,omitempty"`

	// Content maps every changed or adopted path to its blob hash.
	Content map[string]string `json:"content,omitempty"`

	// Process is the invocation recorded by this commit, nil for plain edits.
	Process *ProcessInvocation `json:"process,omitempty"`
}

// Touches reports whether the commit changed, adopted or removed any of paths, or
// recorded a process declaring one of them as an output. A re-run that
// reproduces identical bytes changes nothing in the tree but still generates
// its outputs.
func (c CommitRecord) Touches(paths map[string]bool) bool {
	for _, p := range c.Changed {
		if paths[p] {
			return true
		}
	}
	for _, p := range c.Adopted {
		if paths[p] {
			return true
		}
	}
	for _, p := range c.Removed {
		if paths[p] {
			return true
		}
	}
	if c.Process != nil {
		for _, p := range c.Process.Outputs {
			if paths[p] {
				return true
			}
		}
	}
	return false
}

// ProcessInvocation identifies one recorded execution of a command.
type ProcessInvocation struct {
	ID       string   `json:"id"`
	CommitID string   `json:"commit_id"` // Commit that recorded the invocation
	Command  string   `json:"command,omitempty"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
}
