package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProcess = "lineage/process/v1"
	DomainNode    = "lineage/node/v1"
)

// hashWithDomain computes SHA-256 over domain and parts, each followed by a
// 0x00 separator so that ("ab","c") and ("a","bc") never collide.
func hashWithDomain(domain string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ProcessID derives the identifier of a descriptor that did not record one.
// It is stable for a given commit and descriptor body, and distinct commits
// never share it.
func ProcessID(commitID string, descriptor []byte) string {
	return hashWithDomain(DomainProcess, commitID, string(descriptor))
}

// NodeKey computes the content-addressed key of a (path, commit) node.
// Synthetic leaves use an empty commit.
func NodeKey(path, commitID string) string {
	return hashWithDomain(DomainNode, path, commitID)
}
