package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitRecordTouches(t *testing.T) {
	c := CommitRecord{Changed: []string{"a"}, Removed: []string{"b"}}
	assert.True(t, c.Touches(map[string]bool{"a": true}))
	assert.True(t, c.Touches(map[string]bool{"b": true}))
	assert.False(t, c.Touches(map[string]bool{"c": true}))
	assert.False(t, c.Touches(nil))
}

func TestCommitRecordTouches_DeclaredOutputWithoutTreeChange(t *testing.T) {
	c := CommitRecord{
		Changed: []string{},
		Process: &ProcessInvocation{
			ID:      "rerun",
			Inputs:  []string{"source.txt"},
			Outputs: []string{"result.wc"},
		},
	}
	assert.True(t, c.Touches(map[string]bool{"result.wc": true}))
	assert.False(t, c.Touches(map[string]bool{"source.txt": true}))
}
