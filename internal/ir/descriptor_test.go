package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDescriptor(t *testing.T) {
	data := []byte(`
id: run-1
command: wc
inputs: [source.txt]
outputs: [result.wc]
`)
	d, err := DecodeDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, "run-1", d.ID)
	assert.Equal(t, "wc", d.Command)
	assert.Equal(t, []string{"source.txt"}, d.Inputs)
	assert.Equal(t, []string{"result.wc"}, d.Outputs)
}

func TestDecodeDescriptor_NoInputs(t *testing.T) {
	d, err := DecodeDescriptor([]byte("outputs: [data/out.csv]\n"))
	require.NoError(t, err)
	assert.Empty(t, d.ID)
	assert.NotNil(t, d.Inputs)
	assert.Empty(t, d.Inputs)
}

func TestDecodeDescriptor_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string // empty when the schema reports it
	}{
		{"unknown field", "outputs: [a]\noutput: [b]\n", "yaml"},
		{"empty document", "", "yaml"},
		{"no outputs", "inputs: [a]\noutputs: []\n", ""},
		{"missing outputs", "inputs: [a]\n", ""},
		{"absolute path", "outputs: [/etc/passwd]\n", ""},
		{"escaping path", "outputs: [../x]\n", ""},
		{"metadata path", "inputs: [.lineage/runs/x.yaml]\noutputs: [a]\n", ""},
		{"unclean path", "outputs: [a/./b]\n", "outputs[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDescriptor([]byte(tt.data))
			require.Error(t, err)

			var de *DescriptorError
			require.ErrorAs(t, err, &de)
			if tt.field != "" {
				assert.Equal(t, tt.field, de.Field)
			}
		})
	}
}

func TestEncodeDescriptor_RoundTripsThroughDecode(t *testing.T) {
	in := Descriptor{ID: "abc", Command: "make all", Inputs: []string{"src/a.c"}, Outputs: []string{"bin/a", "bin/a.map"}}

	data, err := EncodeDescriptor(in)
	require.NoError(t, err)

	out, err := DecodeDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeDescriptor_Invalid(t *testing.T) {
	_, err := EncodeDescriptor(Descriptor{Outputs: nil})
	require.Error(t, err)
}

func TestDescriptorInvocation(t *testing.T) {
	raw := []byte("outputs: [b]\n")
	d, err := DecodeDescriptor(raw)
	require.NoError(t, err)

	inv := d.Invocation("c0ffee", raw)
	assert.Equal(t, "c0ffee", inv.CommitID)
	assert.Equal(t, ProcessID("c0ffee", raw), inv.ID)
	assert.Equal(t, []string{"b"}, inv.Outputs)

	d.ID = "explicit"
	assert.Equal(t, "explicit", d.Invocation("c0ffee", raw).ID)
}

func TestRunPaths(t *testing.T) {
	p := RunPath("123")
	assert.Equal(t, ".lineage/runs/123.yaml", p)
	assert.True(t, IsRunPath(p))
	assert.True(t, IsMetadata(p))
	assert.False(t, IsRunPath("runs/123.yaml"))
	assert.False(t, IsMetadata(".lineagex/file"))
	assert.True(t, IsMetadata(".lineage"))
}
