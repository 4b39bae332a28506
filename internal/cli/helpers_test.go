package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/testutil"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func (r result) code() int { return GetExitCode(r.err) }

// execute runs the root command with args against a fresh command tree.
func execute(t *testing.T, args ...string) result {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// decodeData unmarshals the data of a JSON success response into v.
func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// wcRepo records `wc < source.txt > result.wc` as run wc-run.
func wcRepo(t *testing.T) *testutil.Repo {
	repo := testutil.NewDiskRepo(t)
	repo.Write("source.txt", "one two three\n").Commit("add source")
	repo.Run(ir.Descriptor{ID: "wc-run", Command: "wc", Inputs: []string{"source.txt"}, Outputs: []string{"result.wc"}})
	return repo
}

// siblingsRepo records A (by hand), then B, {C, D}, E and {F, G}, each
// generated from the previous step.
func siblingsRepo(t *testing.T) *testutil.Repo {
	repo := testutil.NewDiskRepo(t)
	repo.Write("A", "a\n").Commit("add A")
	repo.Run(ir.Descriptor{ID: "make-b", Inputs: []string{"A"}, Outputs: []string{"B"}})
	repo.Run(ir.Descriptor{ID: "make-cd", Inputs: []string{"B"}, Outputs: []string{"C", "D"}})
	repo.Run(ir.Descriptor{ID: "make-e", Inputs: []string{"D"}, Outputs: []string{"E"}})
	repo.Run(ir.Descriptor{ID: "make-fg", Inputs: []string{"E"}, Outputs: []string{"F", "G"}})
	return repo
}

// pipelineRepo aligns reads against an untracked reference, calls variants
// from the alignment and then edits the alignment log by hand.
func pipelineRepo(t *testing.T) *testutil.Repo {
	repo := testutil.NewDiskRepo(t)
	repo.Write("reads.fq", "ACGT\n").Commit("add reads")
	repo.Run(ir.Descriptor{
		ID:      "align",
		Command: "bwa mem",
		Inputs:  []string{"reads.fq", "ref.fa"},
		Outputs: []string{"aln.bam", "aln.log"},
	})
	repo.Run(ir.Descriptor{
		ID:      "call",
		Command: "bcftools call",
		Inputs:  []string{"aln.bam"},
		Outputs: []string{"calls.vcf"},
	})
	repo.Write("aln.log", "annotated by hand\n").Commit("edit log")
	return repo
}
