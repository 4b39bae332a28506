package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/store"
	"github.com/roach88/lineage/internal/testutil"
)

func TestExport(t *testing.T) {
	repo := pipelineRepo(t)
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	res := execute(t, "-C", repo.Root(), "export", "--db", dbPath, "--id", "first")
	require.NoError(t, res.err)
	assert.Equal(t, "exported first: 6 nodes, 2 processes, 2 outputs\n", res.stdout)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	outputs, err := st.ReadOutputs(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, []string{"aln.bam", "calls.vcf"}, outputs)

	siblings, err := st.ReadSiblingPaths(context.Background(), "first", "aln.bam")
	require.NoError(t, err)
	assert.Equal(t, []string{"aln.bam", "aln.log"}, siblings)
}

func TestExport_JSON(t *testing.T) {
	repo := wcRepo(t)
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	res := execute(t, "-C", repo.Root(), "--format", "json", "export", "--db", dbPath, "result.wc")
	require.NoError(t, res.err)

	var got store.Export
	decodeData(t, res.stdout, &got)

	id, err := uuid.Parse(got.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, "HEAD", got.Revision)
	assert.Equal(t, repo.Head(), got.CommitID)
	assert.Equal(t, []string{"result.wc"}, got.Scope)
	assert.Equal(t, 1, got.Outputs)
}

func TestExport_Errors(t *testing.T) {
	repo := wcRepo(t)
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	res := execute(t, "-C", repo.Root(), "export")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "required flag")

	res = execute(t, "-C", repo.Root(), "export", "--db", dbPath, "nope.txt")
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.err.Error(), "does not exist")

	res = execute(t, "-C", repo.Root(), "export", "--db", dbPath, "--id", "dup")
	require.NoError(t, res.err)
	res = execute(t, "-C", repo.Root(), "export", "--db", dbPath, "--id", "dup")
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.err.Error(), "failed to export graph")

	res = execute(t, "-C", repo.Root(), "export", "--db", "/nonexistent/dir/lineage.db")
	assert.Equal(t, ExitCommandError, res.code())
	assert.Contains(t, res.err.Error(), "failed to open database")
}

func TestExport_ScopedToNestedFile(t *testing.T) {
	repo := testutil.NewDiskRepo(t)
	repo.Write("data.csv", "a,b\n").Commit("add data")
	repo.Run(ir.Descriptor{ID: "summarize", Inputs: []string{"data.csv"}, Outputs: []string{"results/summary.csv"}})
	dbPath := filepath.Join(t.TempDir(), "lineage.db")

	res := execute(t, "-C", repo.Root(), "export", "--db", dbPath, "--id", "file", "results/summary.csv")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "exported file:")

	res = execute(t, "-C", repo.Root(), "export", "--db", dbPath, "--id", "dir", "results")
	assert.Equal(t, ExitCommandError, res.code())
}
