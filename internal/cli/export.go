package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Revision string
	ID       string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export --db PATH [PATHS...]",
		Short: "Export the provenance graph to SQLite",
		Long: `Build the provenance graph and write it to a SQLite database for ad-hoc
querying. Each export is stored under its own id; lineage itself never reads
exports back.

Examples:
  lineage export --db lineage.db
  lineage export --db lineage.db --revision v1.0 results/summary.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Revision, "revision", "r", "HEAD", "revision to build the graph at")
	cmd.Flags().StringVar(&opts.ID, "id", "", "export id (default: generated UUIDv7)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	g, err := s.build(ctx, args, opts.Revision)
	if err != nil {
		return err
	}

	id := opts.ID
	if id == "" {
		v7, err := uuid.NewV7()
		if err != nil {
			return s.out.Fail(WrapExitError(ExitCommandError, "failed to generate export id", err))
		}
		id = v7.String()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	if err := st.WriteGraph(ctx, id, g); err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, "failed to export graph", err))
	}

	summary, err := st.ReadExport(ctx, id)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, "failed to read export", err))
	}

	line := fmt.Sprintf("exported %s: %d nodes, %d processes, %d outputs",
		summary.ID, summary.Nodes, summary.Processes, summary.Outputs)
	return s.out.Success(summary, []string{line})
}
