package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/graph"
	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/project"
)

// session is the per-invocation context shared by commands that read the
// project history.
type session struct {
	project *project.Project
	builder *graph.Builder
	out     *OutputFormatter
}

func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	p, err := project.Open(opts.Project)
	if err != nil {
		return nil, out.Fail(WrapExitError(ExitCommandError, "failed to open project", err))
	}

	reader := history.NewReader(history.NewGitSource(p.Repo))
	return &session{project: p, builder: graph.NewBuilder(p, reader), out: out}, nil
}

// build resolves user paths against the working directory and builds the
// graph. Any failure aborts the command with ExitCommandError.
func (s *session) build(ctx context.Context, args []string, revision string) (*graph.Graph, error) {
	keys := make([]string, 0, len(args))
	for _, arg := range args {
		key, err := s.project.Resolve(arg)
		if err != nil {
			return nil, s.out.Fail(WrapExitError(ExitCommandError, "cannot build graph", err))
		}
		keys = append(keys, key)
	}

	g, err := s.builder.Build(ctx, keys, revision)
	if err != nil {
		return nil, s.out.Fail(WrapExitError(ExitCommandError, "cannot build graph", err))
	}
	return g, nil
}

// format renders canonical keys for display.
func (s *session) format(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.builder.FormatPath(k)
	}
	return out
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
