package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/graph"
)

// ShowOptions holds flags shared by the show subcommands.
type ShowOptions struct {
	*RootOptions
	Revision string
}

// SiblingsResult is the JSON payload of show siblings.
type SiblingsResult struct {
	Paths []string `json:"paths"`
}

// OutputsResult is the JSON payload of show outputs.
type OutputsResult struct {
	Outputs    []string `json:"outputs"`
	NotOutputs []string `json:"not_outputs,omitempty"`
}

// GraphResult is the JSON payload of show graph.
type GraphResult struct {
	Revision  string        `json:"revision"`
	CommitID  string        `json:"commit_id"`
	Commits   []string      `json:"commits"`
	Nodes     []NodeView    `json:"nodes"`
	Processes []ProcessView `json:"processes"`
	Outputs   []string      `json:"outputs"`
}

// NodeView is a graph node with its path formatted for display.
type NodeView struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	CommitID string `json:"commit_id,omitempty"`
	Kind     string `json:"kind"`
	Producer *int   `json:"producer,omitempty"`
}

// ProcessView is a recorded invocation with node references by id.
type ProcessView struct {
	ID        int    `json:"id"`
	RunID     string `json:"run_id"`
	CommitID  string `json:"commit_id"`
	Command   string `json:"command,omitempty"`
	Consumes  []int  `json:"consumes"`
	Generates []int  `json:"generates"`
}

// NewShowCommand creates the show command group.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Query the provenance graph",
		Long: `Query the provenance graph built from the project history.

Examples:
  lineage show siblings results/plot.png
  lineage show outputs
  lineage show outputs result.wc --revision HEAD~2
  lineage show graph --format json`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Revision, "revision", "r", "HEAD", "revision to build the graph at")

	cmd.AddCommand(newShowSiblingsCommand(opts))
	cmd.AddCommand(newShowOutputsCommand(opts))
	cmd.AddCommand(newShowGraphCommand(opts))

	return cmd
}

func newShowSiblingsCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "siblings PATHS...",
		Short: "List files generated together with the given files",
		Long: `List every file generated by the same recorded process as one of the
given files, including the files themselves. A file no process generated
is its own only sibling.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowSiblings(opts, cmd, args)
		},
	}
}

func runShowSiblings(opts *ShowOptions, cmd *cobra.Command, args []string) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	g, err := s.build(commandContext(cmd), args, opts.Revision)
	if err != nil {
		return err
	}

	paths := s.format(g.SiblingPaths(g.Requested()...))
	return s.out.Success(SiblingsResult{Paths: paths}, paths)
}

func newShowOutputsCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs [PATHS...]",
		Short: "List generated files",
		Long: `Without arguments, list every file whose latest version was generated by
a recorded process.

With arguments, list the given files that are outputs. The command exits
with status 1 when any of them is not.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowOutputs(opts, cmd, args)
		},
	}
}

func runShowOutputs(opts *ShowOptions, cmd *cobra.Command, args []string) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	g, err := s.build(commandContext(cmd), args, opts.Revision)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		paths := s.format(g.OutputPaths())
		return s.out.Success(OutputsResult{Outputs: paths}, paths)
	}

	outputs := []string{}
	var missing []string
	for _, key := range g.Scope() {
		if g.IsOutput(key) {
			outputs = append(outputs, key)
		} else {
			missing = append(missing, key)
		}
	}

	result := OutputsResult{Outputs: s.format(outputs)}
	if len(missing) > 0 {
		result.NotOutputs = s.format(missing)
	}
	if err := s.out.Success(result, result.Outputs); err != nil {
		return err
	}
	if len(missing) > 0 {
		return NewExitError(ExitFailure, "")
	}
	return nil
}

func newShowGraphCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [PATHS...]",
		Short: "Print the provenance graph",
		Long: `Print every recorded process with the file versions it consumed and
generated, followed by every file version in the graph.

File versions are shown as path@N, where N is the position of the commit
that wrote them in the graph's history (1 is the oldest). Inputs that have
no recorded version are shown as path@-.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowGraph(opts, cmd, args)
		},
	}
}

func runShowGraph(opts *ShowOptions, cmd *cobra.Command, args []string) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	g, err := s.build(commandContext(cmd), args, opts.Revision)
	if err != nil {
		return err
	}

	return s.out.Success(s.graphResult(g), s.graphLines(g))
}

func (s *session) graphResult(g *graph.Graph) GraphResult {
	result := GraphResult{
		Revision:  g.Revision(),
		CommitID:  g.CommitID(),
		Commits:   g.Commits(),
		Nodes:     []NodeView{},
		Processes: []ProcessView{},
		Outputs:   s.format(g.OutputPaths()),
	}

	for _, n := range g.Nodes() {
		v := NodeView{
			ID:       int(n.ID),
			Path:     s.builder.FormatPath(n.Path),
			CommitID: n.CommitID,
			Kind:     n.Kind().String(),
		}
		if n.Producer != graph.NoProcess {
			producer := int(n.Producer)
			v.Producer = &producer
		}
		result.Nodes = append(result.Nodes, v)
	}

	for _, p := range g.Processes() {
		result.Processes = append(result.Processes, ProcessView{
			ID:        int(p.ID),
			RunID:     p.RunID,
			CommitID:  p.CommitID,
			Command:   p.Command,
			Consumes:  nodeInts(p.Consumes),
			Generates: nodeInts(p.Generates),
		})
	}
	return result
}

func (s *session) graphLines(g *graph.Graph) []string {
	label := func(id graph.NodeID) string {
		n, _ := g.Node(id)
		if n.Synthetic() {
			return s.builder.FormatPath(n.Path) + "@-"
		}
		return fmt.Sprintf("%s@%d", s.builder.FormatPath(n.Path), n.Order+1)
	}

	lines := []string{"processes:"}
	for _, p := range g.Processes() {
		head := fmt.Sprintf("  %s@%d", p.RunID, p.Order+1)
		if p.Command != "" {
			head += " " + p.Command
		}
		lines = append(lines, head)
		for _, id := range p.Consumes {
			lines = append(lines, "    < "+label(id))
		}
		for _, id := range p.Generates {
			lines = append(lines, "    > "+label(id))
		}
	}

	lines = append(lines, "nodes:")
	for _, n := range g.Nodes() {
		line := fmt.Sprintf("  %s %s", label(n.ID), n.Kind())
		if p, ok := g.Producer(n.ID); ok {
			line += " by " + p.RunID
		}
		lines = append(lines, line)
	}
	return lines
}

func nodeInts(ids []graph.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
