package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/project"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	ID      string
	Inputs  []string
	Outputs []string
	Message string
}

// RecordResult is the JSON payload of record.
type RecordResult struct {
	ID       string   `json:"id"`
	CommitID string   `json:"commit_id"`
	Command  string   `json:"command,omitempty"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record [flags] [-- COMMAND...]",
		Short: "Record a process that produced files",
		Long: `Record that a process consumed the --input files and generated the
--output files, and commit the outputs together with a run descriptor.

The command is not executed; run it first, then record it. Every output
must exist in the working tree.

Examples:
  wc < source.txt > result.wc
  lineage record -i source.txt -o result.wc -- wc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "run id (default: generated UUIDv7)")
	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "file the process consumed (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Outputs, "output", "o", nil, "file the process generated (repeatable, required)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "commit message")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command, args []string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	p, err := project.Open(opts.Project)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to open project", err))
	}
	wt, err := p.Repo.Worktree()
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to open worktree", err))
	}
	fs := wt.Filesystem

	d := ir.Descriptor{ID: opts.ID, Command: strings.Join(args, " ")}
	if d.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "failed to generate run id", err))
		}
		d.ID = id.String()
	}

	if d.Inputs, err = resolveAll(p, opts.Inputs); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "invalid input", err))
	}
	if d.Outputs, err = resolveAll(p, opts.Outputs); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "invalid output", err))
	}
	for _, key := range d.Outputs {
		if _, err := fs.Stat(key); err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "invalid output",
				&project.InvalidPathError{Path: key, Reason: "does not exist in the working tree"}))
		}
	}

	data, err := ir.EncodeDescriptor(d)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "invalid run", err))
	}

	runPath := ir.RunPath(d.ID)
	if _, err := fs.Stat(runPath); err == nil {
		return out.Fail(NewExitError(ExitCommandError, fmt.Sprintf("run %s is already recorded", d.ID)))
	}
	if err := fs.MkdirAll(ir.RunsDir, 0o755); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to write run descriptor", err))
	}
	if err := util.WriteFile(fs, runPath, data, 0o644); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to write run descriptor", err))
	}

	for _, key := range append(append([]string{}, d.Outputs...), runPath) {
		if _, err := wt.Add(key); err != nil {
			_ = fs.Remove(runPath)
			return out.Fail(WrapExitError(ExitCommandError, "failed to stage "+key, err))
		}
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("lineage: record %s", d.ID)
		if d.Command != "" {
			message += "\n\n" + d.Command
		}
	}

	sig := signature(p.Repo)
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to commit run", err))
	}

	slog.Debug("run recorded", "run", d.ID, "commit", hash.String(), "outputs", len(d.Outputs))

	result := RecordResult{
		ID:       d.ID,
		CommitID: hash.String(),
		Command:  d.Command,
		Inputs:   d.Inputs,
		Outputs:  d.Outputs,
	}
	return out.Success(result, []string{fmt.Sprintf("recorded %s in %s", d.ID, hash.String()[:7])})
}

func resolveAll(p *project.Project, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		key, err := p.Resolve(path)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// signature returns the committer identity from git configuration, falling
// back to a fixed lineage identity when none is configured.
func signature(repo *git.Repository) *object.Signature {
	sig := &object.Signature{Name: "lineage", Email: "lineage@localhost", When: time.Now()}

	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}
