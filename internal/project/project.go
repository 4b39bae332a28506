// Package project holds the explicit project context: where the tracked tree
// lives, which directory user paths are relative to, and how paths are
// converted between user form and the canonical form used as graph keys.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lineage/internal/ir"
)

// InvalidPathError reports a path that escapes the tracked tree, names
// metadata, or does not exist at the requested revision.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// Project is the context every normalization and build runs against.
type Project struct {
	// Root is the absolute worktree root.
	Root string

	// WorkDir is the directory relative user paths are resolved against and
	// display paths are rendered relative to.
	WorkDir string

	// Repo is the repository backing the tree, nil for path-only use.
	Repo *git.Repository
}

// New creates a path-only project. An empty workDir means root.
func New(root, workDir string) *Project {
	if workDir == "" {
		workDir = root
	}
	return &Project{Root: filepath.Clean(root), WorkDir: filepath.Clean(workDir)}
}

// Open discovers the repository enclosing dir and returns its project.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", abs, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	p := New(wt.Filesystem.Root(), abs)
	p.Repo = repo
	return p, nil
}

// Normalize converts path into the canonical project-relative key: NFC
// normalized, slash-separated, with "." and ".." resolved. Relative paths
// are taken relative to Root, so Normalize is idempotent.
//
// Paths outside the tree, the tree root itself, and metadata paths are
// rejected with InvalidPathError.
func (p *Project) Normalize(path string) (string, error) {
	if path == "" {
		return "", &InvalidPathError{Path: path, Reason: "empty path"}
	}

	native := filepath.FromSlash(norm.NFC.String(path))
	if !filepath.IsAbs(native) {
		native = filepath.Join(p.Root, native)
	}

	rel, err := filepath.Rel(p.Root, filepath.Clean(native))
	if err != nil {
		return "", &InvalidPathError{Path: path, Reason: err.Error()}
	}
	if rel == "." {
		return "", &InvalidPathError{Path: path, Reason: "is the project root"}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &InvalidPathError{Path: path, Reason: "outside the project tree " + p.Root}
	}

	key := filepath.ToSlash(rel)
	if ir.IsMetadata(key) || key == ".git" || strings.HasPrefix(key, ".git/") {
		return "", &InvalidPathError{Path: path, Reason: "is repository metadata"}
	}
	return key, nil
}

// Resolve normalizes a path given by a user, interpreting relative paths
// against WorkDir.
func (p *Project) Resolve(path string) (string, error) {
	native := filepath.FromSlash(path)
	if path != "" && !filepath.IsAbs(native) {
		native = filepath.Join(p.WorkDir, native)
	}
	key, err := p.Normalize(native)
	if err != nil {
		// Report the path as the user typed it.
		var ipe *InvalidPathError
		if errors.As(err, &ipe) {
			ipe.Path = path
		}
		return "", err
	}
	return key, nil
}

// Format renders a canonical key for display, relative to WorkDir.
func (p *Project) Format(key string) string {
	abs := filepath.Join(p.Root, filepath.FromSlash(key))
	rel, err := filepath.Rel(p.WorkDir, abs)
	if err != nil {
		return key
	}
	return filepath.ToSlash(rel)
}
