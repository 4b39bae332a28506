package history

import (
	"context"
	"errors"
	"fmt"
)

// RevisionNotFoundError reports a revision that does not resolve to a commit.
type RevisionNotFoundError struct {
	Revision string
	Err      error
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("revision %q not found in history", e.Revision)
}

func (e *RevisionNotFoundError) Unwrap() error {
	return e.Err
}

// HistoryUnavailableError reports history that exists but could not be read.
// Op names the failing step ("resolve", "log", "tree", "diff", "decode", "exists").
type HistoryUnavailableError struct {
	Op  string
	Err error
}

func (e *HistoryUnavailableError) Error() string {
	return fmt.Sprintf("history unavailable: %s: %v", e.Op, e.Err)
}

func (e *HistoryUnavailableError) Unwrap() error {
	return e.Err
}

// IsRevisionNotFound returns true if err is or wraps a RevisionNotFoundError.
func IsRevisionNotFound(err error) bool {
	var re *RevisionNotFoundError
	return errors.As(err, &re)
}

// IsUnavailable returns true if err is or wraps a HistoryUnavailableError.
func IsUnavailable(err error) bool {
	var he *HistoryUnavailableError
	return errors.As(err, &he)
}

// unavailable wraps err for op unless it is a cancellation or already
// classified. Expired deadlines count as storage failures.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || IsUnavailable(err) || IsRevisionNotFound(err) {
		return err
	}
	return &HistoryUnavailableError{Op: op, Err: err}
}
