package service

import (
	"errors"
	"fmt"
	"strings"

	"stride-sync-server/internal/domain"
)

var (
	// ErrConflictNotFound means the referenced conflict is not active:
	// already resolved or never existed.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrPermissionDenied means a permission conflict's proposed resolution
	// is itself unauthorized.
	ErrPermissionDenied = errors.New("permission denied")
)

// StrategyFailedError means the merge strategy could not reconcile every
// field. The caller must pick a different strategy; the engine never
// substitutes one silently.
type StrategyFailedError struct {
	Fields []string
}

func (e *StrategyFailedError) Error() string {
	if len(e.Fields) == 0 {
		return "merge failed: one side holds no live copy"
	}
	return fmt.Sprintf("merge failed: unmergeable fields [%s]", strings.Join(e.Fields, ", "))
}

// WriteBackError means persisting the resolved version to one of the two
// write-back destinations failed. The record stays active; a retry with the
// same strategy skips targets that already committed.
type WriteBackError struct {
	Target domain.WriteTarget
	Err    error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back to %s failed: %v", e.Target, e.Err)
}

func (e *WriteBackError) Unwrap() error {
	return e.Err
}

// ValidationError means a manually supplied resolution does not satisfy the
// entity schema's required fields.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manual resolution missing required fields [%s]", strings.Join(e.Missing, ", "))
}
