package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound means no event with the given name is configured.
	// Fatal to the calling request, never retried silently.
	ErrEventNotFound = errors.New("event not found")
	// ErrNoTeam means the user has no team assignment for an otherwise
	// valid event.
	ErrNoTeam = errors.New("user has no team for this event")
)

// HookError wraps a failure from one event definition's lifecycle hook.
// Hook failures never abort sibling events' hooks.
type HookError struct {
	Event string
	Hook  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("event %s: %s hook: %v", e.Event, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

func hookErr(event, hook string, err error) error {
	if err == nil {
		return nil
	}
	return &HookError{Event: event, Hook: hook, Err: err}
}
