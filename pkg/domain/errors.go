package domain

import (
	"errors"
	"fmt"
)

// ErrStateNotFound is returned when a state name is not registered in the tree.
var ErrStateNotFound = errors.New("state not found")

// ErrDuplicateState is returned when registering a state name twice.
var ErrDuplicateState = errors.New("duplicate state")

// ErrParentNotFound is returned when a state references a parent that is not registered.
var ErrParentNotFound = errors.New("parent state not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// HookName identifies which per-state hook failed.
type HookName string

const (
	HookEnter      HookName = "on_enter"
	HookExit       HookName = "on_exit"
	HookInactivate HookName = "on_inactivate"
	HookReactivate HookName = "on_reactivate"
)

// HookError is returned when a per-state lifecycle hook fails.
// The registry has already been updated when this error is observed.
type HookError struct {
	State string
	Hook  HookName
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("state %q: %s hook failed: %v", e.State, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
