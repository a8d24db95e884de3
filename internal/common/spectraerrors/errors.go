// Package spectraerrors contains the generic error types returned by the
// scheduling core. Callers discriminate between them with errors.As, as
// opposed to matching on error strings.
//
// If multiple errors occur in some function (e.g., if several fields of a
// submission are invalid), that function should return an error of type
// multierror.Error from package github.com/hashicorp/go-multierror that
// encapsulates those individual errors.
package spectraerrors

import (
	"fmt"
	"time"
)

// ErrNoPermission is returned when a principal tries to perform some action
// for which it does not have permission, e.g., submitting a high-priority
// job without the required role.
type ErrNoPermission struct {
	// Principal that attempted the action
	Principal string
	// The missing permission
	Permission string
	// The attempted action
	Action string
	// Optional message included with the error message
	Message string
}

func (err *ErrNoPermission) Error() (s string) {
	if err.Action != "" {
		s = fmt.Sprintf("%s lacks permission %s required for action %s", err.Principal, err.Permission, err.Action)
	} else {
		s = fmt.Sprintf("%s lacks permission %s", err.Principal, err.Permission)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrNotFound is returned whenever some resource isn't found. It is also
// returned for jobs that exist but are owned by a different principal, so
// that job existence is not leaked across owners.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "job"
	Value   string // Resource identity, e.g., a job ID
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrInvalidArgument is returned on invalid submission input,
// e.g., an empty job name or a non-positive event count.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "expectedEvents"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
}

// ErrCapacityExceeded is returned by the admission controller when accepting
// more work would take the system over its configured capacity. The work is
// shed, not queued.
type ErrCapacityExceeded struct {
	CurrentLoad int64
	Capacity    int64
	Cost        int64
}

func (err *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf(
		"system at capacity: admitting work of cost %d would exceed capacity %d (current load %d)",
		err.Cost, err.Capacity, err.CurrentLoad,
	)
}

// ErrInvalidTransition is returned on an attempt to move a job to a lifecycle
// state not reachable from its current state. Seeing this error indicates a
// programming error or a race, and it is logged as such.
type ErrInvalidTransition struct {
	JobId string
	From  string
	To    string
}

func (err *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s for job %s", err.From, err.To, err.JobId)
}

// ErrUnhealthy is returned when calling through a resource that a recovery
// monitor currently considers unhealthy and the recovery timeout has not yet
// elapsed. Callers get this immediately instead of blocking on a dead
// dependency.
type ErrUnhealthy struct {
	Name    string
	RetryIn time.Duration
}

func (err *ErrUnhealthy) Error() string {
	return fmt.Sprintf("resource %q is unhealthy; next recovery probe in %s", err.Name, err.RetryIn)
}
