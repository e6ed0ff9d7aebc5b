// Package vpuerrors defines the stable error taxonomy shared by every
// pillar of the dispatch loop. Each category carries a comparable Code so
// callers can branch with errors.Is instead of parsing messages.
package vpuerrors

import (
	"errors"
	"fmt"
)

// Code identifies a category of dispatch failure.
type Code int

const (
	// TaskRejected means task validation failed before profiling began.
	TaskRejected Code = iota + 1
	// KernelMissing means a plan step named an operation absent from the registry.
	KernelMissing
	// JITPrecondition means EXECUTE_JIT_SAXPY ran without a staged kernel.
	JITPrecondition
	// NoCandidatePlan means the Orchestrator produced an empty candidate list.
	NoCandidatePlan
	// SensorUnavailable is soft: logged and swallowed, never returned to a caller.
	SensorUnavailable
	// FusionError is soft: logged and swallowed, never returned to a caller.
	FusionError
)

func (c Code) String() string {
	switch c {
	case TaskRejected:
		return "TaskRejected"
	case KernelMissing:
		return "KernelMissing"
	case JITPrecondition:
		return "JITPrecondition"
	case NoCandidatePlan:
		return "NoCandidatePlan"
	case SensorUnavailable:
		return "SensorUnavailable"
	case FusionError:
		return "FusionError"
	default:
		return "Unknown"
	}
}

// VPUError is the single error type abort-worthy pillars return.
// Categories 1-4 are hard failures; 5-6 exist for internal bookkeeping and
// should never cross the Dispatcher boundary.
type VPUError struct {
	Code   Code
	Detail string
	Err    error
}

func (e *VPUError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *VPUError) Unwrap() error { return e.Err }

// New constructs a VPUError with no wrapped cause.
func New(code Code, detail string) *VPUError {
	return &VPUError{Code: code, Detail: detail}
}

// Wrap constructs a VPUError around an underlying cause.
func Wrap(code Code, detail string, err error) *VPUError {
	return &VPUError{Code: code, Detail: detail, Err: err}
}

// Is allows errors.Is(err, vpuerrors.New(vpuerrors.TaskRejected, "")) style
// checks that compare only on Code, ignoring Detail and Err.
func (e *VPUError) Is(target error) bool {
	var other *VPUError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// CodeOf extracts the Code from err, or 0 if err is not a *VPUError.
func CodeOf(err error) Code {
	var v *VPUError
	if errors.As(err, &v) {
		return v.Code
	}
	return 0
}
