// Package dispatch implements the legacy kernel-table dispatch mechanism:
// a process-wide registry mapping (Backend, ScalarType) pairs to kernel
// tables, with lazy once-only initialization of backend runtimes and an
// optional autograd-wrapping layer on top of the base tables.
package dispatch

import "github.com/pkg/errors"

// Error taxonomy for the dispatch core. All validation failures are raised
// synchronously, before any partial mutation of output buffers; callers can
// match them with errors.Is and retry with corrected input.
var (
	// ErrBackendUnavailable means a device family's runtime could not
	// initialize, e.g. no accelerator is present.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTypeNotEnabled means no kernel table is registered for a concrete
	// (backend, scalar type) pair.
	ErrTypeNotEnabled = errors.New("type is not enabled")

	// ErrInvalidDType means an operator received a tensor of an element
	// type it does not support, e.g. indices that are not int64.
	ErrInvalidDType = errors.New("invalid dtype")

	// ErrShapeMismatch means an operator received tensors of inconsistent
	// or malformed shapes.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDimOutOfRange means a dimension argument is outside the valid
	// range for the tensor's rank.
	ErrDimOutOfRange = errors.New("dimension out of range")

	// ErrUnsupported marks documented unsupported combinations, such as
	// sparse gradients for max-mode embedding bags.
	ErrUnsupported = errors.New("unsupported combination")
)
