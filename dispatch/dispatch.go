// Copyright 2026 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch provides the public API for the Flint operator dispatch
// registry.
//
// The registry maps a (Backend, ScalarType) pair to the KernelTable that
// serves it, lazily initializing backend subsystems on first lookup. Backends
// register their tables through init hooks; the autodiff bridge decorates
// lookups that request gradient recording.
//
// Example:
//
//	table, err := dispatch.Global().Lookup(tensor.CPU, tensor.Float32, false)
//	if err != nil {
//	    return err
//	}
//	res, err := table.EmbeddingBag(weight, indices, offsets, false, dispatch.BagSum, false)
package dispatch

import (
	"github.com/flint-ml/flint/internal/dispatch"
)

// KernelTable is the per-(backend, scalar type) operation set the registry
// dispatches to.
type KernelTable = dispatch.KernelTable

// Registry maps (Backend, ScalarType) pairs to kernel tables.
type Registry = dispatch.Registry

// BagMode selects the reduction applied within each embedding bag.
type BagMode = dispatch.BagMode

// Bag reduction modes.
const (
	BagSum  = dispatch.BagSum
	BagMean = dispatch.BagMean
	BagMax  = dispatch.BagMax
)

// BagResult bundles the outputs of an embedding bag forward pass.
type BagResult = dispatch.BagResult

// BagGrad is an embedding bag weight gradient, dense or sparse.
type BagGrad = dispatch.BagGrad

// SparseGrad is a weight gradient in (index-list, value-list) form.
type SparseGrad = dispatch.SparseGrad

// TableDeleter releases resources owned by a replaced kernel table.
type TableDeleter = dispatch.TableDeleter

// VariableBridge decorates kernel tables with gradient recording.
type VariableBridge = dispatch.VariableBridge

// InitHooks carries the per-subsystem lazy initialization callbacks.
type InitHooks = dispatch.InitHooks

// UnavailableHooks fails every subsystem init, for builds without kernels.
type UnavailableHooks = dispatch.UnavailableHooks

// Subsystem identifies a lazily initialized dispatch subsystem.
type Subsystem = dispatch.Subsystem

// Lazily initialized subsystems.
const (
	SubsystemCPU     = dispatch.SubsystemCPU
	SubsystemCUDA    = dispatch.SubsystemCUDA
	SubsystemComplex = dispatch.SubsystemComplex
)

// NopDeleter is a TableDeleter for tables without resources to release.
var NopDeleter = dispatch.NopDeleter

// Sentinel errors returned by registry lookups and kernels.
var (
	ErrBackendUnavailable = dispatch.ErrBackendUnavailable
	ErrTypeNotEnabled     = dispatch.ErrTypeNotEnabled
	ErrInvalidDType       = dispatch.ErrInvalidDType
	ErrShapeMismatch      = dispatch.ErrShapeMismatch
	ErrDimOutOfRange      = dispatch.ErrDimOutOfRange
	ErrUnsupported        = dispatch.ErrUnsupported
)

// NewRegistry creates an empty registry with the given init hooks.
func NewRegistry(hooks InitHooks) *Registry {
	return dispatch.NewRegistry(hooks)
}

// Global returns the process-wide registry.
func Global() *Registry {
	return dispatch.Global()
}

// RegisterInitHooks replaces the init hooks of the process-wide registry.
// Backend packages call this from init; importing a backend package is all
// the wiring a program needs.
func RegisterInitHooks(hooks InitHooks) {
	dispatch.RegisterInitHooks(hooks)
}
