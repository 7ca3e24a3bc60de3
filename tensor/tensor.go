// Copyright 2026 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the Flint tensor types.
//
// The package re-exports the core value types the dispatch registry and the
// kernel tables operate on:
//   - RawTensor: dense in-memory tensor with a runtime element type
//   - ScalarType, Backend: closed enumerations used as dispatch keys
//   - Shape: tensor dimensions with row-major stride computation
//
// Example:
//
//	w, _ := tensor.FromFloat32(data, tensor.Shape{10, 4}, tensor.CPU)
//	fmt.Println(w.ScalarType(), w.Backend()) // float32 CPU
package tensor

import (
	"github.com/flint-ml/flint/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// ScalarType represents runtime element-type information for tensors.
type ScalarType = tensor.ScalarType

// Scalar type constants.
const (
	Float32         = tensor.Float32
	Float64         = tensor.Float64
	Float16         = tensor.Float16
	Int32           = tensor.Int32
	Int64           = tensor.Int64
	Uint8           = tensor.Uint8
	Bool            = tensor.Bool
	Complex64       = tensor.Complex64
	Complex128      = tensor.Complex128
	UndefinedScalar = tensor.UndefinedScalar

	// NumScalarTypes is the size of the ScalarType enumeration.
	NumScalarTypes = tensor.NumScalarTypes
)

// Backend identifies a device family plus sparsity layout.
type Backend = tensor.Backend

// Backend constants.
const (
	CPU              = tensor.CPU
	CUDA             = tensor.CUDA
	SparseCPU        = tensor.SparseCPU
	SparseCUDA       = tensor.SparseCUDA
	UndefinedBackend = tensor.UndefinedBackend

	// NumBackends is the size of the Backend enumeration.
	NumBackends = tensor.NumBackends
)

// DeviceType identifies the device family of a backend, independent of
// sparsity.
type DeviceType = tensor.DeviceType

// Device family constants.
const (
	CPUDevice  = tensor.CPUDevice
	CUDADevice = tensor.CUDADevice
)

// Layout identifies the memory layout of tensors on a backend.
type Layout = tensor.Layout

// Layout constants.
const (
	Strided = tensor.Strided
	Sparse  = tensor.Sparse
)

// RawTensor is the low-level tensor representation the kernel tables operate
// on.
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-initialized RawTensor.
func NewRaw(shape Shape, dtype ScalarType, backend Backend) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, backend)
}

// Zeros creates a zero-filled RawTensor, panicking on an invalid shape.
func Zeros(shape Shape, dtype ScalarType, backend Backend) *RawTensor {
	return tensor.Zeros(shape, dtype, backend)
}

// FromFloat32 creates a Float32 RawTensor from a slice.
func FromFloat32(data []float32, shape Shape, backend Backend) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape, backend)
}

// FromFloat64 creates a Float64 RawTensor from a slice.
func FromFloat64(data []float64, shape Shape, backend Backend) (*RawTensor, error) {
	return tensor.FromFloat64(data, shape, backend)
}

// FromInt64 creates an Int64 RawTensor from a slice.
func FromInt64(data []int64, shape Shape, backend Backend) (*RawTensor, error) {
	return tensor.FromInt64(data, shape, backend)
}
