package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/x448/float16"
)

// tensorBuffer is a reference-counted shared buffer for Copy-on-Write semantics.
// This enables cheap cloning and inplace optimizations when refCount == 1.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// isUnique returns true if this buffer has only one reference (enables inplace ops).
func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation the kernel tables operate
// on. It uses reference-counted shared buffers for Copy-on-Write semantics.
type RawTensor struct {
	buffer  *tensorBuffer // Shared reference-counted buffer
	shape   Shape         // Tensor dimensions
	stride  []int         // Memory strides (row-major)
	dtype   ScalarType    // Runtime element type
	backend Backend       // Backend the tensor lives on
	offset  int           // Offset for slicing/views
}

// NewRaw creates a new RawTensor with the given shape, element type, and
// backend. Memory is allocated zero-initialized.
func NewRaw(shape Shape, dtype ScalarType, backend Backend) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		buffer:  newTensorBuffer(byteSize),
		shape:   shape.Clone(),
		stride:  shape.ComputeStrides(),
		dtype:   dtype,
		backend: backend,
		offset:  0,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// ScalarType returns the tensor's element type.
func (r *RawTensor) ScalarType() ScalarType {
	return r.dtype
}

// Backend returns the backend the tensor lives on.
func (r *RawTensor) Backend() Backend {
	return r.backend
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset:]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's element type is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.checkType(Float32)
	return rawSlice[float32](r)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's element type is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.checkType(Float64)
	return rawSlice[float64](r)
}

// AsFloat16 interprets the data as []float16.Float16 (IEEE 754 binary16 bit
// patterns). Panics if the tensor's element type is not Float16.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	r.checkType(Float16)
	return rawSlice[float16.Float16](r)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's element type is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	r.checkType(Int32)
	return rawSlice[int32](r)
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's element type is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	r.checkType(Int64)
	return rawSlice[int64](r)
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's element type is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	r.checkType(Uint8)
	return r.buffer.data[r.offset:] // Already []byte = []uint8
}

// AsBool interprets the data as []bool.
// Panics if the tensor's element type is not Bool.
func (r *RawTensor) AsBool() []bool {
	r.checkType(Bool)
	return rawSlice[bool](r)
}

// AsComplex64 interprets the data as []complex64.
// Panics if the tensor's element type is not Complex64.
func (r *RawTensor) AsComplex64() []complex64 {
	r.checkType(Complex64)
	return rawSlice[complex64](r)
}

// AsComplex128 interprets the data as []complex128.
// Panics if the tensor's element type is not Complex128.
func (r *RawTensor) AsComplex128() []complex128 {
	r.checkType(Complex128)
	return rawSlice[complex128](r)
}

func (r *RawTensor) checkType(want ScalarType) {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor element type is %s, not %s", r.dtype, want))
	}
}

// rawSlice reinterprets the underlying bytes as a typed slice.
//
//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
func rawSlice[T any](r *RawTensor) []T {
	n := r.NumElements()
	if n == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference
// counting). The buffer will be copied only when modified (copy-on-write).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef() // Increment reference count
	return &RawTensor{
		buffer:  r.buffer, // Share the same buffer
		shape:   r.shape.Clone(),
		stride:  append([]int(nil), r.stride...), // Copy strides
		dtype:   r.dtype,
		backend: r.backend,
		offset:  r.offset,
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// IsContiguous returns true if the tensor's memory layout is dense row-major.
// Tensors built by this package always are; views with custom strides are not.
func (r *RawTensor) IsContiguous() bool {
	expected := r.shape.ComputeStrides()
	for i := range expected {
		if r.stride[i] != expected[i] {
			return false
		}
	}
	return true
}
