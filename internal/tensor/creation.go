package tensor

import "fmt"

// Zeros creates a zero-filled RawTensor.
func Zeros(shape Shape, dtype ScalarType, backend Backend) *RawTensor {
	raw, err := NewRaw(shape, dtype, backend)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	// Data is already zero-initialized by make()
	return raw
}

// FromFloat32 creates a Float32 RawTensor from a slice.
// The data is copied; len(data) must equal shape.NumElements().
func FromFloat32(data []float32, shape Shape, backend Backend) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float32, backend)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsFloat32(), data)
	return raw, nil
}

// FromFloat64 creates a Float64 RawTensor from a slice.
// The data is copied; len(data) must equal shape.NumElements().
func FromFloat64(data []float64, shape Shape, backend Backend) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float64, backend)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsFloat64(), data)
	return raw, nil
}

// FromInt64 creates an Int64 RawTensor from a slice.
// The data is copied; len(data) must equal shape.NumElements().
func FromInt64(data []int64, shape Shape, backend Backend) (*RawTensor, error) {
	raw, err := NewRaw(shape, Int64, backend)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsInt64(), data)
	return raw, nil
}
