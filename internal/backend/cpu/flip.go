package cpu

import (
	"github.com/pkg/errors"

	"github.com/flint-ml/flint/internal/dispatch"
	"github.com/flint-ml/flint/internal/tensor"
)

// checkFlipDims validates the flip dims eagerly and returns them wrapped into
// the non-negative range. Negative dims count from the end.
func checkFlipDims(totalDims int, dims []int) ([]int, error) {
	if len(dims) == 0 || len(dims) > totalDims {
		return nil, errors.Wrapf(dispatch.ErrDimOutOfRange,
			"flip: dims size out of range, got flip dims size=%d", len(dims))
	}

	wrapped := make([]int, len(dims))
	for i, d := range dims {
		if d < -totalDims || d >= totalDims {
			return nil, errors.Wrapf(dispatch.ErrDimOutOfRange,
				"flip: dim %d out of range for %d-D tensor", d, totalDims)
		}
		if d < 0 {
			d += totalDims
		}
		wrapped[i] = d
	}

	seen := make(map[int]bool, len(wrapped))
	for _, d := range wrapped {
		if seen[d] {
			return nil, errors.Wrapf(dispatch.ErrShapeMismatch,
				"flip: dims has duplicates, dim %d appears more than once", d)
		}
		seen[d] = true
	}
	return wrapped, nil
}

// Flip reverses the tensor along the given dims. The copy works on raw bytes,
// so it serves every scalar type of the table uniformly.
func (t *Table) Flip(x *tensor.RawTensor, dims []int) (*tensor.RawTensor, error) {
	if x.ScalarType() != t.scalar {
		return nil, errors.Wrapf(dispatch.ErrInvalidDType,
			"flip: tensor element type is %s, table serves %s", x.ScalarType(), t.scalar)
	}

	shape := x.Shape()
	wrapped, err := checkFlipDims(len(shape), dims)
	if err != nil {
		return nil, err
	}

	flipDim := make([]bool, len(shape))
	for _, d := range wrapped {
		flipDim[d] = true
	}

	out := tensor.Zeros(shape, t.scalar, tensor.CPU)
	elemSize := t.scalar.Size()
	strides := shape.ComputeStrides()
	srcData := x.Data()
	dstData := out.Data()

	n := x.NumElements()
	multiIdx := make([]int, len(shape))
	for i := 0; i < n; i++ {
		remaining := i
		for d := range shape {
			multiIdx[d] = remaining / strides[d]
			remaining %= strides[d]
		}
		srcIdx := 0
		for d := range shape {
			pos := multiIdx[d]
			if flipDim[d] {
				pos = shape[d] - 1 - pos
			}
			srcIdx += pos * strides[d]
		}
		copy(dstData[i*elemSize:(i+1)*elemSize], srcData[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}
	return out, nil
}
